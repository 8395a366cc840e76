package handlers

import (
	"net/http"
	"time"

	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
)

func (h *Handler) writeDetails(w http.ResponseWriter, r *http.Request, date *time.Time) {
	list, err := h.engine.ListAll(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]appointmentDetailJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toDetailJSON(d))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"turnos":  out,
	})
}

func (h *Handler) ManagementList(w http.ResponseWriter, r *http.Request) {
	var date *time.Time
	if raw := r.URL.Query().Get("fecha"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
			return
		}
		date = &d
	}
	h.writeDetails(w, r, date)
}

func (h *Handler) ManagementToday(w http.ResponseWriter, r *http.Request) {
	today := h.engine.Today()
	h.writeDetails(w, r, &today)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	appt, err := h.engine.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Turno marcado como completado",
		"turno":   toAppointmentJSON(appt, false),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Turno eliminado correctamente",
	})
}
