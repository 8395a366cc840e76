package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
	"github.com/barberbook/barberbook/services/booking-service/internal/booking"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/google/uuid"
)

// ClientID issues an opaque id the browser keeps in local storage. It ties a
// visitor to their booking without an account.
func (h *Handler) ClientID(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"client_id": uuid.NewString(),
	})
}

func (h *Handler) CurrentAppointment(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		badRequest(w, "Falta client_id")
		return
	}
	appt, err := h.engine.ActiveAppointment(r.Context(), clientID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var turno *appointmentJSON
	if appt != nil {
		j := toAppointmentJSON(*appt, true)
		turno = &j
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"turno":   turno,
	})
}

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("fecha")
	if strings.TrimSpace(raw) == "" {
		badRequest(w, "Falta parámetro fecha")
		return
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		badRequest(w, "Fecha inválida (formato YYYY-MM-DD)")
		return
	}
	day, err := h.resolver.ForDate(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fecha":    model.FormatDate(day.Date),
		"horarios": day.Slots,
	})
}

type bookRequest struct {
	Date        string      `json:"fecha"`
	Time        string      `json:"hora"`
	ServiceID   looseString `json:"servicio_id"`
	ClientName  string      `json:"nombre_cliente"`
	ClientPhone string      `json:"telefono_cliente"`
	ClientID    string      `json:"client_id"`
}

func (b bookRequest) toBooking() (booking.BookingRequest, error) {
	var v model.ValidationError
	req := booking.BookingRequest{
		ServiceID:   string(b.ServiceID),
		ClientName:  b.ClientName,
		ClientPhone: b.ClientPhone,
		ClientID:    b.ClientID,
	}
	if strings.TrimSpace(b.Date) == "" {
		v.Add("fecha", "es obligatoria")
	} else if d, err := model.ParseDate(b.Date); err != nil {
		v.Add("fecha", "formato YYYY-MM-DD")
	} else {
		req.Date = d
	}
	if strings.TrimSpace(b.Time) == "" {
		v.Add("hora", "es obligatoria")
	} else if t, err := model.ParseTimeOfDay(b.Time); err != nil {
		v.Add("hora", "formato HH:MM")
	} else {
		req.Time = t
	}
	var rv *model.ValidationError
	if err := req.Validate(); errors.As(err, &rv) {
		for f, msg := range rv.Fields {
			v.Add(f, msg)
		}
	}
	if err := v.Err(); err != nil {
		return booking.BookingRequest{}, err
	}
	return req, nil
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var body bookRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		badRequest(w, "Faltan datos requeridos")
		return
	}
	req, err := body.toBooking()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	appt, err := h.engine.Book(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Turno reservado exitosamente",
		"turno":   toAppointmentJSON(appt, true),
	})
}

type cancelRequest struct {
	Token string `json:"token_cancelacion"`
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body cancelRequest
	if err := httpx.DecodeJSON(r, &body); err != nil || strings.TrimSpace(body.Token) == "" {
		badRequest(w, "Falta token_cancelacion")
		return
	}
	if _, err := h.engine.CancelByToken(r.Context(), body.Token); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Turno cancelado exitosamente",
	})
}

func (h *Handler) NextAvailable(w http.ResponseWriter, r *http.Request) {
	day, err := h.resolver.NextAvailable(r.Context(), h.horizonDays)
	if errors.Is(err, availability.ErrNoAvailability) {
		httpx.WriteError(w, http.StatusNotFound, "NO_AVAILABILITY",
			fmt.Sprintf("No hay turnos disponibles en los próximos %d días", h.horizonDays))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"proximoDisponible": dayJSON{Date: model.FormatDate(day.Date), Slots: day.Slots},
	})
}

// ListAppointments is the admin range listing; estado defaults to booked.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("fecha_inicio") == "" || q.Get("fecha_fin") == "" {
		badRequest(w, "Faltan fecha_inicio y fecha_fin")
		return
	}
	var v model.ValidationError
	from, err := model.ParseDate(q.Get("fecha_inicio"))
	if err != nil {
		v.Add("fecha_inicio", "formato YYYY-MM-DD")
	}
	to, err := model.ParseDate(q.Get("fecha_fin"))
	if err != nil {
		v.Add("fecha_fin", "formato YYYY-MM-DD")
	}
	var status model.AppointmentStatus
	if raw := q.Get("estado"); raw != "" {
		if status, err = model.ParseStatus(raw); err != nil {
			v.Add("estado", "estado desconocido")
		}
	}
	if err := v.Err(); err != nil {
		h.fail(w, r, err)
		return
	}

	appts, err := h.engine.List(r.Context(), booking.Filter{From: from, To: to, Status: status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]appointmentJSON, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentJSON(a, false))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"turnos":  out,
	})
}
