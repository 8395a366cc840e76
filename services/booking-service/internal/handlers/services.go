package handlers

import (
	"net/http"
	"strings"

	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/shopspring/decimal"
)

type serviceInput struct {
	ID       looseString      `json:"id"`
	Name     string           `json:"nombre_servicio"`
	Category string           `json:"categoria"`
	Price    *decimal.Decimal `json:"precio"`
	Active   *bool            `json:"activo"`
}

func (in serviceInput) toModel() (model.Service, error) {
	s := model.Service{
		ID:       strings.TrimSpace(string(in.ID)),
		Name:     in.Name,
		Category: in.Category,
		Active:   in.Active == nil || *in.Active,
	}
	if in.Price != nil {
		s.Price = *in.Price
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func toServicesJSON(in []model.Service) []serviceJSON {
	out := make([]serviceJSON, 0, len(in))
	for _, s := range in {
		out = append(out, toServiceJSON(s))
	}
	return out
}

// ActiveServices is the public catalog shown on the booking form.
func (h *Handler) ActiveServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Services(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"servicios": toServicesJSON(list),
	})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Services(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"servicios": toServicesJSON(list),
	})
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in serviceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, "Falta información del servicio")
		return
	}
	in.ID = ""
	s, err := in.toModel()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.services.CreateService(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"mensaje":  "Servicio creado correctamente",
		"servicio": toServiceJSON(created),
	})
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var in serviceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, "Falta información del servicio")
		return
	}
	in.ID = looseString(r.PathValue("id"))
	s, err := in.toModel()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.services.UpdateService(r.Context(), s)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"mensaje":  "Servicio actualizado correctamente",
		"servicio": toServiceJSON(updated),
	})
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.services.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Servicio eliminado correctamente",
	})
}

type saveServicesInput struct {
	Services []serviceInput `json:"servicios"`
}

// SaveServices creates entries without an id and updates the rest in one
// transaction.
func (h *Handler) SaveServices(w http.ResponseWriter, r *http.Request) {
	var in saveServicesInput
	if err := httpx.DecodeJSON(r, &in); err != nil || in.Services == nil {
		badRequest(w, "Falta información de servicios")
		return
	}
	list := make([]model.Service, 0, len(in.Services))
	for _, item := range in.Services {
		s, err := item.toModel()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		list = append(list, s)
	}
	saved, err := h.services.SaveServices(r.Context(), list)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"mensaje":   "Servicios guardados correctamente",
		"servicios": toServicesJSON(saved),
	})
}
