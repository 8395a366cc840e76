package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
)

type profileJSON struct {
	Name                string `json:"nombre"`
	Phone               string `json:"telefono"`
	Email               string `json:"email"`
	Address             string `json:"direccion"`
	SlotDurationMinutes int    `json:"duracion_turno"`
	SlotIntervalMinutes int    `json:"intervalo_turnos"`
	MaxAppointments     int    `json:"max_turnos"`
	UpdatedAt           string `json:"actualizado_en,omitempty"`
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	p, err := h.business.Profile(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No hay configuración")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"configuracion": profileJSON{
			Name:                p.Name,
			Phone:               p.Phone,
			Email:               p.Email,
			Address:             p.Address,
			SlotDurationMinutes: p.DefaultSlotDurationMinutes,
			SlotIntervalMinutes: p.DefaultSlotIntervalMinutes,
			MaxAppointments:     p.DefaultMaxAppointments,
			UpdatedAt:           formatTimestamp(p.UpdatedAt),
		},
	})
}

type scheduleInput struct {
	Weekday         *int    `json:"dia_semana"`
	IsOpen          *bool   `json:"abierto"`
	Open            *string `json:"hora_apertura"`
	Close           *string `json:"hora_cierre"`
	BreakStart      *string `json:"hora_descanso_inicio"`
	BreakEnd        *string `json:"hora_descanso_fin"`
	SlotDuration    *int    `json:"duracion_turno"`
	SlotInterval    *int    `json:"intervalo_turnos"`
	MaxAppointments *int    `json:"max_turnos"`
}

type configInput struct {
	Name            string          `json:"nombre"`
	Phone           string          `json:"telefono"`
	Email           string          `json:"email"`
	Address         string          `json:"direccion"`
	SlotDuration    *int            `json:"duracion_turno"`
	SlotInterval    *int            `json:"intervalo_turnos"`
	MaxAppointments *int            `json:"max_turnos"`
	Schedules       []scheduleInput `json:"horarios"`
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// parseOptionalTime treats null and "" as unset.
func parseOptionalTime(v *model.ValidationError, field string, raw *string) *model.TimeOfDay {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := model.ParseTimeOfDay(*raw)
	if err != nil {
		v.Add(field, "formato HH:MM")
		return nil
	}
	return &t
}

// toModel applies the shop-wide slot settings to weekdays that do not carry
// their own. Days default to open, as in the admin form.
func (in configInput) toModel() (model.BusinessProfile, []model.WeekdaySchedule, error) {
	p := model.BusinessProfile{
		Name:                       strings.TrimSpace(in.Name),
		Phone:                      strings.TrimSpace(in.Phone),
		Email:                      strings.TrimSpace(in.Email),
		Address:                    strings.TrimSpace(in.Address),
		DefaultSlotDurationMinutes: intOr(in.SlotDuration, model.DefaultSlotDurationMinutes),
		DefaultSlotIntervalMinutes: intOr(in.SlotInterval, model.DefaultSlotIntervalMinutes),
		DefaultMaxAppointments:     intOr(in.MaxAppointments, model.DefaultMaxAppointments),
	}
	var v model.ValidationError
	if err := p.Validate(); err != nil {
		var pv *model.ValidationError
		if errors.As(err, &pv) {
			for f, msg := range pv.Fields {
				v.Add(f, msg)
			}
		}
	}

	seen := map[int]bool{}
	schedules := make([]model.WeekdaySchedule, 0, len(in.Schedules))
	for i, s := range in.Schedules {
		if s.Weekday == nil {
			v.Add(fmt.Sprintf("horarios[%d].dia_semana", i), "es obligatorio")
			continue
		}
		prefix := fmt.Sprintf("horarios[%d].", *s.Weekday)
		if seen[*s.Weekday] {
			v.Add(prefix+"dia_semana", "día repetido")
			continue
		}
		seen[*s.Weekday] = true

		sch := model.WeekdaySchedule{
			Weekday:             *s.Weekday,
			IsOpen:              s.IsOpen == nil || *s.IsOpen,
			Open:                parseOptionalTime(&v, prefix+"hora_apertura", s.Open),
			Close:               parseOptionalTime(&v, prefix+"hora_cierre", s.Close),
			BreakStart:          parseOptionalTime(&v, prefix+"hora_descanso_inicio", s.BreakStart),
			BreakEnd:            parseOptionalTime(&v, prefix+"hora_descanso_fin", s.BreakEnd),
			SlotDurationMinutes: intOr(s.SlotDuration, p.DefaultSlotDurationMinutes),
			SlotIntervalMinutes: intOr(s.SlotInterval, p.DefaultSlotIntervalMinutes),
			MaxAppointments:     intOr(s.MaxAppointments, p.DefaultMaxAppointments),
		}
		if err := sch.Validate(); err != nil {
			var sv *model.ValidationError
			if errors.As(err, &sv) {
				for f, msg := range sv.Fields {
					v.Add(f, msg)
				}
			}
		}
		schedules = append(schedules, sch)
	}
	if err := v.Err(); err != nil {
		return model.BusinessProfile{}, nil, err
	}
	return p, schedules, nil
}

func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var in configInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, "Falta información")
		return
	}
	p, schedules, err := in.toModel()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.business.SaveBusinessConfig(r.Context(), p, schedules); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("business config saved", "weekdays", len(schedules))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Configuración guardada correctamente",
	})
}

func (h *Handler) Schedules(w http.ResponseWriter, r *http.Request) {
	all, err := h.business.Schedules(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"horarios": toSchedulesJSON(all),
	})
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("dia"))
	if err != nil || day < 0 || day > 6 {
		badRequest(w, "Día inválido (debe ser 0-6)")
		return
	}
	s, err := h.business.WeekdaySchedule(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"horario": toScheduleJSON(s),
	})
}

func (h *Handler) OpenToday(w http.ResponseWriter, r *http.Request) {
	s, err := h.business.WeekdaySchedule(r.Context(), model.WeekdayOf(h.resolver.Today()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"abierto": s.IsOpen,
	})
}
