package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/barberbook/barberbook/libs/auth"
	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
	"github.com/barberbook/barberbook/services/booking-service/internal/booking"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
)

type BusinessStore interface {
	Profile(ctx context.Context) (model.BusinessProfile, error)
	Schedules(ctx context.Context) ([]model.WeekdaySchedule, error)
	WeekdaySchedule(ctx context.Context, weekday int) (model.WeekdaySchedule, error)
	SaveBusinessConfig(ctx context.Context, p model.BusinessProfile, schedules []model.WeekdaySchedule) error
}

type ServiceStore interface {
	Services(ctx context.Context, activeOnly bool) ([]model.Service, error)
	Service(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, s model.Service) (model.Service, error)
	UpdateService(ctx context.Context, s model.Service) (model.Service, error)
	DeleteService(ctx context.Context, id string) error
	SaveServices(ctx context.Context, services []model.Service) ([]model.Service, error)
}

type AdminStore interface {
	AdminByUsername(ctx context.Context, username string) (model.AdminUser, error)
	AdminByID(ctx context.Context, id string) (model.AdminUser, error)
}

type Config struct {
	Engine   *booking.Engine
	Resolver *availability.Resolver
	Business BusinessStore
	Services ServiceStore
	Admins   AdminStore
	Signer   *auth.Signer
	Logger   *slog.Logger
	// HorizonDays bounds the next-available search.
	HorizonDays int
}

type Handler struct {
	engine      *booking.Engine
	resolver    *availability.Resolver
	business    BusinessStore
	services    ServiceStore
	admins      AdminStore
	signer      *auth.Signer
	logger      *slog.Logger
	horizonDays int
}

func New(cfg Config) *Handler {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = availability.DefaultHorizonDays
	}
	return &Handler{
		engine:      cfg.Engine,
		resolver:    cfg.Resolver,
		business:    cfg.Business,
		services:    cfg.Services,
		admins:      cfg.Admins,
		signer:      cfg.Signer,
		logger:      cfg.Logger,
		horizonDays: cfg.HorizonDays,
	}
}

// Routes returns the /api surface. limit wraps the unauthenticated write
// endpoints (booking, cancelling, login); nil disables it.
func (h *Handler) Routes(limit httpx.Middleware) http.Handler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h.signer, deny)(auth.RequireRole(deny, auth.RoleAdmin)(fn))
	}
	public := func(fn http.HandlerFunc) http.Handler { return limit(fn) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/appointments/client-id", h.ClientID)
	mux.HandleFunc("GET /api/appointments/turno-actual", h.CurrentAppointment)
	mux.HandleFunc("GET /api/appointments/horarios-disponibles", h.AvailableSlots)
	mux.Handle("POST /api/appointments/reservar", public(h.Book))
	mux.Handle("POST /api/appointments/cancelar", public(h.Cancel))
	mux.HandleFunc("GET /api/appointments/proximo-disponible", h.NextAvailable)
	mux.Handle("GET /api/appointments/turnos", admin(h.ListAppointments))

	mux.HandleFunc("GET /api/business/config", h.GetConfig)
	mux.Handle("POST /api/business/config", admin(h.SaveConfig))
	mux.HandleFunc("GET /api/business/horarios", h.Schedules)
	mux.HandleFunc("GET /api/business/horarios/{dia}", h.Schedule)
	mux.HandleFunc("GET /api/business/abierto-hoy", h.OpenToday)

	mux.Handle("POST /api/auth/login", public(h.Login))
	mux.Handle("GET /api/auth/me", admin(h.Me))

	mux.HandleFunc("GET /api/servicios/activos", h.ActiveServices)
	mux.Handle("GET /api/servicios/{$}", admin(h.ListServices))
	mux.Handle("POST /api/servicios/{$}", admin(h.CreateService))
	mux.Handle("PUT /api/servicios/{id}", admin(h.UpdateService))
	mux.Handle("DELETE /api/servicios/{id}", admin(h.DeleteService))
	mux.Handle("POST /api/servicios/guardar-multiples", admin(h.SaveServices))

	mux.Handle("GET /api/management/turnos", admin(h.ManagementList))
	mux.Handle("GET /api/management/turnos/hoy", admin(h.ManagementToday))
	mux.Handle("PUT /api/management/turnos/{id}/completar", admin(h.Complete))
	mux.Handle("DELETE /api/management/turnos/{id}", admin(h.Delete))

	return mux
}

func deny(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No autorizado")
}

func badRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", msg)
}

// fail maps an error to the response envelope. Internal causes are logged,
// never returned.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := booking.AsError(err); ok {
		httpx.WriteError(w, http.StatusBadRequest, string(e.Code), e.Message)
		return
	}
	var v *model.ValidationError
	switch {
	case errors.As(err, &v):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{
			Code:    "VALIDATION",
			Message: "Datos inválidos",
			Fields:  v.Fields,
		})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No encontrado")
	case errors.Is(err, storage.ErrInUse):
		httpx.WriteError(w, http.StatusBadRequest, "IN_USE", "El servicio tiene turnos asociados. Desactivalo en lugar de eliminarlo.")
	default:
		h.logger.Error("request failed",
			"err", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "error interno")
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
