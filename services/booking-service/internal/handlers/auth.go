package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/barberbook/barberbook/libs/auth"
	"github.com/barberbook/barberbook/libs/httpx"
	"github.com/barberbook/barberbook/services/booking-service/internal/model"
	"github.com/barberbook/barberbook/services/booking-service/internal/storage"
)

type loginRequest struct {
	Username string `json:"nombre_usuario"`
	Password string `json:"contrasena"`
}

type userJSON struct {
	ID        string `json:"id"`
	Username  string `json:"nombre_usuario"`
	CreatedAt string `json:"creado_en"`
	UpdatedAt string `json:"actualizado_en"`
}

func toUserJSON(u model.AdminUser) userJSON {
	return userJSON{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: formatTimestamp(u.CreatedAt),
		UpdatedAt: formatTimestamp(u.UpdatedAt),
	}
}

// dummyHash gives unknown usernames the same bcrypt cost as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("barberbook-timing-equaliser")
	return h
})

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		badRequest(w, "Falta nombre_usuario o contrasena")
		return
	}

	u, err := h.admins.AdminByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.fail(w, r, err)
		return
	}
	hash := u.PasswordHash
	if err != nil {
		hash = dummyHash()
	}
	if !auth.CheckPassword(hash, req.Password) || err != nil {
		h.logger.Warn("login rejected", "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Usuario o contraseña incorrectos.")
		return
	}

	token, expiresAt, err := h.signer.Sign(u.ID, u.Username, auth.RoleAdmin)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expira_en": formatTimestamp(expiresAt),
		"usuario":   toUserJSON(u),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		deny(w, r)
		return
	}
	u, err := h.admins.AdminByID(r.Context(), claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Usuario no encontrado")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"usuario": toUserJSON(u),
	})
}
