package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	limit     int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts per client IP
// per minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		limit:     loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limit > 0 {
			r.Use(httprate.Limit(h.limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Post("/token", h.handleToken)
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// handleToken accepts an OAuth2 password grant form where username carries the email.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid form body")
		return
	}
	h.login(w, r, loginForm{
		Email:    r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	h.login(w, r, form)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, form loginForm) {
	if err := h.validator.Struct(form); err != nil {
		httpx.Unauthorized(w, httpx.MsgBadCredential)
		return
	}
	tok, err := h.service.Login(r.Context(), form.Email, form.Password)
	if errors.Is(err, shared.ErrInvalidCredentials) {
		httpx.Unauthorized(w, httpx.MsgBadCredential)
		return
	}
	if err != nil {
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, tok)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, httpx.MsgMissingToken)
		return
	}
	if err := h.service.Logout(r.Context(), id); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
