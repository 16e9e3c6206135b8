package tenants

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/shared"
)

// Handler serves tenant registration.
type Handler struct {
	logger    *slog.Logger
	registrar *Registrar
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, registrar *Registrar) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, registrar: registrar}
}

// MountRoutes registers /tenant-users routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Register)
}

// Register handles a registration request.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	tu, err := h.registrar.Register(r.Context(), in)
	if err != nil {
		if !expected(err) {
			h.logger.Error("register tenant", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tu)
}

func expected(err error) bool {
	return errors.Is(err, httpx.ErrValidation) ||
		errors.Is(err, shared.ErrDuplicateIdentity) ||
		errors.Is(err, shared.ErrTenantTaken)
}
