package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cadastro/internal/address/models"
	"cadastro/internal/address/service"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/httputil"
	"cadastro/pkg/requestcontext"
)

// Resolver defines the address resolution the handler exposes.
type Resolver interface {
	Resolve(ctx context.Context, postalCode string) (service.Resolution, error)
}

type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/addresses/{postalCode}", h.HandleResolve)
}

// AddressResponse renders the postal code in its NNNNN-NNN form.
type AddressResponse struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// HandleResolve handles GET /addresses/{postalCode}.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "postalCode")

	res, err := h.resolver.Resolve(ctx, code)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "address resolution failed",
				"request_id", requestcontext.RequestID(ctx),
				"postal_code", code,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	if !res.Found() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "postal code not found"))
		return
	}

	a := res.Address
	httputil.WriteJSON(w, http.StatusOK, AddressResponse{
		PostalCode: models.FormatPostalCode(a.PostalCode),
		Street:     a.Street,
		District:   a.District,
		City:       a.City,
		State:      a.State,
	})
}
