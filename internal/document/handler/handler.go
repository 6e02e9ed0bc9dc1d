package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cadastro/internal/document"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/httputil"
)

// Handler exposes the document validator over HTTP. It has no dependencies.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/documents/validate", h.HandleValidate)
}

type ValidateResponse struct {
	Kind      document.Kind `json:"kind"`
	Valid     bool          `json:"valid"`
	Formatted string        `json:"formatted"`
}

// HandleValidate handles GET /documents/validate?kind=&value=. Without kind,
// the scheme is inferred from the digit count.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := q.Get("value")
	if strings.TrimSpace(value) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "value is required"))
		return
	}

	kind := document.Kind(strings.ToLower(strings.TrimSpace(q.Get("kind"))))
	if kind == "" {
		inferred, ok := document.KindForLength(value)
		if !ok {
			httputil.WriteJSON(w, http.StatusOK, ValidateResponse{Valid: false, Formatted: document.Normalize(value)})
			return
		}
		kind = inferred
	}
	if !kind.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "kind must be 'personal' or 'organizational'"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ValidateResponse{
		Kind:      kind,
		Valid:     document.IsValid(kind, value),
		Formatted: document.Format(kind, value),
	})
}
