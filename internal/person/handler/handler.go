package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cadastro/internal/person/models"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/httputil"
	"cadastro/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// WriteScope is the token scope required by the mutating endpoints.
const WriteScope = "persons:write"

// Service defines the person operations the handler exposes.
type Service interface {
	Create(ctx context.Context, req *models.CreatePersonRequest) (*models.Person, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Person, error)
	GetByDocument(ctx context.Context, raw string) (*models.Person, error)
	List(ctx context.Context, page, size int) (*models.PersonPage, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdatePersonRequest) (*models.Person, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler wires person endpoints to the person service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts person endpoints. Reads are public; writes run behind the
// given middlewares (authentication).
func (h *Handler) Register(r chi.Router, writeMiddlewares ...func(http.Handler) http.Handler) {
	r.Route("/persons", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/by-document/{document}", h.HandleGetByDocument)
		r.Get("/{id}", h.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(writeMiddlewares...)
			r.Post("/", h.HandleCreate)
			r.Put("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
		})
	})
}

// HandleCreate handles POST /persons.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.CreatePersonRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create person body", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	person, err := h.service.Create(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "create person failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Location", "/persons/"+person.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, person)
}

// HandleGet handles GET /persons/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	person, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logFailure(r.Context(), "get person failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// HandleGetByDocument handles GET /persons/by-document/{document}.
func (h *Handler) HandleGetByDocument(w http.ResponseWriter, r *http.Request) {
	person, err := h.service.GetByDocument(r.Context(), chi.URLParam(r, "document"))
	if err != nil {
		h.logFailure(r.Context(), "get person by document failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// HandleList handles GET /persons?page=&size=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), page, size)
	if err != nil {
		h.logFailure(r.Context(), "list persons failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleUpdate handles PUT /persons/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req models.UpdatePersonRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid update person body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	person, err := h.service.Update(ctx, id, &req)
	if err != nil {
		h.logFailure(ctx, "update person failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// HandleDelete handles DELETE /persons/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logFailure(r.Context(), "delete person failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs server-side failures at error and client mistakes at info.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"code", string(code),
		"error", err,
	}
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.InfoContext(ctx, msg, attrs...)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
	}
	return n, nil
}
