package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	addressmodels "cadastro/internal/address/models"
	addressservice "cadastro/internal/address/service"
	"cadastro/internal/audit"
	"cadastro/internal/document"
	"cadastro/internal/person/models"
	"cadastro/internal/platform/metrics"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
	"cadastro/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

type Store interface {
	Create(ctx context.Context, person *models.Person) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	FindByDocument(ctx context.Context, digits string) (*models.Person, error)
	List(ctx context.Context, offset, limit int) ([]*models.Person, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, person *models.Person) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AddressResolver interface {
	Resolve(ctx context.Context, postalCode string) (addressservice.Resolution, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the person lifecycle.
type Service struct {
	store          Store
	addresses      AddressResolver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(store Store, addresses AddressResolver, opts ...Option) *Service {
	s := &Service{
		store:     store,
		addresses: addresses,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    otel.Tracer("cadastro/person"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a person. The document is stored formatted and must not
// already be registered; the postal code must resolve to a known address.
func (s *Service) Create(ctx context.Context, req *models.CreatePersonRequest) (person *models.Person, err error) {
	ctx, span := s.tracer.Start(ctx, "person.Create")
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	formatted := document.Format(req.Kind.DocumentKind(), req.Document)
	digits := document.OnlyDigits(formatted)
	if _, err := s.store.FindByDocument(ctx, digits); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "document already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check document")
	}

	address, err := s.resolveAddress(ctx, req.Address)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	person = &models.Person{
		ID:        uuid.New(),
		Kind:      req.Kind,
		Name:      req.Name,
		Document:  formatted,
		Email:     req.Email,
		Phones:    req.Phones,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if person.Phones == nil {
		person.Phones = []string{}
	}
	span.SetAttributes(attribute.String("person_id", person.ID.String()))

	if err := s.store.Create(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "document already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	s.emit(ctx, audit.ActionPersonCreated, person.ID)
	if s.metrics != nil {
		s.metrics.IncrementPersonsCreated()
	}
	s.logger.InfoContext(ctx, "person created",
		"person_id", person.ID.String(),
		"kind", string(person.Kind),
		"request_id", requestcontext.RequestID(ctx),
	)
	return person, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "person id is required")
	}
	person, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPersonErr(err, "failed to load person")
	}
	return person, nil
}

// GetByDocument accepts the document in any formatting.
func (s *Service) GetByDocument(ctx context.Context, raw string) (*models.Person, error) {
	digits := document.OnlyDigits(raw)
	if digits == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document is required")
	}
	if _, ok := document.KindForLength(digits); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "document must have 11 or 14 digits")
	}
	person, err := s.store.FindByDocument(ctx, digits)
	if err != nil {
		return nil, wrapPersonErr(err, "failed to load person")
	}
	return person, nil
}

// List pages through persons ordered by creation time. Zero page or size
// select the defaults.
func (s *Service) List(ctx context.Context, page, size int) (*models.PersonPage, error) {
	page, size, err := models.NormalizePage(page, size)
	if err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, (page-1)*size, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list persons")
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count persons")
	}
	return &models.PersonPage{Items: items, Page: page, Size: size, Total: total}, nil
}

// Update applies a partial update. A new postal code is resolved again; a
// premise-only change keeps the stored street data.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.UpdatePersonRequest) (person *models.Person, err error) {
	ctx, span := s.tracer.Start(ctx, "person.Update", trace.WithAttributes(
		attribute.String("person_id", id.String()),
	))
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	person, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		person.Name = *req.Name
	}
	if req.Email != nil {
		person.Email = *req.Email
	}
	if req.Phones != nil {
		person.Phones = req.Phones
	}
	if req.Address != nil {
		address, err := s.resolveAddress(ctx, *req.Address)
		if err != nil {
			return nil, err
		}
		person.Address = address
	}
	person.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, person); err != nil {
		return nil, wrapPersonErr(err, "failed to update person")
	}

	s.emit(ctx, audit.ActionPersonUpdated, person.ID)
	return person, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "person.Delete", trace.WithAttributes(
		attribute.String("person_id", id.String()),
	))
	defer func() { endSpan(span, err) }()

	if id == uuid.Nil {
		return dErrors.New(dErrors.CodeBadRequest, "person id is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapPersonErr(err, "failed to delete person")
	}

	s.emit(ctx, audit.ActionPersonDeleted, id)
	if s.metrics != nil {
		s.metrics.IncrementPersonsDeleted()
	}
	return nil
}

// resolveAddress turns caller input into a full address. An unknown postal
// code is a validation failure of the request, not a missing resource.
func (s *Service) resolveAddress(ctx context.Context, in models.AddressInput) (addressmodels.PostalAddress, error) {
	res, err := s.addresses.Resolve(ctx, in.PostalCode)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return addressmodels.PostalAddress{}, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return addressmodels.PostalAddress{}, err
	}
	if !res.Found() {
		return addressmodels.PostalAddress{}, dErrors.New(dErrors.CodeValidation, "postal code not found")
	}
	return res.Address.WithPremise(in.Number, in.Complement), nil
}

// emit records an audit event. Audit failures are logged, never surfaced.
func (s *Service) emit(ctx context.Context, action audit.Action, personID uuid.UUID) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.NewEvent(ctx, action, personID)); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", string(action),
			"person_id", personID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func wrapPersonErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	span.End()
}
