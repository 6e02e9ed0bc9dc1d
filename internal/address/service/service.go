package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cadastro/internal/address/metrics"
	"cadastro/internal/address/models"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

// DefaultCacheTTL is how long a resolved address is served from the cache.
const DefaultCacheTTL = 6 * time.Hour

// PostalLookup is the remote postal service. Implementations apply their own
// timeout, retry and circuit-breaker policy and report a missing code with
// sentinel.ErrNotFound.
type PostalLookup interface {
	Lookup(ctx context.Context, postalCode string) (*models.LookupPayload, error)
}

// Cache is a key/value store with per-entry TTL. Get returns sentinel.ErrNotFound
// for absent or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) (*models.PostalAddress, error)
	Set(ctx context.Context, key string, address models.PostalAddress, ttl time.Duration) error
}

// Outcome is the result class of a resolution that reached the lookup step.
type Outcome int

const (
	OutcomeFound Outcome = iota + 1
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolution is the answer for a well-formed postal code. Address is only set
// when Outcome is OutcomeFound.
type Resolution struct {
	Outcome Outcome
	Address models.PostalAddress
}

func (r Resolution) Found() bool {
	return r.Outcome == OutcomeFound
}

// Service resolves postal codes to addresses, serving repeats from a cache.
type Service struct {
	lookup  PostalLookup
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
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

// New constructs a Service. Both collaborators are required.
func New(lookup PostalLookup, cache Cache, opts ...Option) (*Service, error) {
	if lookup == nil {
		return nil, errors.New("postal lookup is required")
	}
	if cache == nil {
		return nil, errors.New("address cache is required")
	}
	s := &Service{
		lookup: lookup,
		cache:  cache,
		ttl:    DefaultCacheTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer("cadastro/address"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve normalizes postalCode and returns its address.
//
// Malformed input fails with CodeInvalidInput before any I/O. A code the remote
// service does not know yields OutcomeNotFound and is not cached. Transport
// failures fail with CodeUnavailable and are not cached either.
func (s *Service) Resolve(ctx context.Context, postalCode string) (Resolution, error) {
	if strings.TrimSpace(postalCode) == "" {
		return Resolution{}, dErrors.New(dErrors.CodeInvalidInput, "postal code is required")
	}
	key := models.NormalizePostalCode(postalCode)
	if len(key) != models.PostalCodeLength {
		return Resolution{}, dErrors.New(dErrors.CodeInvalidInput, "postal code must have 8 digits")
	}

	ctx, span := s.tracer.Start(ctx, "address.Resolve", trace.WithAttributes(
		attribute.String("postal_code", key),
	))
	defer span.End()

	if cached, ok := s.fromCache(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return Resolution{Outcome: OutcomeFound, Address: cached}, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	start := time.Now()
	payload, err := s.lookup.Lookup(ctx, key)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordLookup(OutcomeNotFound.String(), elapsed)
			s.logger.InfoContext(ctx, "postal code not found", "postal_code", key, "error", err)
			return Resolution{Outcome: OutcomeNotFound}, nil
		}
		s.recordLookup("unavailable", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "postal lookup unavailable")
		s.logger.WarnContext(ctx, "postal lookup unavailable", "postal_code", key, "error", err)
		return Resolution{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "postal lookup unavailable")
	}
	if payload == nil {
		s.recordLookup(OutcomeNotFound.String(), elapsed)
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	s.recordLookup(OutcomeFound.String(), elapsed)

	address := payload.ToAddress(key)
	if err := s.cache.Set(ctx, key, address, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to cache address", "postal_code", key, "error", err)
	}
	return Resolution{Outcome: OutcomeFound, Address: address}, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (models.PostalAddress, bool) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil && cached != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return *cached, true
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "address cache read failed", "postal_code", key, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
	return models.PostalAddress{}, false
}

func (s *Service) recordLookup(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLookup(outcome, elapsed)
}
