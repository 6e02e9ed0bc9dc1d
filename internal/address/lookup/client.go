// Package lookup implements the remote postal-code lookup against a
// ViaCEP-compatible HTTP API, with per-attempt timeouts, bounded retries and a
// circuit breaker.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"cadastro/internal/address/models"
	"cadastro/pkg/platform/circuit"
)

const maxBodyBytes = 64 << 10

// Client queries the remote postal service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each attempt. The caller's context still bounds the whole call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times a retryable failure is retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for baseURL, e.g. https://viacep.com.br/ws.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		breaker:    circuit.New("postal-lookup"),
		timeout:    3 * time.Second,
		maxRetries: 2,
		backoff:    100 * time.Millisecond,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup resolves a normalized 8-digit code. Failures are *Error values
// matching sentinel.ErrNotFound or sentinel.ErrUnavailable.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*models.LookupPayload, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		payload, err := c.fetch(ctx, postalCode)
		if err == nil || !IsRetryable(err) {
			// The remote service answered; a not-found is a healthy response.
			c.recordSuccess()
			return payload, err
		}
		lastErr = err

		open := c.recordFailure(ctx, err)
		if open || attempt == c.maxRetries || ctx.Err() != nil {
			break
		}
		if waitErr := c.wait(ctx, attempt); waitErr != nil {
			break
		}
	}
	return nil, lastErr
}

// Health reports whether the breaker currently allows the primary path.
func (c *Client) Health(_ context.Context) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("postal lookup circuit %s is open", c.breaker.Name())
	}
	return nil
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       any    `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

func (c *Client) fetch(ctx context.Context, postalCode string) (*models.LookupPayload, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, postalCode)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(ErrorOutage, postalCode, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrorTimeout, postalCode, "request timed out", err)
		}
		return nil, newError(ErrorOutage, postalCode, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrorTimeout, postalCode, "reading response timed out", err)
		}
		return nil, newError(ErrorOutage, postalCode, "read response", err)
	}
	return parseResponse(postalCode, resp.StatusCode, body)
}

func parseResponse(postalCode string, status int, body []byte) (*models.LookupPayload, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return nil, newError(ErrorRateLimited, postalCode, "rate limited", nil)
	case status >= http.StatusInternalServerError:
		return nil, newError(ErrorOutage, postalCode, fmt.Sprintf("unexpected status %d", status), nil)
	case status != http.StatusOK:
		return nil, newError(ErrorNotFound, postalCode, fmt.Sprintf("status %d", status), nil)
	}

	var decoded viaCEPResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, newError(ErrorBadData, postalCode, "malformed payload", err)
	}
	if decoded.notFound() {
		return nil, newError(ErrorNotFound, postalCode, "postal code not found", nil)
	}
	if decoded.Localidade == "" || decoded.UF == "" {
		return nil, newError(ErrorBadData, postalCode, "payload missing city or state", nil)
	}
	return &models.LookupPayload{
		PostalCode: decoded.CEP,
		Street:     decoded.Logradouro,
		District:   decoded.Bairro,
		City:       decoded.Localidade,
		State:      decoded.UF,
	}, nil
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("postal lookup circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordFailure(ctx context.Context, err error) bool {
	open, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "postal lookup circuit opened",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
	return open
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.backoff * time.Duration(attempt+1))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
