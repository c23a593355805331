package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"shopdash/internal/config"
	apperrors "shopdash/internal/errors"
)

// AccessTokenHeader authenticates every call to the commerce platform.
const AccessTokenHeader = "X-Shopify-Access-Token"

const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ShopifyRepository talks to the platform's versioned product REST endpoints.
// It returns upstream bodies untouched so the gateway can relay them.
type ShopifyRepository struct {
	httpClient *http.Client
	baseURL    string
	token      string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	calls      metric.Int64Counter
	logger     *zap.Logger
}

type Option func(*ShopifyRepository)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *ShopifyRepository) {
		r.httpClient = c
	}
}

func NewShopifyRepository(cfg config.UpstreamConfig, meter metric.Meter, logger *zap.Logger, opts ...Option) *ShopifyRepository {
	calls, _ := meter.Int64Counter(
		"upstream.requests",
		metric.WithDescription("Calls made to the commerce platform, by operation and result"),
	)

	r := &ShopifyRepository{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    fmt.Sprintf("%s/admin/api/%s", cfg.StoreURL, cfg.APIVersion),
		token:      cfg.AccessToken,
		calls:      calls,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.BreakerEnabled {
		r.breaker = newBreaker(logger)
	}
	return r
}

func (r *ShopifyRepository) List(ctx context.Context) ([]byte, error) {
	return r.call(ctx, OpList, http.MethodGet, r.baseURL+"/products.json", nil)
}

func (r *ShopifyRepository) Create(ctx context.Context, payload interface{}) ([]byte, error) {
	return r.call(ctx, OpCreate, http.MethodPost, r.baseURL+"/products.json", payload)
}

func (r *ShopifyRepository) Update(ctx context.Context, id string, payload interface{}) ([]byte, error) {
	return r.call(ctx, OpUpdate, http.MethodPut, r.productURL(id), payload)
}

func (r *ShopifyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.call(ctx, OpDelete, http.MethodDelete, r.productURL(id), nil)
	return err
}

func (r *ShopifyRepository) productURL(id string) string {
	return fmt.Sprintf("%s/products/%s.json", r.baseURL, url.PathEscape(id))
}

func (r *ShopifyRepository) call(ctx context.Context, op, method, target string, payload interface{}) ([]byte, error) {
	send := func() ([]byte, error) {
		return r.send(ctx, op, method, target, payload)
	}

	var (
		body []byte
		err  error
	)
	if r.breaker != nil {
		body, err = r.breaker.Execute(send)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperrors.NewUpstreamError(op, 0, nil, err)
		}
	} else {
		body, err = send()
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	r.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))

	return body, err
}

func (r *ShopifyRepository) send(ctx context.Context, op, method, target string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.NewInternalError("encoding upstream payload", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, apperrors.NewUpstreamError(op, 0, nil, err)
	}
	req.Header.Set(AccessTokenHeader, r.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError(op, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError(op, resp.StatusCode, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewUpstreamError(op, resp.StatusCode, body, nil)
	}

	return body, nil
}

// newBreaker opens after five consecutive failed calls and probes again after
// thirty seconds. Client errors from upstream do not count as failures.
func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "commerce-platform",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			ue, ok := apperrors.IsUpstreamError(err)
			return ok && ue.Status >= 400 && ue.Status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
