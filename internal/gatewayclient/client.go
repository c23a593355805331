// Package gatewayclient is the dashboard's HTTP client for the product gateway.
package gatewayclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"shopdash/internal/domain"
	"shopdash/internal/dto"
)

// ProductInput is the body the dashboard form submits.
type ProductInput struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	ImgSrc string `json:"imgSrc,omitempty"`
}

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Status  int
	Message string
	Code    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     logger,
	}
}

// ListProducts fetches the full catalogue. Any body that is not a product
// list, including gateway error bodies, yields an empty list. Only transport
// failures are returned as errors.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/products", nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Products *[]domain.Product `json:"products"`
	}
	if err := json.Unmarshal(body, &list); err != nil || list.Products == nil {
		c.logger.Warn("gateway list response has no products",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return []domain.Product{}, nil
	}
	return *list.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, c.baseURL+"/api/products", in)
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, c.productURL(id), in)
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	resp, body, err := c.do(ctx, http.MethodDelete, c.productURL(id), nil)
	if err != nil {
		return err
	}
	if !success(resp) {
		return statusError(resp, body)
	}
	return nil
}

func (c *Client) productURL(id int64) string {
	return c.baseURL + "/api/products/" + url.PathEscape(strconv.FormatInt(id, 10))
}

func (c *Client) sendProduct(ctx context.Context, method, target string, in ProductInput) (*domain.Product, error) {
	resp, body, err := c.do(ctx, method, target, in)
	if err != nil {
		return nil, err
	}
	if !success(resp) {
		return nil, statusError(resp, body)
	}

	var env dto.ProductEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding product response: %w", err)
	}
	if env.Product == nil {
		return nil, fmt.Errorf("gateway response has no product")
	}
	return env.Product, nil
}

func (c *Client) do(ctx context.Context, method, target string, payload interface{}) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading gateway response: %w", err)
	}
	return resp, body, nil
}

func success(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func statusError(resp *http.Response, body []byte) error {
	se := &StatusError{Status: resp.StatusCode}
	var errResp dto.ErrorResponse
	if json.Unmarshal(body, &errResp) == nil {
		se.Message = errResp.Error
		se.Code = string(errResp.Code)
	}
	return se
}
