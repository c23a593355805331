package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"shopdash/internal/dto"
	apperrors "shopdash/internal/errors"
	"shopdash/internal/infrastructure/logger"
)

// Client-facing failure messages. Upstream details never reach the response.
const (
	msgFetchFailed  = "Failed to fetch products"
	msgCreateFailed = "Failed to create product"
	msgUpdateFailed = "Failed to update product"
	msgDeleteFailed = "Failed to delete product"
	msgInvalidInput = "Title and a valid price are required"
)

type ProductService interface {
	ListProducts(ctx context.Context) (json.RawMessage, error)
	CreateProduct(ctx context.Context, req dto.ProductRequest) (json.RawMessage, error)
	UpdateProduct(ctx context.Context, id string, req dto.ProductRequest) (json.RawMessage, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Controller struct {
	service ProductService
	logger  *zap.Logger
}

func NewController(service ProductService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints under the caller's prefix.
func (c *Controller) Routes(r chi.Router) {
	r.Get("/", c.HandleList)
	r.Post("/", c.HandleCreate)
	r.Put("/{id}", c.HandleUpdate)
	r.Delete("/{id}", c.HandleDelete)
}

func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	body, err := c.service.ListProducts(r.Context())
	if err != nil {
		c.writeError(w, r, err, msgFetchFailed)
		return
	}
	c.writeRaw(w, r, http.StatusOK, body)
}

func (c *Controller) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeProduct(w, r)
	if !ok {
		return
	}

	body, err := c.service.CreateProduct(r.Context(), req)
	if err != nil {
		c.writeError(w, r, err, msgCreateFailed)
		return
	}
	c.writeRaw(w, r, http.StatusCreated, body)
}

func (c *Controller) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := c.decodeProduct(w, r)
	if !ok {
		return
	}

	body, err := c.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		c.writeError(w, r, err, msgUpdateFailed)
		return
	}
	c.writeRaw(w, r, http.StatusOK, body)
}

func (c *Controller) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.service.DeleteProduct(r.Context(), id); err != nil {
		c.writeError(w, r, err, msgDeleteFailed)
		return
	}
	c.writeJSON(w, r, http.StatusOK, dto.DeleteResponse{
		Message: fmt.Sprintf("Product %s deleted successfully", id),
	})
}

func (c *Controller) decodeProduct(w http.ResponseWriter, r *http.Request) (dto.ProductRequest, bool) {
	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.FromContext(r.Context(), c.logger).Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, r, apperrors.NewValidationError(msgInvalidInput, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		}), msgInvalidInput)
		return req, false
	}
	return req, true
}

// writeError maps err to a status. Validation problems are the caller's fault
// and say so; everything else collapses to the operation's generic message.
func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, err error, failureMessage string) {
	resp := dto.ErrorResponse{
		TraceID: logger.TraceIDFrom(r.Context()),
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Error = ve.Message
		resp.Code = apperrors.CodeValidation
		resp.Details = ve.Details
		c.writeJSON(w, r, http.StatusBadRequest, resp)
		return
	}

	resp.Error = failureMessage
	resp.Code = apperrors.CodeOf(err)
	c.writeJSON(w, r, http.StatusInternalServerError, resp)
}

func (c *Controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context(), c.logger).Error("failed to encode response", zap.Error(err))
	}
}

// writeRaw relays an upstream body without re-encoding it.
func (c *Controller) writeRaw(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.FromContext(r.Context(), c.logger).Error("failed to write response", zap.Error(err))
	}
}
