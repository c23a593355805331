package service

import (
	"context"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"shopdash/internal/dto"
	apperrors "shopdash/internal/errors"
	"shopdash/internal/infrastructure/logger"
	"shopdash/internal/validation"
)

const invalidProductMessage = "Title and a valid price are required"

type Repository interface {
	List(ctx context.Context) ([]byte, error)
	Create(ctx context.Context, payload interface{}) ([]byte, error)
	Update(ctx context.Context, id string, payload interface{}) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// ProductService translates gateway calls into upstream calls. It holds no
// state between requests.
type ProductService struct {
	repo   Repository
	tracer trace.Tracer
	logger *zap.Logger
}

func NewService(repo Repository, tracer trace.Tracer, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		tracer: tracer,
		logger: logger,
	}
}

// ListProducts returns the upstream list body unmodified.
func (s *ProductService) ListProducts(ctx context.Context) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	body, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.upstreamFailure(ctx, span, "error fetching products", err)
	}

	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req dto.ProductRequest) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := validateRequest(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	price, err := req.Price.Decimal()
	if err != nil {
		return nil, apperrors.NewValidationError(invalidProductMessage)
	}

	span.SetAttributes(
		attribute.String("product.title", req.Title),
		attribute.String("product.price", price.String()),
	)

	body, err := s.repo.Create(ctx, dto.NewCreateEnvelope(req.Title, price))
	if err != nil {
		return nil, s.upstreamFailure(ctx, span, "error creating product", err)
	}

	logger.FromContext(ctx, s.logger).Info("product created", zap.String("title", req.Title))
	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, req dto.ProductRequest) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := validateRequest(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	price, err := req.Price.Decimal()
	if err != nil {
		return nil, apperrors.NewValidationError(invalidProductMessage)
	}

	body, err := s.repo.Update(ctx, id, dto.NewUpdateEnvelope(id, req.Title, price))
	if err != nil {
		return nil, s.upstreamFailure(ctx, span, "error updating product", err, zap.String("productId", id))
	}

	logger.FromContext(ctx, s.logger).Info("product updated", zap.String("productId", id))
	span.SetStatus(codes.Ok, "")
	return body, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.upstreamFailure(ctx, span, "error deleting product", err, zap.String("productId", id))
	}

	logger.FromContext(ctx, s.logger).Info("product deleted", zap.String("productId", id))
	span.SetStatus(codes.Ok, "")
	return nil
}

// upstreamFailure logs the full upstream payload server side and returns the
// error for the controller to map to a generic message.
func (s *ProductService) upstreamFailure(ctx context.Context, span trace.Span, msg string, err error, fields ...zap.Field) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	fields = append(fields, zap.Error(err))
	if ue, ok := apperrors.IsUpstreamError(err); ok {
		fields = append(fields,
			zap.String("operation", ue.Operation),
			zap.Int("upstreamStatus", ue.Status),
			zap.ByteString("upstreamBody", ue.Body),
		)
	}
	logger.FromContext(ctx, s.logger).Error(msg, fields...)

	return err
}

func validateRequest(req dto.ProductRequest) error {
	if details := validation.Struct(req); details != nil {
		return apperrors.NewValidationError(invalidProductMessage, details...)
	}
	return nil
}
