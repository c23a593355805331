package product

import (
	"go.uber.org/zap"

	"shopdash/internal/config"
	"shopdash/internal/infrastructure/telemetry"
	"shopdash/internal/product/controller"
	"shopdash/internal/product/repository"
	"shopdash/internal/product/service"
)

func NewModule(cfg config.UpstreamConfig, telem *telemetry.Telemetry, logger *zap.Logger, opts ...repository.Option) *controller.Controller {
	repo := repository.NewShopifyRepository(cfg, telem.Meter(), logger, opts...)
	svc := service.NewService(repo, telem.Tracer(), logger)
	return controller.NewController(svc, logger)
}
