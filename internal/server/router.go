package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"shopdash/internal/config"
	"shopdash/internal/infrastructure/telemetry"
)

// ProductRoutes mounts the product endpoints on a sub-router.
type ProductRoutes interface {
	Routes(r chi.Router)
}

func NewRouter(products ProductRoutes, cfg config.ServerConfig, telem *telemetry.Telemetry, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{TraceIDHeader},
		MaxAge:         300,
	}))

	r.Route("/api/products", products.Routes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", telem.MetricsHandler())

	return otelhttp.NewHandler(r, "gateway",
		otelhttp.WithTracerProvider(telem.TracerProvider),
		otelhttp.WithMeterProvider(telem.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
