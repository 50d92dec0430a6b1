package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http/apierr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http/metric"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http/middleware"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http/swagger"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/cache"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metric.Metrics
	validator validator.Validator

	productSvc  service.ProductService
	saleSvc     service.SaleService
	reportSvc   service.ReportService
	health      db.HealthChecker
	idempotency cache.IdempotencyGuard
}

type CleanupFunc func(ctx context.Context) error

// New creates the HTTP service. health and idempotency may be nil: the health check
// then always passes and Idempotency-Key headers are ignored.
func New(
	cfg config.HTTP,
	log *slog.Logger,
	productSvc service.ProductService,
	saleSvc service.SaleService,
	reportSvc service.ReportService,
	health db.HealthChecker,
	idempotency cache.IdempotencyGuard,
) (*Service, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Service{
		cfg:         cfg,
		logger:      log.With(slog.String("service", "http")),
		registry:    registry,
		metrics:     metric.New(registry),
		validator:   v,
		productSvc:  productSvc,
		saleSvc:     saleSvc,
		reportSvc:   reportSvc,
		health:      health,
		idempotency: idempotency,
	}, nil
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	return s.RunWithServer(ctx, s.Router())
}

// Router builds the full handler: middlewares, docs and API routes.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return r
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	h := s.newHandler()

	r.Get("/healthz", s.handle(h.Health))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.handle(h.ListCategories))
		r.Post("/", s.handle(h.CreateCategory))
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handle(h.ListProducts))
		r.Post("/", s.handle(h.CreateProduct))
		r.Get("/{productId}", s.handle(h.GetProduct))
		r.Put("/{productId}/stock", s.handle(h.SetStock))
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", s.handle(h.ListSales))
		r.Get("/{saleId}", s.handle(h.GetSale))

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRateLimiter(s.cfg.SaleRateLimit, s.cfg.SaleRateBurst).Middleware())
			if s.idempotency != nil {
				r.Use(middleware.Idempotency(s.idempotency, s.logger))
			}

			r.Post("/checkout", s.handle(h.Checkout))
			r.Post("/quick", s.handle(h.QuickSale))
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/stock-by-category", s.handle(h.StockByCategory))
		r.Get("/revenue", s.handle(h.Revenue))
		r.Get("/summary", s.handle(h.Summary))
	})

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.handleResponseError(w, r, err)
		}
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := apierr.Write(w, res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}

type handler struct {
	*productHandler
	*saleHandler
	*reportHandler
	*healthHandler
}

func (s *Service) newHandler() *handler {
	return &handler{
		productHandler: newProductHandler(s.productSvc, s.validator),
		saleHandler:    newSaleHandler(s.saleSvc, s.metrics, s.validator),
		reportHandler:  newReportHandler(s.reportSvc),
		healthHandler:  newHealthHandler(s.health),
	}
}
