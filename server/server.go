package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-delivery-relay/core"
	"github.com/goliatone/go-delivery-relay/providers/lalamove"
	"github.com/goliatone/go-delivery-relay/query"
)

const (
	RouteQuotation     = "/delivery-quotation"
	RouteCreateOrder   = "/create-delivery"
	RouteOrderStatus   = "/delivery-status"
	RouteDriverStatus  = "/driver-status"
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"
	HeaderRequestID    = "X-Request-ID"
	defaultBodyLimit   = 1 << 20
	defaultShutdownTTL = 5 * time.Second
)

// DeliveryProvider is the signed outbound side of the relay.
type DeliveryProvider interface {
	query.OrderReader
	Quote(ctx context.Context, req lalamove.QuotationRequest) (core.TransportResponse, error)
	CreateOrder(ctx context.Context, req lalamove.OrderRequest) (core.TransportResponse, error)
}

type WebhookProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) core.InboundResult
}

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(method string, route string, status int, duration time.Duration)
}

type Config struct {
	AllowedOrigins []string
	WebhookPath    string
	MaxBodyBytes   int64
}

type Option func(*Server)

func WithLogger(logger glog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithHTTPObserver(observer HTTPObserver) Option {
	return func(s *Server) {
		s.httpObserver = observer
	}
}

func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = handler
	}
}

// WithHealthCheck makes /healthz report 503 while check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

type Server struct {
	router         *gin.Engine
	provider       DeliveryProvider
	webhooks       WebhookProcessor
	orderStatus    *query.OrderStatusQuery
	driverStatus   *query.DriverStatusQuery
	logger         glog.Logger
	httpObserver   HTTPObserver
	metricsHandler http.Handler
	healthCheck    func(ctx context.Context) error
	webhookPath    string
	maxBodyBytes   int64
}

func New(cfg Config, provider DeliveryProvider, webhooks WebhookProcessor, opts ...Option) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("server: delivery provider is required")
	}
	if webhooks == nil {
		return nil, fmt.Errorf("server: webhook processor is required")
	}
	s := &Server{
		provider:     provider,
		webhooks:     webhooks,
		orderStatus:  query.NewOrderStatusQuery(provider),
		driverStatus: query.NewDriverStatusQuery(provider),
		logger:       glog.Nop(),
		webhookPath:  strings.TrimSpace(cfg.WebhookPath),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if s.webhookPath == "" {
		s.webhookPath = core.DefaultWebhookPath
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultBodyLimit
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	router := gin.New()
	router.Use(RequestID(), Recovery(s.logger), AccessLog(s.logger, s.httpObserver))
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.Config{
			AllowOrigins:  append([]string(nil), cfg.AllowedOrigins...),
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID},
			ExposeHeaders: []string{HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}
		if err := corsConfig.Validate(); err != nil {
			return nil, fmt.Errorf("server: invalid cors config: %w", err)
		}
		router.Use(cors.New(corsConfig))
	}

	router.POST(RouteQuotation, s.handleQuotation)
	router.POST(RouteCreateOrder, s.handleCreateOrder)
	router.GET(RouteOrderStatus, s.handleOrderStatus)
	router.GET(RouteDriverStatus, s.handleDriverStatus)
	router.POST(s.webhookPath, s.handleWebhook)
	router.GET(RouteHealth, s.handleHealth)
	if s.metricsHandler != nil {
		router.GET(RouteMetrics, gin.WrapH(s.metricsHandler))
	}

	s.router = router
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTTL)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
