package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/prometheus/client_golang/prometheus"

	gocommandadapter "github.com/goliatone/go-delivery-relay/adapters/gocommand"
	gojobadapter "github.com/goliatone/go-delivery-relay/adapters/gojob"
	gologgeradapter "github.com/goliatone/go-delivery-relay/adapters/gologger"
	prometheusadapter "github.com/goliatone/go-delivery-relay/adapters/prometheus"
	relaycommand "github.com/goliatone/go-delivery-relay/command"
	"github.com/goliatone/go-delivery-relay/core"
	"github.com/goliatone/go-delivery-relay/providers/lalamove"
	"github.com/goliatone/go-delivery-relay/server"
	sqlstore "github.com/goliatone/go-delivery-relay/store/sql"
	"github.com/goliatone/go-delivery-relay/webhooks"
)

const defaultReferenceCacheTTL = 5 * time.Minute

type Option func(*options)

type options struct {
	logger         core.Logger
	client         *persistence.Client
	transport      core.TransportAdapter
	registry       *prometheus.Registry
	referenceCache repositorycache.CacheService
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPersistenceClient reuses an opened client. Migrations still run; the
// caller keeps ownership and Close leaves the client open.
func WithPersistenceClient(client *persistence.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithTransport(adapter core.TransportAdapter) Option {
	return func(o *options) {
		o.transport = adapter
	}
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

func WithReferenceCache(cache repositorycache.CacheService) Option {
	return func(o *options) {
		o.referenceCache = cache
	}
}

// Relay is the assembled service.
type Relay struct {
	cfg        Config
	logger     core.Logger
	metrics    *prometheusadapter.Recorder
	client     *persistence.Client
	ownsClient bool
	stores     *sqlstore.RepositoryFactory
	provider   *lalamove.Client
	reconciler *webhooks.Reconciler
	processor  *webhooks.Processor
	server     *server.Server
	facade     *Facade
}

func New(ctx context.Context, cfg Config, opts ...Option) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}

	logger := resolved.logger
	if logger == nil {
		logger = gologgeradapter.New(gologgeradapter.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
	}
	_, logger = gologgeradapter.Resolve(cfg.ServiceName, nil, logger)
	metrics := prometheusadapter.NewRecorder(resolved.registry)

	r := &Relay{cfg: cfg, logger: logger, metrics: metrics}

	client := resolved.client
	if client == nil {
		opened, err := sqlstore.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		client = opened
		r.ownsClient = true
	}
	r.client = client
	if err := sqlstore.Migrate(ctx, client, cfg.Database.Driver); err != nil {
		r.Close()
		return nil, err
	}

	stores, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.stores = stores

	cacheService := resolved.referenceCache
	if cacheService == nil {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = defaultReferenceCacheTTL
		cacheService, err = repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("relay: reference cache: %w", err)
		}
	}
	references, err := sqlstore.NewCachedReferenceStore(stores.ReferenceStore(), cacheService)
	if err != nil {
		r.Close()
		return nil, err
	}

	providerOpts := []lalamove.Option{
		lalamove.WithLogger(namedLogger(logger, "lalamove")),
		lalamove.WithMetrics(metrics),
	}
	if resolved.transport != nil {
		providerOpts = append(providerOpts, lalamove.WithTransport(resolved.transport))
	}
	r.provider = lalamove.NewClient(cfg.Provider, providerOpts...)

	r.reconciler = webhooks.NewReconciler(
		stores.DeliveryStore(),
		references,
		stores.NotificationStore(),
		webhooks.WithReconcilerLogger(namedLogger(logger, "reconciler")),
		webhooks.WithReconcilerMetrics(metrics),
	)

	reconcile := relaycommand.NewReconcileDeliveryCommand(r.reconciler)
	queue := gojobadapter.NewInlineQueue(gojobadapter.ObserverHook{
		Observer: core.Observer{Logger: namedLogger(logger, "jobs"), Metrics: metrics},
	})
	queue.Handle(gojobadapter.JobIDReconcileDelivery, gocommandadapter.ReconcileJobHandler(reconcile))

	processorOpts := []webhooks.ProcessorOption{
		webhooks.WithLedger(stores.WebhookDeliveryStore()),
		webhooks.WithProcessorLogger(namedLogger(logger, "webhooks")),
		webhooks.WithProcessorMetrics(metrics),
	}
	if cfg.Provider.VerifyWebhooks {
		processorOpts = append(processorOpts, webhooks.WithVerifier(webhooks.PayloadSignatureVerifier{
			AccessKey: cfg.Provider.APIKey,
			Secret:    cfg.Provider.Secret,
			Path:      cfg.Provider.WebhookPath,
		}))
	}
	r.processor = webhooks.NewProcessor(gojobadapter.NewDispatcher(queue), processorOpts...)

	r.server, err = server.New(
		server.Config{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			WebhookPath:    cfg.Provider.WebhookPath,
		},
		r.provider,
		r.processor,
		server.WithLogger(namedLogger(logger, "http")),
		server.WithHTTPObserver(metrics),
		server.WithMetricsHandler(metrics.Handler()),
		server.WithHealthCheck(r.ping),
	)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.facade, err = NewFacade(r.reconciler, r.provider)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Relay) Handler() http.Handler {
	return r.server.Handler()
}

// Run serves until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("relay listening", "addr", r.cfg.Addr(), "webhook_path", r.cfg.Provider.WebhookPath)
	return r.server.Run(ctx, r.cfg.Addr())
}

func (r *Relay) Facade() *Facade {
	return r.facade
}

func (r *Relay) Provider() *lalamove.Client {
	return r.provider
}

func (r *Relay) Stores() *sqlstore.RepositoryFactory {
	return r.stores
}

func (r *Relay) Close() error {
	if r == nil || r.client == nil || !r.ownsClient {
		return nil
	}
	client := r.client
	r.client = nil
	return client.Close()
}

func (r *Relay) ping(ctx context.Context) error {
	if r.stores == nil || r.stores.DB() == nil {
		return fmt.Errorf("relay: database is not configured")
	}
	timeout := r.cfg.Database.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.stores.DB().PingContext(ctx)
}

func namedLogger(logger core.Logger, name string) core.Logger {
	if provider, ok := logger.(core.LoggerProvider); ok {
		if named := provider.GetLogger(name); named != nil {
			return named
		}
	}
	return logger
}
