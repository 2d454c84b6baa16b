package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"delivery-dispatch/internal/config"
	"delivery-dispatch/internal/http/handlers"
	"delivery-dispatch/internal/http/router"
	"delivery-dispatch/internal/logx"
	"delivery-dispatch/internal/notify"
	"delivery-dispatch/internal/repository"
	"delivery-dispatch/internal/service/dispatch"
	"delivery-dispatch/internal/service/orders"
	"delivery-dispatch/internal/service/tracking"
)

const serviceTimeout = 3 * time.Second

type dbConnectFunc = func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func newNotifier(cfg *config.Config) (dispatch.Notifier, error) {
	pub, err := notify.NewPublisher(notify.Config{
		URL:      cfg.AMQP.URL,
		Exchange: cfg.AMQP.Exchange,
	})
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return dispatch.NopNotifier{}, nil
	}
	return pub, nil
}

type dispatchIn struct {
	dig.In
	Repo        *repository.OrderRepo
	Assignments *repository.AssignmentRepo
	Partners    *repository.PartnerRepo
	Locations   *repository.LocationRepo
	Selector    *dispatch.Selector
	Notifier    dispatch.Notifier
	Logger      logx.Logger

	Broadcasts prometheus.Counter `name:"assignment_broadcasts_total"`
	Conflicts  prometheus.Counter `name:"assignment_accept_conflicts_total"`
}

func newDispatchService(in dispatchIn) *dispatch.Service {
	return dispatch.NewService(dispatch.Deps{
		Repo:                 in.Repo,
		Orders:               in.Repo,
		Assignments:          in.Assignments,
		Partners:             in.Partners,
		Locations:            in.Locations,
		Selector:             in.Selector,
		Notifier:             in.Notifier,
		Logger:               in.Logger,
		BroadcastsTotal:      in.Broadcasts,
		AcceptConflictsTotal: in.Conflicts,
	}, serviceTimeout)
}

type ordersIn struct {
	dig.In
	Repo     *repository.OrderRepo
	Selector *dispatch.Selector
	Notifier dispatch.Notifier
	Logger   logx.Logger

	OtpRejected prometheus.Counter `name:"delivery_otp_rejected_total"`
}

func newOrdersService(in ordersIn) *orders.Service {
	return orders.NewService(orders.Deps{
		Repo:             in.Repo,
		Orders:           in.Repo,
		Selector:         in.Selector,
		Notifier:         in.Notifier,
		Logger:           in.Logger,
		OtpRejectedTotal: in.OtpRejected,
	}, serviceTimeout)
}

func newTrackingService(
	locations *repository.LocationRepo,
	assignments *repository.AssignmentRepo,
	partners *repository.PartnerRepo,
	ordersRepo *repository.OrderRepo,
	logger logx.Logger,
) *tracking.Service {
	return tracking.NewService(locations, assignments, partners, ordersRepo, logger, serviceTimeout)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		repository.NewAssignmentRepo,
		repository.NewPartnerRepo,
		repository.NewLocationRepo,
		func(partners *repository.PartnerRepo, cfg *config.Config) *dispatch.Selector {
			return dispatch.NewSelector(partners, cfg.Dispatch.SearchRadiusKm, cfg.Dispatch.SampleMaxAge)
		},
		newNotifier,
		newDispatchService,
		newOrdersService,
		newTrackingService,
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewOrderUsecase,
		handlers.NewOrderHandler,
		handlers.NewDispatchUsecase,
		handlers.NewTrackingUsecase,
		handlers.NewDeliveryHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		router.New,
		serverProvider,
	)
}
