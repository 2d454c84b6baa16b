package app

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/dig"

	"delivery-dispatch/internal/config"
	"delivery-dispatch/internal/logx"
	"delivery-dispatch/internal/repository"
	"delivery-dispatch/internal/service/checkout"
	"delivery-dispatch/internal/transport/kafka"
)

// MustBuildWorkerContainer builds the container for the checkout-ingestion
// worker binary.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	container, err := buildWorkerContainer(ctx, connectDbWithRetry)
	if err != nil {
		log.Fatalf("failed to build worker container: %v", err)
	}
	return container
}

func buildWorkerContainer(
	ctx context.Context,
	dbConnect dbConnectFunc,
) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		func(repo *repository.OrderRepo, logger logx.Logger) *checkout.Processor {
			return checkout.NewProcessor(repo, logger)
		},
		makeCheckoutHandler,
		func(cfg *config.Config, h kafka.HandleFunc) (*kafka.Consumer, error) {
			return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, h)
		},
	)
}

func makeCheckoutHandler(p *checkout.Processor) kafka.HandleFunc {
	return func(ctx context.Context, event checkout.Event) error {
		return p.Handle(ctx, event)
	}
}
