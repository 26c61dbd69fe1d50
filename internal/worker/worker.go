package worker

import (
	"context"
	"log"
	"time"

	"catalog-admin/internal/broker"
	"catalog-admin/internal/models"
	"catalog-admin/internal/service"
)

// IndexWorker keeps the derived collections fresh: HotSales membership
// depends on wall-clock time, so flash-sale windows open and close
// without any mutation happening. The worker rebuilds on an interval
// and whenever another writer instance publishes a mutation event.
type IndexWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	indexer      *service.IndexRegenerator
	interval     time.Duration
}

// NewIndexWorker creates a new index worker
func NewIndexWorker(
	consumer *broker.Consumer,
	indexer *service.IndexRegenerator,
	interval time.Duration,
) *IndexWorker {
	eventHandler := broker.NewEventHandler()

	rebuild := func(ctx context.Context) error {
		_, err := indexer.Rebuild(ctx)
		return err
	}
	eventHandler.OnProductUpserted(func(ctx context.Context, _ *models.ProductUpsertedEvent) error {
		return rebuild(ctx)
	})
	eventHandler.OnProductDeleted(func(ctx context.Context, _ *models.ProductDeletedEvent) error {
		return rebuild(ctx)
	})

	return &IndexWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		indexer:      indexer,
		interval:     interval,
	}
}

// Start starts the worker
func (w *IndexWorker) Start(ctx context.Context) error {
	log.Println("Starting index worker...")

	go w.refreshLoop(ctx)

	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// refreshLoop rebuilds the derived collections on the configured
// interval until the context is cancelled.
func (w *IndexWorker) refreshLoop(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.indexer.Rebuild(ctx); err != nil {
				log.Printf("Scheduled index rebuild failed: %v", err)
			}
		}
	}
}

// Stop stops the worker
func (w *IndexWorker) Stop() error {
	log.Println("Stopping index worker...")
	return w.consumer.Close()
}
