package service

import (
	"context"
	"fmt"
	"time"

	"catalog-admin/internal/broker"
	"catalog-admin/internal/models"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IndexRegenerator rebuilds the Featured and HotSales collections from
// the authoritative product documents. The collections are always
// recomputed wholesale, never patched.
type IndexRegenerator struct {
	store  store.DocStore
	events *broker.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewIndexRegenerator creates a new index regenerator.
func NewIndexRegenerator(docStore store.DocStore, events *broker.EventPublisher) *IndexRegenerator {
	return &IndexRegenerator{
		store:  docStore,
		events: events,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// RebuildResult summarizes one regeneration pass.
type RebuildResult struct {
	Featured     int
	HotSales     int
	SkippedReads int
}

// Rebuild scans every category and every product and overwrites the
// two derived collection documents. A missing or unreadable category
// or product is logged and skipped; it must not stop the rest of the
// rebuild. The caller decides whether a returned error matters;
// mutation operations deliberately only log it.
func (r *IndexRegenerator) Rebuild(ctx context.Context) (*RebuildResult, error) {
	ctx, span := util.StartSpan(ctx, "IndexRegenerator.Rebuild")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IndexRebuildLatency.Observe(time.Since(start).Seconds())
	}()

	cats, _, err := store.GetCategoryList(ctx, r.store)
	if err != nil {
		util.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read category list: %w", err)
	}

	now := r.now()
	featured := []models.ProductSnapshot{}
	hotSales := []models.ProductSnapshot{}
	skipped := 0

	for _, cat := range cats {
		catProducts, _, err := store.GetCategoryProducts(ctx, r.store, cat.ID)
		if err != nil {
			r.logger.Warn("Skipping unreadable category during rebuild",
				zap.Int64("category_id", cat.ID),
				zap.Error(err))
			util.IndexSkippedReadsTotal.Inc()
			skipped++
			continue
		}
		if catProducts == nil {
			continue
		}

		for _, summary := range catProducts.Products {
			detail, _, err := store.GetProductDetail(ctx, r.store, summary.ID)
			if err != nil {
				r.logger.Warn("Skipping unreadable product during rebuild",
					zap.Int64("product_id", summary.ID),
					zap.Error(err))
				util.IndexSkippedReadsTotal.Inc()
				skipped++
				continue
			}
			if detail == nil {
				continue
			}

			snapshot := snapshotFromDetail(detail, summary.Image)

			if detail.Featured {
				featured = append(featured, snapshot)
			}

			if detail.FlashSale.InWindow(now) {
				sale := snapshot
				price := *detail.FlashSale.Price
				discount := models.FlashDiscount(detail.Cost, price)
				sale.FlashPrice = &price
				sale.Discount = &discount
				hotSales = append(hotSales, sale)
			}
		}
	}

	if err := r.writeCollection(ctx, models.FeaturedPath, models.DefaultFeatured, featured,
		"UPDATE featured products category"); err != nil {
		util.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := r.writeCollection(ctx, models.HotSalesPath, models.DefaultHotSales, hotSales,
		"UPDATE hot sales category"); err != nil {
		util.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	util.IndexRebuildsTotal.WithLabelValues("ok").Inc()
	result := &RebuildResult{Featured: len(featured), HotSales: len(hotSales), SkippedReads: skipped}

	r.logger.Info("Derived indices rebuilt",
		zap.Int("featured", result.Featured),
		zap.Int("hot_sales", result.HotSales),
		zap.Int("skipped_reads", result.SkippedReads))

	if r.events != nil {
		event := &models.IndexRegeneratedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeIndexRegenerated,
				Timestamp: time.Now(),
			},
			FeaturedCount: result.Featured,
			HotSalesCount: result.HotSales,
			SkippedReads:  result.SkippedReads,
		}
		if err := r.events.PublishIndexRegenerated(ctx, event); err != nil {
			r.logger.Error("Failed to publish IndexRegenerated event", zap.Error(err))
		}
	}

	return result, nil
}

// writeCollection overwrites one derived document, keeping its
// metadata when it already exists and reading a fresh version token
// immediately before the write.
func (r *IndexRegenerator) writeCollection(ctx context.Context, path string, defaults models.Collection, products []models.ProductSnapshot, message string) error {
	existing, token, err := store.GetCollection(ctx, r.store, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	col := defaults
	if existing != nil {
		col.CatName = existing.CatName
		col.ImgSrc = existing.ImgSrc
		col.Description = existing.Description
	}
	col.Products = products

	if err := store.PutCollection(ctx, r.store, path, &col, token, message); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// snapshotFromDetail builds the full display snapshot a derived
// collection carries for one product.
func snapshotFromDetail(detail *models.ProductDetail, summaryImage string) models.ProductSnapshot {
	return models.ProductSnapshot{
		ID:          detail.ID,
		Name:        detail.Name,
		Description: detail.Description,
		Cost:        detail.Cost,
		Currency:    detail.Currency,
		SoldCount:   detail.SoldCount,
		Image:       detail.PrimaryImage(summaryImage),
		Category:    detail.Category,
		Featured:    detail.Featured,
		Stock:       detail.Stock,
		LowStock:    detail.LowStock,
		FlashSale:   detail.FlashSale,
		UpdatedAt:   detail.UpdatedAt,
	}
}
