package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/broker"
	"catalog-admin/internal/models"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService orchestrates the multi-document mutations. Each
// operation is an ordered list of independently fallible steps with no
// compensation: the authoritative product document is written first
// and its failure fails the operation; every later cache write is
// best effort and expected to self-heal on the next mutation.
type CatalogService struct {
	store        store.DocStore
	search       *SearchService
	indexer      *IndexRegenerator
	events       *broker.EventPublisher
	assetBaseURL string
	logger       *zap.Logger
	now          func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	docStore store.DocStore,
	search *SearchService,
	indexer *IndexRegenerator,
	events *broker.EventPublisher,
	assetBaseURL string,
) *CatalogService {
	return &CatalogService{
		store:        docStore,
		search:       search,
		indexer:      indexer,
		events:       events,
		assetBaseURL: assetBaseURL,
		logger:       util.GetLogger(),
		now:          time.Now,
	}
}

// UpsertProduct validates and writes a product, then brings the
// category summary, the category list and the derived collections in
// line. relatedIDs == nil preserves the stored related products; an
// empty, non-nil slice clears them.
func (s *CatalogService) UpsertProduct(ctx context.Context, op string, input ProductInput, relatedIDs []int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpsertProduct")
	defer span.End()

	if op == "" {
		op = "create"
	}
	now := s.now()
	input = input.withDefaults(now)

	if violations := validate(input, now); len(violations) > 0 {
		util.MutationsFailedTotal.WithLabelValues("validation").Inc()
		return &ValidationError{Violations: violations}
	}

	// Step 1: resolve related products. Missing ids are skipped.
	var related []models.RelatedProductRef
	if relatedIDs != nil {
		related = s.search.ResolveRelatedProducts(ctx, relatedIDs)
		s.logger.Info("Resolved related products",
			zap.Int64("product_id", input.ID),
			zap.Int("requested", len(relatedIDs)),
			zap.Int("resolved", len(related)))
	}

	// Step 2: write the authoritative document. This is the only step
	// whose failure fails the operation.
	current, token, err := store.GetProductDetail(ctx, s.store, input.ID)
	if err != nil {
		util.MutationsFailedTotal.WithLabelValues("store_read").Inc()
		return fmt.Errorf("failed to read product %d: %w", input.ID, err)
	}
	if related == nil && current != nil {
		related = current.RelatedProducts
	}
	if related == nil {
		related = []models.RelatedProductRef{}
	}

	detail := &models.ProductDetail{
		ID:              input.ID,
		Name:            input.Name,
		Description:     input.Description,
		Cost:            input.Cost,
		Currency:        input.Currency,
		SoldCount:       input.SoldCount,
		Category:        models.CategoryRef{ID: input.CategoryID, Name: input.CategoryName},
		Images:          input.Images,
		RelatedProducts: related,
		Featured:        input.Featured,
		Stock:           *input.Stock,
		LowStock:        input.LowStock,
		FlashSale:       *input.FlashSale,
		UpdatedAt:       *input.UpdatedAt,
	}

	message := fmt.Sprintf("%s product %d", strings.ToUpper(op), detail.ID)
	if err := store.PutProductDetail(ctx, s.store, detail, token, message); err != nil {
		util.MutationsFailedTotal.WithLabelValues("primary_write").Inc()
		return fmt.Errorf("failed to write product %d: %w", detail.ID, err)
	}

	util.ProductUpsertsTotal.Inc()
	s.logger.Info("Product written",
		zap.Int64("product_id", detail.ID),
		zap.String("op", op))

	// Step 3: upsert the compact summary in the category document.
	summaryImage := input.Image
	if summaryImage == "" {
		summaryImage = detail.PrimaryImage("")
	}
	productCount := s.upsertSummary(ctx, detail, summaryImage)

	// Step 4: sync the category list entry and its product count.
	s.upsertCategory(ctx, input.CategoryID, input.CategoryName, productCount)

	// Step 5: regenerate the derived collections. Never fails the upsert.
	if _, err := s.indexer.Rebuild(ctx); err != nil {
		s.logger.Error("Index regeneration failed after upsert",
			zap.Int64("product_id", detail.ID),
			zap.Error(err))
	}

	s.publishUpserted(ctx, op, detail)
	return nil
}

// upsertSummary writes the product's compact summary into its category
// document, creating the document when absent. Returns the resulting
// product count, or -1 when the step failed.
func (s *CatalogService) upsertSummary(ctx context.Context, detail *models.ProductDetail, summaryImage string) int {
	categoryID := detail.Category.ID

	doc, token, err := store.GetCategoryProducts(ctx, s.store, categoryID)
	if err != nil {
		s.logger.Error("Failed to read category products",
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		return -1
	}
	if doc == nil {
		doc = &models.CategoryProducts{
			CatID:    categoryID,
			CatName:  detail.Category.Name,
			Products: []models.ProductSummary{},
		}
	}

	compact := models.ProductSummary{
		ID:          detail.ID,
		Name:        detail.Name,
		Description: detail.Description,
		Cost:        detail.Cost,
		Currency:    detail.Currency,
		SoldCount:   detail.SoldCount,
		Image:       summaryImage,
	}

	found := false
	for i := range doc.Products {
		if doc.Products[i].ID == detail.ID {
			doc.Products[i] = compact
			found = true
			break
		}
	}
	if !found {
		doc.Products = append(doc.Products, compact)
	}

	message := fmt.Sprintf("UPSERT product %d in category %d", detail.ID, categoryID)
	if err := store.PutCategoryProducts(ctx, s.store, doc, token, message); err != nil {
		s.logger.Error("Failed to write category products",
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		return -1
	}

	return len(doc.Products)
}

// upsertCategory syncs one entry of the category list. productCount < 0
// means the summary step failed and the count is left untouched.
func (s *CatalogService) upsertCategory(ctx context.Context, categoryID int64, categoryName string, productCount int) {
	cats, token, err := store.GetCategoryList(ctx, s.store)
	if err != nil {
		s.logger.Error("Failed to read category list", zap.Error(err))
		return
	}

	found := false
	for i := range cats {
		if cats[i].ID == categoryID {
			cats[i].Name = categoryName
			if productCount >= 0 {
				cats[i].ProductCount = productCount
			}
			found = true
			break
		}
	}
	if !found {
		count := productCount
		if count < 0 {
			count = 0
		}
		cats = append(cats, models.Category{
			ID:           categoryID,
			Name:         categoryName,
			Description:  "Categoría DIY",
			ImgSrc:       "",
			ProductCount: count,
		})
	}

	message := fmt.Sprintf("SYNC category %d productCount", categoryID)
	if err := store.PutCategoryList(ctx, s.store, cats, token, message); err != nil {
		s.logger.Error("Failed to write category list", zap.Error(err))
	}
}

// DeleteResult reports a completed product deletion.
type DeleteResult struct {
	DeletedImages int
}

// DeleteProduct removes the authoritative document, best-effort cleans
// the product's repo-hosted images and comments, removes the summary
// from the given category and regenerates the derived collections.
func (s *CatalogService) DeleteProduct(ctx context.Context, id, categoryID int64) (*DeleteResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	// Step 1: read the detail for its token and its image references.
	detail, token, err := store.GetProductDetail(ctx, s.store, id)
	if err != nil {
		util.MutationsFailedTotal.WithLabelValues("store_read").Inc()
		return nil, fmt.Errorf("failed to read product %d: %w", id, err)
	}
	if detail == nil {
		util.MutationsFailedTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}

	imagePaths := s.ownedImagePaths(detail.Images)

	// Step 2: delete the authoritative document. Failure fails the
	// operation.
	message := fmt.Sprintf("DELETE product %d", id)
	if err := s.store.Delete(ctx, models.ProductPath(id), token, message); err != nil {
		util.MutationsFailedTotal.WithLabelValues("primary_write").Inc()
		return nil, fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	util.ProductDeletesTotal.Inc()
	s.logger.Info("Product deleted", zap.Int64("product_id", id))

	// Step 3: best-effort delete the product's own images.
	deletedImages := 0
	for _, path := range imagePaths {
		msg := fmt.Sprintf("DELETE orphaned image %s", path)
		if err := store.DeletePath(ctx, s.store, path, msg); err != nil {
			s.logger.Warn("Could not delete product image",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		deletedImages++
		util.ImagesDeletedTotal.Inc()
	}

	// Step 4: remove the summary and sync the count when a category
	// was given.
	if categoryID != 0 {
		s.removeSummary(ctx, id, categoryID)
	}

	// Step 5: best-effort delete the comments document.
	commentsMsg := fmt.Sprintf("DELETE comments for product %d", id)
	if err := store.DeletePath(ctx, s.store, models.CommentsPath(id), commentsMsg); err != nil {
		s.logger.Warn("Could not delete product comments",
			zap.Int64("product_id", id),
			zap.Error(err))
	}

	// Step 6: regenerate the derived collections.
	if _, err := s.indexer.Rebuild(ctx); err != nil {
		s.logger.Error("Index regeneration failed after delete",
			zap.Int64("product_id", id),
			zap.Error(err))
	}

	s.publishDeleted(ctx, id, categoryID, deletedImages)
	return &DeleteResult{DeletedImages: deletedImages}, nil
}

// ownedImagePaths filters image URLs down to the ones hosted in the
// data repository and returns their repo paths. External URLs are left
// untouched.
func (s *CatalogService) ownedImagePaths(images []string) []string {
	if s.assetBaseURL == "" {
		return nil
	}
	base := strings.TrimSuffix(s.assetBaseURL, "/") + "/"

	var paths []string
	for _, img := range images {
		idx := strings.Index(img, base)
		if idx < 0 {
			continue
		}
		if path := img[idx+len(base):]; path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// removeSummary drops the product from its category document and, only
// when the list actually shrank, writes it back and syncs the count.
func (s *CatalogService) removeSummary(ctx context.Context, id, categoryID int64) {
	doc, token, err := store.GetCategoryProducts(ctx, s.store, categoryID)
	if err != nil {
		s.logger.Error("Failed to read category products",
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		return
	}
	if doc == nil {
		return
	}

	before := len(doc.Products)
	kept := doc.Products[:0]
	for _, p := range doc.Products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	doc.Products = kept

	if len(doc.Products) == before {
		return
	}

	message := fmt.Sprintf("REMOVE product %d from category %d", id, categoryID)
	if err := store.PutCategoryProducts(ctx, s.store, doc, token, message); err != nil {
		s.logger.Error("Failed to write category products",
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		return
	}

	cats, listToken, err := store.GetCategoryList(ctx, s.store)
	if err != nil {
		s.logger.Error("Failed to read category list", zap.Error(err))
		return
	}
	for i := range cats {
		if cats[i].ID == categoryID {
			cats[i].ProductCount = len(doc.Products)
			msg := fmt.Sprintf("SYNC category %d productCount", categoryID)
			if err := store.PutCategoryList(ctx, s.store, cats, listToken, msg); err != nil {
				s.logger.Error("Failed to write category list", zap.Error(err))
			}
			return
		}
	}
}

// GetProduct reads one authoritative product document.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.ProductDetail, error) {
	detail, _, err := store.GetProductDetail(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return detail, nil
}

// ListCategories reads the category list document.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, _, err := store.GetCategoryList(ctx, s.store)
	return cats, err
}

func (s *CatalogService) publishUpserted(ctx context.Context, op string, detail *models.ProductDetail) {
	if s.events == nil {
		return
	}
	event := &models.ProductUpsertedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductUpserted,
			Timestamp: time.Now(),
		},
		ProductID:  detail.ID,
		CategoryID: detail.Category.ID,
		Op:         op,
	}
	if err := s.events.PublishProductUpserted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductUpserted event", zap.Error(err))
	}
}

func (s *CatalogService) publishDeleted(ctx context.Context, id, categoryID int64, deletedImages int) {
	if s.events == nil {
		return
	}
	event := &models.ProductDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductDeleted,
			Timestamp: time.Now(),
		},
		ProductID:     id,
		CategoryID:    categoryID,
		DeletedImages: deletedImages,
	}
	if err := s.events.PublishProductDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductDeleted event", zap.Error(err))
	}
}
