package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-admin/internal/models"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"go.uber.org/zap"
)

const defaultSearchLimit = 20

// SearchService resolves related-product references and answers
// in-memory searches over the full product set.
type SearchService struct {
	store  store.DocStore
	logger *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(docStore store.DocStore) *SearchService {
	return &SearchService{
		store:  docStore,
		logger: util.GetLogger(),
	}
}

// ResolveRelatedProducts turns product ids into point-in-time related
// snapshots. Input order is preserved; ids that cannot be read are
// skipped with a warning, never an error.
func (s *SearchService) ResolveRelatedProducts(ctx context.Context, ids []int64) []models.RelatedProductRef {
	refs := make([]models.RelatedProductRef, 0, len(ids))

	for _, id := range ids {
		detail, _, err := store.GetProductDetail(ctx, s.store, id)
		if err != nil {
			s.logger.Warn("Could not resolve related product",
				zap.Int64("product_id", id),
				zap.Error(err))
			continue
		}
		if detail == nil {
			s.logger.Warn("Related product does not exist", zap.Int64("product_id", id))
			continue
		}

		refs = append(refs, models.RelatedProductRef{
			ID:       detail.ID,
			Name:     detail.Name,
			Image:    detail.PrimaryImage(""),
			Cost:     detail.Cost,
			Currency: detail.Currency,
			Category: detail.Category.Name,
			Featured: detail.Featured,
			Stock:    detail.Stock,
			AddedAt:  time.Now(),
		})
	}

	return refs
}

// SearchProduct is one search hit, a summary annotated with its
// category name.
type SearchProduct struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	SoldCount   int     `json:"soldCount"`
}

// SearchResult is the search response. Total counts the filtered set
// before truncation to Limit.
type SearchResult struct {
	Query    string          `json:"query"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Products []SearchProduct `json:"products"`
}

// SearchProducts gathers every category summary into memory, filters
// and ranks. A query that parses entirely as an integer matches by
// exact id only; any other query is a case-insensitive substring match
// against name, description or category.
func (s *SearchService) SearchProducts(ctx context.Context, query string, excludeIDs []int64, limit int) (*SearchResult, error) {
	ctx, span := util.StartSpan(ctx, "SearchService.SearchProducts")
	defer span.End()

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	cats, _, err := store.GetCategoryList(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("failed to read category list: %w", err)
	}

	excluded := make(map[int64]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	var all []SearchProduct
	for _, cat := range cats {
		catProducts, _, err := store.GetCategoryProducts(ctx, s.store, cat.ID)
		if err != nil {
			s.logger.Warn("Skipping unreadable category during search",
				zap.Int64("category_id", cat.ID),
				zap.Error(err))
			continue
		}
		if catProducts == nil {
			continue
		}

		for _, p := range catProducts.Products {
			if excluded[p.ID] {
				continue
			}
			all = append(all, SearchProduct{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Cost:        p.Cost,
				Currency:    p.Currency,
				Image:       p.Image,
				Category:    cat.Name,
				SoldCount:   p.SoldCount,
			})
		}
	}

	trimmed := strings.TrimSpace(query)
	queryID, numeric := parseNumericQuery(trimmed)

	filtered := all
	switch {
	case trimmed == "":
		util.SearchQueriesTotal.WithLabelValues("all").Inc()
	case numeric:
		// Exact-id mode: text fields are not searched.
		util.SearchQueriesTotal.WithLabelValues("id").Inc()
		filtered = nil
		for _, p := range all {
			if p.ID == queryID {
				filtered = append(filtered, p)
			}
		}
	default:
		util.SearchQueriesTotal.WithLabelValues("text").Inc()
		needle := strings.ToLower(trimmed)
		filtered = nil
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.Description), needle) ||
				strings.Contains(strings.ToLower(p.Category), needle) {
				filtered = append(filtered, p)
			}
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if numeric {
			if (filtered[i].ID == queryID) != (filtered[j].ID == queryID) {
				return filtered[i].ID == queryID
			}
		}
		return filtered[i].SoldCount > filtered[j].SoldCount
	})

	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	if filtered == nil {
		filtered = []SearchProduct{}
	}

	return &SearchResult{
		Query:    query,
		Total:    total,
		Limit:    limit,
		Products: filtered,
	}, nil
}

// parseNumericQuery reports whether the whole query is an integer id.
func parseNumericQuery(query string) (int64, bool) {
	if query == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
