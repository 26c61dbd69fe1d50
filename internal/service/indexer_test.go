package service

import (
	"context"
	"testing"
	"time"

	"catalog-admin/internal/models"
	"catalog-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildCollectsFeaturedAcrossCategories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	a := testProduct(1, 5, "taladro")
	a.Featured = true
	mustUpsert(t, env, a, nil)

	mustUpsert(t, env, testProduct(2, 5, "sierra"), nil)

	c := testProduct(3, 7, "lija")
	c.CategoryName = "Abrasivos"
	c.Featured = true
	mustUpsert(t, env, c, nil)

	result, err := env.indexer.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Featured)
	assert.Equal(t, 0, result.HotSales)
	assert.Equal(t, 0, result.SkippedReads)

	featured, _, err := store.GetCollection(ctx, env.mem, models.FeaturedPath)
	require.NoError(t, err)

	ids := make(map[int64]int)
	for _, p := range featured.Products {
		ids[p.ID]++
	}
	assert.Equal(t, map[int64]int{1: 1, 3: 1}, ids)
}

func TestRebuildFlashSaleWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	price := 75.0
	starts := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ends := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	in := testProduct(1, 5, "taladro")
	in.FlashSale = &models.FlashSale{Active: true, Price: &price, StartsAt: &starts, EndsAt: &ends}
	mustUpsert(t, env, in, nil)

	rebuildAt := func(at time.Time) *models.Collection {
		t.Helper()
		env.indexer.now = func() time.Time { return at }
		_, err := env.indexer.Rebuild(ctx)
		require.NoError(t, err)
		hotSales, _, err := store.GetCollection(ctx, env.mem, models.HotSalesPath)
		require.NoError(t, err)
		return hotSales
	}

	assert.Empty(t, rebuildAt(starts.Add(-time.Minute)).Products)

	inWindow := rebuildAt(starts.Add(time.Hour))
	require.Len(t, inWindow.Products, 1)
	assert.Equal(t, 75.0, *inWindow.Products[0].FlashPrice)
	assert.Equal(t, 25, *inWindow.Products[0].Discount)

	// The window bounds are inclusive.
	require.Len(t, rebuildAt(starts).Products, 1)
	require.Len(t, rebuildAt(ends).Products, 1)

	assert.Empty(t, rebuildAt(ends.Add(time.Minute)).Products)
}

func TestRebuildPreservesCollectionMetadata(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	custom := models.Collection{
		CatName:     "Ofertas de invierno",
		ImgSrc:      "images/cats/invierno.jpg",
		Description: "Personalizada",
		Products:    []models.ProductSnapshot{},
	}
	require.NoError(t, store.PutCollection(ctx, env.mem, models.HotSalesPath, &custom, "", "seed"))

	mustUpsert(t, env, testProduct(1, 5, "taladro"), nil)

	hotSales, _, err := store.GetCollection(ctx, env.mem, models.HotSalesPath)
	require.NoError(t, err)
	assert.Equal(t, "Ofertas de invierno", hotSales.CatName)
	assert.Equal(t, "images/cats/invierno.jpg", hotSales.ImgSrc)
	assert.Equal(t, "Personalizada", hotSales.Description)
}

func TestRebuildSkipsBrokenProducts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	in := testProduct(1, 5, "taladro")
	in.Featured = true
	mustUpsert(t, env, in, nil)

	// A summary whose authoritative document is gone must not stop the
	// rebuild.
	doc, token, err := store.GetCategoryProducts(ctx, env.mem, 5)
	require.NoError(t, err)
	doc.Products = append(doc.Products, models.ProductSummary{ID: 999, Name: "fantasma"})
	require.NoError(t, store.PutCategoryProducts(ctx, env.mem, doc, token, "seed"))

	result, err := env.indexer.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Featured)

	featured, _, err := store.GetCollection(ctx, env.mem, models.FeaturedPath)
	require.NoError(t, err)
	require.Len(t, featured.Products, 1)
	assert.Equal(t, int64(1), featured.Products[0].ID)
}
