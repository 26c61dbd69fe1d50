package service

import (
	"context"
	"testing"

	"catalog-admin/internal/models"
	"catalog-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedScanCatalog creates a product whose image is referenced by URL
// and stores one extra file no document points at.
func seedScanCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	in := testProduct(1, 5, "taladro")
	in.Image = testAssetBase + "/images/products/taladro.jpg"
	in.Images = []string{in.Image}
	mustUpsert(t, env, in, nil)

	require.NoError(t, env.mem.Put(ctx, "images/products/taladro.jpg", []byte("jpg"), "", "seed"))
	require.NoError(t, env.mem.Put(ctx, "images/products/huerfana.jpg", []byte("jpg"), "", "seed"))
}

func TestScanDryRunReportsWithoutDeleting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedScanCatalog(t, env)

	report, err := env.scanner.Scan(ctx, true)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Summary.TotalImagesInFolder)
	assert.Equal(t, 1, report.Summary.ImagesInUse)
	assert.Equal(t, 1, report.Summary.UnusedImages)
	assert.Equal(t, 0, report.Summary.DeletedImages)
	assert.Equal(t, []string{"images/products/huerfana.jpg"}, report.Details.UnusedImages)

	// Dry run never touches the store.
	assert.True(t, env.mem.Has("images/products/huerfana.jpg"))
}

func TestScanDeletesUnusedImages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedScanCatalog(t, env)

	report, err := env.scanner.Scan(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.DeletedImages)
	assert.Equal(t, 0, report.Summary.Errors)
	assert.Equal(t, []string{"images/products/huerfana.jpg"}, report.Details.DeletedImages)

	assert.False(t, env.mem.Has("images/products/huerfana.jpg"))
	assert.True(t, env.mem.Has("images/products/taladro.jpg"))
}

func TestScanMatchesByBasename(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	// The document references a full URL; the stored file is matched by
	// its bare filename.
	in := testProduct(1, 5, "taladro")
	in.Image = "https://elsewhere.example.com/assets/v2/taladro.jpg"
	in.Images = []string{in.Image}
	mustUpsert(t, env, in, nil)

	require.NoError(t, env.mem.Put(ctx, "images/products/taladro.jpg", []byte("jpg"), "", "seed"))

	report, err := env.scanner.Scan(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.ImagesInUse)
	assert.Equal(t, 0, report.Summary.UnusedImages)
}

func TestScanCountsRelatedProductImages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	mustUpsert(t, env, testProduct(1, 5, "taladro"), nil)
	mustUpsert(t, env, testProduct(2, 5, "sierra"), []int64{1})

	require.NoError(t, env.mem.Put(ctx, "images/products/taladro.jpg", []byte("jpg"), "", "seed"))

	report, err := env.scanner.Scan(ctx, true)
	require.NoError(t, err)

	require.Len(t, report.Details.UsedImages, 1)
	used := report.Details.UsedImages[0]
	assert.Equal(t, "images/products/taladro.jpg", used.Path)

	types := make(map[string]bool)
	for _, usage := range used.UsedBy {
		types[usage.Type] = true
	}
	assert.True(t, types["related_product"] || used.HasMoreUsages)
}

func TestScanCountsLegacySummaryGalleries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	// An older summary document carries a gallery the current writes no
	// longer produce. Its files are in use, not orphans.
	cats := []models.Category{{ID: 5, Name: "Herramientas"}}
	require.NoError(t, store.PutCategoryList(ctx, env.mem, cats, "", "seed"))
	doc := &models.CategoryProducts{
		CatID:   5,
		CatName: "Herramientas",
		Products: []models.ProductSummary{
			{ID: 1, Name: "Taladro", Image: "taladro.jpg", Images: []string{"taladro.jpg", "vieja.jpg"}},
		},
	}
	require.NoError(t, store.PutCategoryProducts(ctx, env.mem, doc, "", "seed"))

	require.NoError(t, env.mem.Put(ctx, "images/products/vieja.jpg", []byte("jpg"), "", "seed"))

	report, err := env.scanner.Scan(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.ImagesInUse)
	assert.Equal(t, 0, report.Summary.UnusedImages)

	require.Len(t, report.Details.UsedImages, 1)
	assert.Equal(t, "images/products/vieja.jpg", report.Details.UsedImages[0].Path)
}

func TestScanEmptyFoldersWarns(t *testing.T) {
	env := newTestEnv()

	report, err := env.scanner.Scan(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.NotEmpty(t, report.Warning)
	assert.Equal(t, 0, report.Summary.TotalImagesInFolder)
}

func TestScanCapsReportedUsages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	// Four products share one image filename.
	for id := int64(1); id <= 4; id++ {
		in := testProduct(id, 5, "producto")
		in.Image = "compartida.jpg"
		in.Images = []string{"compartida.jpg"}
		mustUpsert(t, env, in, nil)
	}

	require.NoError(t, env.mem.Put(ctx, "images/products/compartida.jpg", []byte("jpg"), "", "seed"))

	report, err := env.scanner.Scan(ctx, true)
	require.NoError(t, err)

	require.Len(t, report.Details.UsedImages, 1)
	used := report.Details.UsedImages[0]
	assert.Len(t, used.UsedBy, maxReportedUsages)
	assert.True(t, used.HasMoreUsages)
	assert.Greater(t, used.UsageCount, maxReportedUsages)
}
