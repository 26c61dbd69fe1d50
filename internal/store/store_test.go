package store

import (
	"context"
	"testing"

	"catalog-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreOptimisticConcurrency(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	// Create requires an empty token.
	err := mem.Put(ctx, "products/1.json", []byte(`{"id":1}`), "", "CREATE product 1")
	require.NoError(t, err)

	// Creating again without a token conflicts.
	err = mem.Put(ctx, "products/1.json", []byte(`{"id":1}`), "", "CREATE product 1")
	assert.ErrorIs(t, err, ErrConflict)

	content, token, err := mem.Get(ctx, "products/1.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), content)
	assert.NotEmpty(t, token)

	// Update with the read token succeeds and rotates the token.
	err = mem.Put(ctx, "products/1.json", []byte(`{"id":1,"name":"x"}`), token, "UPDATE product 1")
	require.NoError(t, err)

	// The old token is now stale.
	err = mem.Put(ctx, "products/1.json", []byte(`{}`), token, "UPDATE product 1")
	assert.ErrorIs(t, err, ErrConflict)

	_, fresh, err := mem.Get(ctx, "products/1.json")
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)

	// Delete requires the fresh token.
	err = mem.Delete(ctx, "products/1.json", token, "DELETE product 1")
	assert.ErrorIs(t, err, ErrConflict)

	err = mem.Delete(ctx, "products/1.json", fresh, "DELETE product 1")
	require.NoError(t, err)

	_, _, err = mem.Get(ctx, "products/1.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	require.NoError(t, mem.Put(ctx, "images/products/b.jpg", []byte("b"), "", "seed"))
	require.NoError(t, mem.Put(ctx, "images/products/a.jpg", []byte("a"), "", "seed"))
	require.NoError(t, mem.Put(ctx, "images/cats/c.jpg", []byte("c"), "", "seed"))

	files, err := mem.List(ctx, "images/products")
	require.NoError(t, err)
	assert.Equal(t, []string{"images/products/a.jpg", "images/products/b.jpg"}, files)

	empty, err := mem.List(ctx, "images/missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetDocAbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	var out map[string]any
	token, found, err := GetDoc(ctx, mem, "cats/cat.json", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, token)

	cats, token, err := GetCategoryList(ctx, mem)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.NotNil(t, cats)
	assert.Len(t, cats, 0)
}

func TestTypedDocRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	cats := []models.Category{
		{ID: 5, Name: "Herramientas", Description: "Categoría DIY", ProductCount: 2},
	}
	require.NoError(t, PutCategoryList(ctx, mem, cats, "", "SYNC category 5 productCount"))

	got, token, err := GetCategoryList(ctx, mem)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, 2, got[0].ProductCount)

	doc := &models.CategoryProducts{
		CatID:   5,
		CatName: "Herramientas",
		Products: []models.ProductSummary{
			{ID: 1, Name: "Taladro", Cost: 100, Currency: "UYU"},
		},
	}
	require.NoError(t, PutCategoryProducts(ctx, mem, doc, "", "UPSERT product 1 in category 5"))

	gotDoc, _, err := GetCategoryProducts(ctx, mem, 5)
	require.NoError(t, err)
	require.NotNil(t, gotDoc)
	require.Len(t, gotDoc.Products, 1)
	assert.Equal(t, "Taladro", gotDoc.Products[0].Name)

	missing, _, err := GetCategoryProducts(ctx, mem, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeletePathToleratesAbsence(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	assert.NoError(t, DeletePath(ctx, mem, "products_comments/1.json", "DELETE comments for product 1"))

	require.NoError(t, mem.Put(ctx, "products_comments/1.json", []byte(`[]`), "", "seed"))
	require.NoError(t, DeletePath(ctx, mem, "products_comments/1.json", "DELETE comments for product 1"))
	assert.False(t, mem.Has("products_comments/1.json"))
}
