package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSearchCatalog(t *testing.T, env *testEnv) {
	t.Helper()

	in := testProduct(42, 5, "taladro 42")
	in.Description = "Taladro percutor con maletín"
	in.SoldCount = 10
	mustUpsert(t, env, in, nil)

	in = testProduct(7, 5, "sierra circular")
	in.Description = "Incluye disco de 42 dientes"
	in.SoldCount = 30
	mustUpsert(t, env, in, nil)

	in = testProduct(9, 7, "lija fina")
	in.CategoryName = "Abrasivos"
	in.Description = "Grano 220"
	in.SoldCount = 20
	mustUpsert(t, env, in, nil)
}

func TestSearchNumericQueryMatchesIDOnly(t *testing.T) {
	env := newTestEnv()
	seedSearchCatalog(t, env)

	// Product 7 mentions "42" in its description but only the exact id
	// matches a numeric query.
	result, err := env.search.SearchProducts(context.Background(), "42", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(42), result.Products[0].ID)
}

func TestSearchTextQuery(t *testing.T) {
	env := newTestEnv()
	seedSearchCatalog(t, env)

	result, err := env.search.SearchProducts(context.Background(), "TALADRO", nil, 0)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(42), result.Products[0].ID)

	// Category names are searched too.
	result, err = env.search.SearchProducts(context.Background(), "abrasivos", nil, 0)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(9), result.Products[0].ID)
}

func TestSearchEmptyQueryRanksBySoldCount(t *testing.T) {
	env := newTestEnv()
	seedSearchCatalog(t, env)

	result, err := env.search.SearchProducts(context.Background(), "", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 20, result.Limit)

	require.Len(t, result.Products, 3)
	assert.Equal(t, int64(7), result.Products[0].ID)
	assert.Equal(t, int64(9), result.Products[1].ID)
	assert.Equal(t, int64(42), result.Products[2].ID)
}

func TestSearchExcludeAndLimit(t *testing.T) {
	env := newTestEnv()
	seedSearchCatalog(t, env)

	result, err := env.search.SearchProducts(context.Background(), "", []int64{7}, 1)
	require.NoError(t, err)

	// Total counts the filtered set before truncation to the limit.
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(9), result.Products[0].ID)
}

func TestSearchNoMatchesReturnsEmptySlice(t *testing.T) {
	env := newTestEnv()
	seedSearchCatalog(t, env)

	result, err := env.search.SearchProducts(context.Background(), "inexistente", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
}

func TestSearchEmptyCatalog(t *testing.T) {
	env := newTestEnv()

	result, err := env.search.SearchProducts(context.Background(), "taladro", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Products)
}
