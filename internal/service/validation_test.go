package service

import (
	"testing"
	"time"

	"catalog-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProductInput {
	return ProductInput{
		ID:           1,
		Name:         "Taladro percutor",
		Cost:         100,
		Image:        "taladro.jpg",
		CategoryID:   5,
		CategoryName: "Herramientas",
	}
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	now := time.Now()
	in := ProductInput{}.withDefaults(now)

	violations := validate(in, now)

	// All missing required fields are reported at once.
	assert.GreaterOrEqual(t, len(violations), 5)
	assert.Contains(t, violations, "id is required and must be positive")
	assert.Contains(t, violations, "name is required")
	assert.Contains(t, violations, "cost must be greater than zero")
	assert.Contains(t, violations, "image or images is required")
	assert.Contains(t, violations, "categoryId is required and must be positive")
	assert.Contains(t, violations, "categoryName is required")
}

func TestValidateAcceptsCompleteInput(t *testing.T) {
	now := time.Now()
	in := validInput().withDefaults(now)

	assert.Empty(t, validate(in, now))
}

func TestValidateNegativeStock(t *testing.T) {
	now := time.Now()
	stock := -1
	in := validInput()
	in.Stock = &stock

	violations := validate(in.withDefaults(now), now)
	assert.Contains(t, violations, "stock must not be negative")
}

func TestValidateFlashSaleRules(t *testing.T) {
	now := time.Now()

	t.Run("price must be below cost", func(t *testing.T) {
		price := 100.0
		starts := now.Add(-time.Hour)
		ends := now.Add(time.Hour)
		in := validInput()
		in.FlashSale = &models.FlashSale{Active: true, Price: &price, StartsAt: &starts, EndsAt: &ends}

		violations := validate(in.withDefaults(now), now)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "must be below cost")
	})

	t.Run("window must be ordered", func(t *testing.T) {
		price := 80.0
		starts := now.Add(time.Hour)
		ends := now.Add(-time.Hour)
		in := validInput()
		in.FlashSale = &models.FlashSale{Active: true, Price: &price, StartsAt: &starts, EndsAt: &ends}

		violations := validate(in.withDefaults(now), now)
		assert.Contains(t, violations, "flashSale.startsAt must be before flashSale.endsAt")
	})

	t.Run("window must end in the future", func(t *testing.T) {
		price := 80.0
		starts := now.Add(-2 * time.Hour)
		ends := now.Add(-time.Hour)
		in := validInput()
		in.FlashSale = &models.FlashSale{Active: true, Price: &price, StartsAt: &starts, EndsAt: &ends}

		violations := validate(in.withDefaults(now), now)
		assert.Contains(t, violations, "flashSale.endsAt must be in the future")
	})

	t.Run("inactive sale is not validated", func(t *testing.T) {
		in := validInput()
		in.FlashSale = &models.FlashSale{Active: false}

		assert.Empty(t, validate(in.withDefaults(now), now))
	})
}

func TestWithDefaults(t *testing.T) {
	now := time.Now()
	in := validInput().withDefaults(now)

	assert.Equal(t, "UYU", in.Currency)
	require.NotNil(t, in.Stock)
	assert.Equal(t, defaultStock, *in.Stock)
	require.NotNil(t, in.FlashSale)
	assert.False(t, in.FlashSale.Active)
	require.NotNil(t, in.UpdatedAt)
	assert.Equal(t, now, *in.UpdatedAt)
	assert.Equal(t, []string{"taladro.jpg"}, in.Images)
}
