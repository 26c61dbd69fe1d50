package service

import (
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/models"
)

// ValidationError carries every violation found in a payload so the
// admin UI can display all problems at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// ProductInput is the upsert payload. Optional fields get their
// defaults applied in one place (withDefaults) before validation.
type ProductInput struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Cost         float64           `json:"cost"`
	Currency     string            `json:"currency"`
	SoldCount    int               `json:"soldCount"`
	Image        string            `json:"image"`
	Images       []string          `json:"images"`
	CategoryID   int64             `json:"categoryId"`
	CategoryName string            `json:"categoryName"`
	Featured     bool              `json:"featured"`
	Stock        *int              `json:"stock"`
	LowStock     bool              `json:"lowStock"`
	FlashSale    *models.FlashSale `json:"flashSale"`
	UpdatedAt    *time.Time        `json:"updatedAt"`
}

const defaultStock = 50

// withDefaults fills the optional fields the way the storefront
// expects them.
func (in ProductInput) withDefaults(now time.Time) ProductInput {
	if in.Currency == "" {
		in.Currency = "UYU"
	}
	if in.Stock == nil {
		stock := defaultStock
		in.Stock = &stock
	}
	if in.FlashSale == nil {
		in.FlashSale = &models.FlashSale{}
	}
	if in.UpdatedAt == nil {
		in.UpdatedAt = &now
	}
	if len(in.Images) == 0 && in.Image != "" {
		in.Images = []string{in.Image}
	}
	return in
}

// validate checks an input that already has its defaults applied and
// returns every violation found.
func validate(in ProductInput, now time.Time) []string {
	var violations []string

	if in.ID <= 0 {
		violations = append(violations, "id is required and must be positive")
	}
	if in.Name == "" {
		violations = append(violations, "name is required")
	}
	if in.Cost <= 0 {
		violations = append(violations, "cost must be greater than zero")
	}
	if in.Image == "" && len(in.Images) == 0 {
		violations = append(violations, "image or images is required")
	}
	if in.CategoryID <= 0 {
		violations = append(violations, "categoryId is required and must be positive")
	}
	if in.CategoryName == "" {
		violations = append(violations, "categoryName is required")
	}
	if in.Stock != nil && *in.Stock < 0 {
		violations = append(violations, "stock must not be negative")
	}

	if fs := in.FlashSale; fs != nil && fs.Active {
		if fs.Price == nil || *fs.Price <= 0 {
			violations = append(violations, "flashSale.price must be greater than zero")
		} else if in.Cost > 0 && *fs.Price >= in.Cost {
			violations = append(violations, fmt.Sprintf("flashSale.price %.2f must be below cost %.2f", *fs.Price, in.Cost))
		}
		switch {
		case fs.StartsAt == nil || fs.EndsAt == nil:
			violations = append(violations, "flashSale.startsAt and flashSale.endsAt are required when active")
		case !fs.StartsAt.Before(*fs.EndsAt):
			violations = append(violations, "flashSale.startsAt must be before flashSale.endsAt")
		case fs.EndsAt.Before(now):
			violations = append(violations, "flashSale.endsAt must be in the future")
		}
	}

	return violations
}
