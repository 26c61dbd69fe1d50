package models

import (
	"fmt"
	"math"
	"time"
)

// Document layout in the data repository. These paths are part of the
// public contract with the storefront and must not change.
const (
	CategoryListPath     = "cats/cat.json"
	FeaturedPath         = "cats/featured.json"
	HotSalesPath         = "cats/hot_sales.json"
	ProductImagesFolder  = "images/products"
	CategoryImagesFolder = "images/cats"
)

// ProductPath returns the path of the authoritative product document.
func ProductPath(id int64) string {
	return fmt.Sprintf("products/%d.json", id)
}

// CategoryProductsPath returns the path of a category's summary document.
func CategoryProductsPath(categoryID int64) string {
	return fmt.Sprintf("cats_products/%d.json", categoryID)
}

// CommentsPath returns the path of a product's comments document.
func CommentsPath(id int64) string {
	return fmt.Sprintf("products_comments/%d.json", id)
}

// Category is one entry of the category list document.
// ProductCount is derived and must equal the length of the category's
// summary list; it is only written by the mutation operations.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImgSrc       string `json:"imgSrc"`
	ProductCount int    `json:"productCount"`
}

// ProductSummary is the compact per-category cache of a product.
// Images is a legacy gallery some older summary documents still carry;
// new writes leave it empty but its references must keep counting as
// in use.
type ProductSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Cost        float64  `json:"cost"`
	Currency    string   `json:"currency"`
	SoldCount   int      `json:"soldCount"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
}

// CategoryProducts is the cats_products/{id}.json document.
type CategoryProducts struct {
	CatID    int64            `json:"catID"`
	CatName  string           `json:"catName"`
	Products []ProductSummary `json:"products"`
}

// CategoryRef is the category reference embedded in a product detail.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FlashSale describes a time-boxed discount. The window is inclusive
// on both ends and evaluated against wall-clock time at regeneration.
type FlashSale struct {
	Active   bool       `json:"active"`
	Price    *float64   `json:"price"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

// InWindow reports whether the sale is active and now lies within
// [StartsAt, EndsAt].
func (f FlashSale) InWindow(now time.Time) bool {
	if !f.Active || f.Price == nil || f.StartsAt == nil || f.EndsAt == nil {
		return false
	}
	return !now.Before(*f.StartsAt) && !now.After(*f.EndsAt)
}

// FlashDiscount computes the discount percentage for a flash price.
// Recomputed at regeneration time, never stored on the detail.
func FlashDiscount(cost, flashPrice float64) int {
	if cost == 0 {
		return 0
	}
	return int(math.Round((cost - flashPrice) / cost * 100))
}

// RelatedProductRef is a point-in-time snapshot of another product.
// It is not refreshed when the referenced product changes.
type RelatedProductRef struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	Cost     float64   `json:"cost"`
	Currency string    `json:"currency"`
	Category string    `json:"category"`
	Featured bool      `json:"featured"`
	Stock    int       `json:"stock"`
	AddedAt  time.Time `json:"addedAt"`
}

// ProductDetail is the authoritative per-product document. Every
// summary and derived collection is a cache of a subset of its fields.
type ProductDetail struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Cost            float64             `json:"cost"`
	Currency        string              `json:"currency"`
	SoldCount       int                 `json:"soldCount"`
	Category        CategoryRef         `json:"category"`
	Images          []string            `json:"images"`
	// Image is the legacy single-image field still present in older
	// documents; new writes always populate Images.
	Image           string              `json:"image,omitempty"`
	RelatedProducts []RelatedProductRef `json:"relatedProducts"`
	Featured        bool                `json:"featured"`
	Stock           int                 `json:"stock"`
	LowStock        bool                `json:"lowStock"`
	FlashSale       FlashSale           `json:"flashSale"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// PrimaryImage returns the display image for the detail: first gallery
// entry, then the legacy single-image field, then the given fallback.
func (p *ProductDetail) PrimaryImage(fallback string) string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	if p.Image != "" {
		return p.Image
	}
	return fallback
}

// ProductSnapshot is the full field set a derived collection carries
// for display. FlashPrice and Discount are only set on hot-sale
// entries.
type ProductSnapshot struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Cost        float64     `json:"cost"`
	Currency    string      `json:"currency"`
	SoldCount   int         `json:"soldCount"`
	Image       string      `json:"image"`
	Category    CategoryRef `json:"category"`
	Featured    bool        `json:"featured"`
	Stock       int         `json:"stock"`
	LowStock    bool        `json:"lowStock"`
	FlashSale   FlashSale   `json:"flashSale"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	FlashPrice  *float64    `json:"flashPrice,omitempty"`
	Discount    *int        `json:"discount,omitempty"`
}

// Collection is a derived category-shaped document (Featured, HotSales).
// It has no independent source of truth and is always fully rebuilt.
type Collection struct {
	CatName     string            `json:"catName"`
	ImgSrc      string            `json:"imgSrc"`
	Description string            `json:"description"`
	Products    []ProductSnapshot `json:"products"`
}

// Defaults used when a derived collection document does not exist yet.
var (
	DefaultFeatured = Collection{
		CatName:     "Destacados",
		ImgSrc:      "images/cats/featured.jpg",
		Description: "Nuestros productos más populares y recomendados",
	}
	DefaultHotSales = Collection{
		CatName:     "Hot Sales!",
		ImgSrc:      "images/cats/hot_sales.jpg",
		Description: "Ofertas por tiempo limitado - ¡No te las pierdas!",
	}
)
