package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalog-admin/internal/models"
)

// GetDoc reads and unmarshals a JSON document. A missing document is
// reported via found=false, not an error, because most operations
// treat absence as "start from empty".
func GetDoc(ctx context.Context, s DocStore, path string, out any) (token string, found bool, err error) {
	content, token, err := s.Get(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if err := json.Unmarshal(content, out); err != nil {
		return "", false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return token, true, nil
}

// PutDoc marshals and writes a JSON document. Two-space indentation
// keeps the stored files diffable in the data repository.
func PutDoc(ctx context.Context, s DocStore, path string, v any, token, message string) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return s.Put(ctx, path, content, token, message)
}

// GetCategoryList reads cats/cat.json. Absence yields an empty list.
func GetCategoryList(ctx context.Context, s DocStore) ([]models.Category, string, error) {
	var cats []models.Category
	token, found, err := GetDoc(ctx, s, models.CategoryListPath, &cats)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return []models.Category{}, "", nil
	}
	return cats, token, nil
}

// PutCategoryList writes cats/cat.json.
func PutCategoryList(ctx context.Context, s DocStore, cats []models.Category, token, message string) error {
	return PutDoc(ctx, s, models.CategoryListPath, cats, token, message)
}

// GetCategoryProducts reads a category's summary document. Returns nil
// when the document does not exist.
func GetCategoryProducts(ctx context.Context, s DocStore, categoryID int64) (*models.CategoryProducts, string, error) {
	var doc models.CategoryProducts
	token, found, err := GetDoc(ctx, s, models.CategoryProductsPath(categoryID), &doc)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", nil
	}
	return &doc, token, nil
}

// PutCategoryProducts writes a category's summary document.
func PutCategoryProducts(ctx context.Context, s DocStore, doc *models.CategoryProducts, token, message string) error {
	return PutDoc(ctx, s, models.CategoryProductsPath(doc.CatID), doc, token, message)
}

// GetProductDetail reads an authoritative product document. Returns
// nil when the document does not exist.
func GetProductDetail(ctx context.Context, s DocStore, id int64) (*models.ProductDetail, string, error) {
	var detail models.ProductDetail
	token, found, err := GetDoc(ctx, s, models.ProductPath(id), &detail)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", nil
	}
	return &detail, token, nil
}

// PutProductDetail writes an authoritative product document.
func PutProductDetail(ctx context.Context, s DocStore, detail *models.ProductDetail, token, message string) error {
	return PutDoc(ctx, s, models.ProductPath(detail.ID), detail, token, message)
}

// GetCollection reads a derived collection document (Featured or
// HotSales). Returns nil when the document does not exist.
func GetCollection(ctx context.Context, s DocStore, path string) (*models.Collection, string, error) {
	var col models.Collection
	token, found, err := GetDoc(ctx, s, path, &col)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", nil
	}
	return &col, token, nil
}

// PutCollection writes a derived collection document.
func PutCollection(ctx context.Context, s DocStore, path string, col *models.Collection, token, message string) error {
	return PutDoc(ctx, s, path, col, token, message)
}

// DeletePath removes a document if it exists, reading a fresh token
// first. Absence is not an error.
func DeletePath(ctx context.Context, s DocStore, path, message string) error {
	_, token, err := s.Get(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, path, token, message)
}
