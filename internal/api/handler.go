package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-admin/internal/service"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog *service.CatalogService
	search  *service.SearchService
	scanner *service.ImageScanner
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *service.CatalogService, search *service.SearchService, scanner *service.ImageScanner) *Handler {
	return &Handler{
		catalog: catalog,
		search:  search,
		scanner: scanner,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", h.upsertProduct)
		v1.GET("/products/search", h.searchProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
		v1.GET("/categories", h.listCategories)
		v1.POST("/images/clean", h.cleanImages)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type upsertProductRequest struct {
	Op                string                `json:"op"`
	Product           *service.ProductInput `json:"product"`
	RelatedProductIDs *[]int64              `json:"relatedProductIds"`
}

// upsertProduct handles product create/update
func (h *Handler) upsertProduct(c *gin.Context) {
	var req upsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Product == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product object required"})
		return
	}

	var relatedIDs []int64
	if req.RelatedProductIDs != nil {
		relatedIDs = *req.RelatedProductIDs
		if relatedIDs == nil {
			relatedIDs = []int64{}
		}
	}

	err := h.catalog.UpsertProduct(c.Request.Context(), req.Op, *req.Product, relatedIDs)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Validation failed",
				"violations": validationErr.Violations,
			})
			return
		}
		c.JSON(storeErrorStatus(err), gin.H{
			"error":   "Failed to upsert product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// deleteProduct handles product deletion
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var categoryID int64
	if raw := c.Query("categoryId"); raw != "" {
		categoryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
	}

	result, err := h.catalog.DeleteProduct(c.Request.Context(), id, categoryID)
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{
			"error":   "Failed to delete product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"deletedImages": result.DeletedImages,
	})
}

// getProduct handles get product by ID
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	detail, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// listCategories handles get category list
func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read categories",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// searchProducts handles product search
func (h *Handler) searchProducts(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.Query("limit"))

	var excludeIDs []int64
	for _, raw := range c.QueryArray("exclude") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exclude ID"})
				return
			}
			excludeIDs = append(excludeIDs, id)
		}
	}

	result, err := h.search.SearchProducts(c.Request.Context(), query, excludeIDs, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error searching products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"query":    result.Query,
		"total":    result.Total,
		"limit":    result.Limit,
		"products": result.Products,
	})
}

type cleanImagesRequest struct {
	DryRun *bool `json:"dryRun"`
}

// cleanImages handles the orphan image scan
func (h *Handler) cleanImages(c *gin.Context) {
	var req cleanImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	report, err := h.scanner.Scan(c.Request.Context(), dryRun)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// storeErrorStatus maps store errors onto HTTP statuses.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
