package models

import "time"

// Event types
const (
	EventTypeProductUpserted  = "PRODUCT_UPSERTED"
	EventTypeProductDeleted   = "PRODUCT_DELETED"
	EventTypeIndexRegenerated = "INDEX_REGENERATED"
	EventTypeImagesCleaned    = "IMAGES_CLEANED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductUpsertedEvent published after a product detail is written
type ProductUpsertedEvent struct {
	BaseEvent
	ProductID  int64  `json:"product_id"`
	CategoryID int64  `json:"category_id"`
	Op         string `json:"op"`
}

// ProductDeletedEvent published after a product detail is deleted
type ProductDeletedEvent struct {
	BaseEvent
	ProductID     int64 `json:"product_id"`
	CategoryID    int64 `json:"category_id,omitempty"`
	DeletedImages int   `json:"deleted_images"`
}

// IndexRegeneratedEvent published after the derived collections are rebuilt
type IndexRegeneratedEvent struct {
	BaseEvent
	FeaturedCount int `json:"featured_count"`
	HotSalesCount int `json:"hot_sales_count"`
	SkippedReads  int `json:"skipped_reads"`
}

// ImagesCleanedEvent published after an orphan image sweep
type ImagesCleanedEvent struct {
	BaseEvent
	DryRun  bool `json:"dry_run"`
	Unused  int  `json:"unused"`
	Deleted int  `json:"deleted"`
	Errors  int  `json:"errors"`
}
