package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"catalog-admin/internal/broker"
	"catalog-admin/internal/models"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageScanner diffs the image folders of the data repository against
// every image reference in the live documents. Matching is by basename
// only: the product and category folders never share filenames in
// practice, and switching to path matching would change which files
// count as orphans.
type ImageScanner struct {
	store  store.DocStore
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewImageScanner creates a new image scanner.
func NewImageScanner(docStore store.DocStore, events *broker.EventPublisher) *ImageScanner {
	return &ImageScanner{
		store:  docStore,
		events: events,
		logger: util.GetLogger(),
	}
}

// ImageUsage records one reference to an image filename.
type ImageUsage struct {
	Type      string `json:"type"`
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Field     string `json:"field,omitempty"`
	RelatedTo string `json:"relatedTo,omitempty"`
}

// UsedImage is one in-use file in the scan report. UsedBy is capped to
// keep the response small.
type UsedImage struct {
	Path          string       `json:"path"`
	UsageCount    int          `json:"usageCount"`
	UsedBy        []ImageUsage `json:"usedBy"`
	HasMoreUsages bool         `json:"hasMoreUsages"`
}

// DeletionError records one failed file deletion.
type DeletionError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanSummary holds the scan counters.
type ScanSummary struct {
	TotalImagesInFolder int `json:"totalImagesInFolder"`
	ImagesInUse         int `json:"imagesInUse"`
	UnusedImages        int `json:"unusedImages"`
	DeletedImages       int `json:"deletedImages"`
	Errors              int `json:"errors"`
}

// ScanDetails holds the per-file scan results.
type ScanDetails struct {
	UsedImages    []UsedImage     `json:"usedImages"`
	UnusedImages  []string        `json:"unusedImages"`
	DeletedImages []string        `json:"deletedImages"`
	Errors        []DeletionError `json:"errors"`
}

// ScanReport is the full result of one scan.
type ScanReport struct {
	Success   bool        `json:"success"`
	DryRun    bool        `json:"dryRun"`
	Timestamp time.Time   `json:"timestamp"`
	Summary   ScanSummary `json:"summary"`
	Details   ScanDetails `json:"details"`
	Warning   string      `json:"warning,omitempty"`
}

const maxReportedUsages = 3

// Scan builds the in-use filename set, lists the two image folders and
// reports the diff. When dryRun is false, every unmatched file is
// deleted; per-file errors are recorded and do not abort the batch.
func (s *ImageScanner) Scan(ctx context.Context, dryRun bool) (*ScanReport, error) {
	ctx, span := util.StartSpan(ctx, "ImageScanner.Scan")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ImageScanLatency.Observe(time.Since(start).Seconds())
	}()

	inUse := make(map[string][]ImageUsage)
	s.collectReferences(ctx, inUse)
	s.logger.Info("Image references collected", zap.Int("in_use", len(inUse)))

	var allImages []string
	for _, folder := range []string{models.ProductImagesFolder, models.CategoryImagesFolder} {
		files, err := s.store.List(ctx, folder)
		if err != nil {
			s.logger.Error("Failed to list image folder",
				zap.String("folder", folder),
				zap.Error(err))
			continue
		}
		allImages = append(allImages, files...)
	}

	report := &ScanReport{
		Success:   true,
		DryRun:    dryRun,
		Timestamp: time.Now(),
		Details: ScanDetails{
			UsedImages:    []UsedImage{},
			UnusedImages:  []string{},
			DeletedImages: []string{},
			Errors:        []DeletionError{},
		},
	}

	if len(allImages) == 0 {
		report.Warning = "No images found in images/products or images/cats folders"
		return report, nil
	}

	for _, path := range allImages {
		name := basename(path)
		usages, used := inUse[name]
		if !used {
			report.Details.UnusedImages = append(report.Details.UnusedImages, path)
			continue
		}
		reported := usages
		if len(reported) > maxReportedUsages {
			reported = reported[:maxReportedUsages]
		}
		report.Details.UsedImages = append(report.Details.UsedImages, UsedImage{
			Path:          path,
			UsageCount:    len(usages),
			UsedBy:        reported,
			HasMoreUsages: len(usages) > maxReportedUsages,
		})
	}

	if !dryRun {
		for _, path := range report.Details.UnusedImages {
			msg := fmt.Sprintf("DELETE unused image %s", path)
			if err := store.DeletePath(ctx, s.store, path, msg); err != nil {
				s.logger.Error("Failed to delete unused image",
					zap.String("path", path),
					zap.Error(err))
				report.Details.Errors = append(report.Details.Errors, DeletionError{
					Path:  path,
					Error: err.Error(),
				})
				continue
			}
			report.Details.DeletedImages = append(report.Details.DeletedImages, path)
			util.ImagesDeletedTotal.Inc()
		}
	}

	report.Summary = ScanSummary{
		TotalImagesInFolder: len(allImages),
		ImagesInUse:         len(report.Details.UsedImages),
		UnusedImages:        len(report.Details.UnusedImages),
		DeletedImages:       len(report.Details.DeletedImages),
		Errors:              len(report.Details.Errors),
	}

	s.publish(ctx, report)
	return report, nil
}

// collectReferences walks every live document and records image
// filenames with where they are used. Unreadable documents are logged
// and skipped.
func (s *ImageScanner) collectReferences(ctx context.Context, inUse map[string][]ImageUsage) {
	record := func(ref string, usage ImageUsage) {
		name := basename(ref)
		if name == "" {
			return
		}
		inUse[name] = append(inUse[name], usage)
	}

	cats, _, err := store.GetCategoryList(ctx, s.store)
	if err != nil {
		s.logger.Warn("Could not read category list for scan", zap.Error(err))
	}
	for _, cat := range cats {
		if cat.ImgSrc != "" {
			record(cat.ImgSrc, ImageUsage{Type: "category", ID: cat.ID, Name: cat.Name})
		}
	}

	for _, path := range []string{models.FeaturedPath, models.HotSalesPath} {
		col, _, err := store.GetCollection(ctx, s.store, path)
		if err != nil {
			s.logger.Warn("Could not read collection for scan",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		if col != nil && col.ImgSrc != "" {
			record(col.ImgSrc, ImageUsage{Type: "promotional_category", Name: col.CatName})
		}
	}

	for _, cat := range cats {
		catProducts, _, err := store.GetCategoryProducts(ctx, s.store, cat.ID)
		if err != nil {
			s.logger.Warn("Could not read category products for scan",
				zap.Int64("category_id", cat.ID),
				zap.Error(err))
			continue
		}
		if catProducts == nil {
			continue
		}

		for _, p := range catProducts.Products {
			if p.Image != "" {
				record(p.Image, ImageUsage{Type: "product", ID: p.ID, Name: p.Name, Field: "main"})
			}
			for i, img := range p.Images {
				record(img, ImageUsage{
					Type:  "product",
					ID:    p.ID,
					Name:  p.Name,
					Field: fmt.Sprintf("gallery_%d", i),
				})
			}

			detail, _, err := store.GetProductDetail(ctx, s.store, p.ID)
			if err != nil {
				s.logger.Warn("Could not read product detail for scan",
					zap.Int64("product_id", p.ID),
					zap.Error(err))
				continue
			}
			if detail == nil {
				continue
			}

			for i, img := range detail.Images {
				record(img, ImageUsage{
					Type:  "product_detail",
					ID:    detail.ID,
					Name:  detail.Name,
					Field: fmt.Sprintf("image_%d", i),
				})
			}
			for _, rel := range detail.RelatedProducts {
				if rel.Image != "" {
					record(rel.Image, ImageUsage{
						Type:      "related_product",
						ID:        detail.ID,
						Name:      detail.Name,
						RelatedTo: rel.Name,
					})
				}
			}
		}
	}
}

// basename extracts the bare filename from a URL or path reference.
func basename(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if u, err := url.Parse(ref); err == nil {
			ref = u.Path
		}
	}
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

func (s *ImageScanner) publish(ctx context.Context, report *ScanReport) {
	if s.events == nil {
		return
	}
	event := &models.ImagesCleanedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeImagesCleaned,
			Timestamp: time.Now(),
		},
		DryRun:  report.DryRun,
		Unused:  report.Summary.UnusedImages,
		Deleted: report.Summary.DeletedImages,
		Errors:  report.Summary.Errors,
	}
	if err := s.events.PublishImagesCleaned(ctx, event); err != nil {
		s.logger.Error("Failed to publish ImagesCleaned event", zap.Error(err))
	}
}
