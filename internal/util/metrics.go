package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductUpsertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_product_upserts_total",
		Help: "Total number of product upserts",
	})

	ProductDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_product_deletes_total",
		Help: "Total number of product deletions",
	})

	MutationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_mutations_failed_total",
		Help: "Total number of failed catalog mutations",
	}, []string{"reason"})

	IndexRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_index_rebuilds_total",
		Help: "Total number of derived index rebuilds",
	}, []string{"outcome"})

	IndexRebuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_index_rebuild_latency_seconds",
		Help:    "Latency of derived index rebuilds",
		Buckets: prometheus.DefBuckets,
	})

	IndexSkippedReadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_index_skipped_reads_total",
		Help: "Documents skipped during index rebuilds because they were missing or unreadable",
	})

	StoreOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_store_operations_total",
		Help: "Total number of document store operations",
	}, []string{"op", "outcome"})

	DocCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_doc_cache_total",
		Help: "Document cache lookups",
	}, []string{"outcome"})

	SearchQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_queries_total",
		Help: "Total number of search queries",
	}, []string{"mode"})

	ImagesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_images_deleted_total",
		Help: "Total number of orphan images deleted",
	})

	ImageScanLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_image_scan_latency_seconds",
		Help:    "Latency of image usage scans",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
