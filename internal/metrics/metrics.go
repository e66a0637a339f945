// Package metrics exposes the process counters served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts inbound Telegram updates by type.
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commander_updates_total",
		Help: "Inbound Telegram updates by type.",
	}, []string{"type"})

	// DeliveriesTotal counts successful outbound Bot API calls by method.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commander_deliveries_total",
		Help: "Successful outbound Bot API calls by method.",
	}, []string{"method"})

	// DeliveryRetries counts rate-limit retries against the Bot API.
	DeliveryRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commander_delivery_retries_total",
		Help: "Rate-limit retries against the Bot API.",
	})

	// IngestedFiles counts drop files processed by the ingestion pipeline.
	IngestedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commander_ingested_files_total",
		Help: "Drop files processed by the ingestion pipeline.",
	})

	// IngestedBatches counts caption batches published by the pipeline.
	IngestedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commander_ingested_batches_total",
		Help: "Caption batches published by the ingestion pipeline.",
	})
)
