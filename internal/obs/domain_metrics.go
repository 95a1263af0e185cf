package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout commits by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutRevenue accumulates committed revenue in minor units.
	CheckoutRevenue prometheus.Counter
	// InventoryOversellTotal counts stock decrements that left a product negative.
	InventoryOversellTotal prometheus.Counter
	// VaultCheckpointTotal counts closed vault periods.
	VaultCheckpointTotal prometheus.Counter
	// ReferenceTaggedItemsTotal counts sale items stamped with an export reference.
	ReferenceTaggedItemsTotal prometheus.Counter
	// CatalogSkippedRecordsTotal counts catalog records rejected during load or import.
	CatalogSkippedRecordsTotal *prometheus.CounterVec
	// ExportTaskTotal counts background export task outcomes.
	ExportTaskTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout commits by outcome.",
		}, []string{"result"}))
		CheckoutRevenue = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_revenue_minor_total",
			Help:      "Committed sales revenue in minor currency units.",
		}))
		InventoryOversellTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_oversell_total",
			Help:      "Number of stock decrements that drove a product below zero.",
		}))
		VaultCheckpointTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_checkpoint_total",
			Help:      "Number of vault periods closed by an operator checkpoint.",
		}))
		ReferenceTaggedItemsTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_tagged_items_total",
			Help:      "Number of sale items tagged with an export reference.",
		}))
		CatalogSkippedRecordsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_skipped_records_total",
			Help:      "Catalog records skipped as malformed, by record kind.",
		}, []string{"kind"}))
		ExportTaskTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_task_total",
			Help:      "Background export task outcomes.",
		}, []string{"result"}))
	})
}
