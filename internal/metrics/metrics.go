package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ContainersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portflow_containers_created_total",
		Help: "Total number of containers successfully created.",
	})

	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portflow_operations_total",
		Help: "Total number of committed clearance operations that changed a container.",
	},
		[]string{"operation"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portflow_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ContainerCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portflow_container_cache_items",
		Help: "Current number of items in the in-memory container cache.",
	})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portflow_container_cache_requests_total",
		Help: "Container cache lookups by result.",
	},
		[]string{"result"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portflow_grpc_requests_total",
		Help: "Total number of gRPC requests by method and status code.",
	},
		[]string{"method", "code"},
	)

	OutboxTasksPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portflow_outbox_tasks_published_total",
		Help: "Total number of outbox tasks delivered to the broker.",
	})

	OutboxTasksFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portflow_outbox_tasks_failed_total",
		Help: "Total number of failed outbox delivery attempts.",
	})

	OutboxBacklog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portflow_outbox_tasks",
		Help: "Outbox tasks by status, sampled by the publisher.",
	},
		[]string{"status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portflow_http_request_duration_seconds",
		Help:    "HTTP request latency by handler and status code.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"handler", "code"},
	)

	AuditEntriesDirectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portflow_audit_entries_direct_total",
		Help: "Audit entries written directly because the batch queue was full.",
	})
)
