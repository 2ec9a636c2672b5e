package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "discstorage"

	metricLabelDirection = "direction"
	metricLabelStatus    = "status"
	metricLabelStage     = "stage"
	metricLabelKind      = "kind"
	metricLabelHandler   = "handler"
)

var (
	// OperationsCounter counts finished operations per direction and terminal status
	OperationsCounter = newCounterVec(
		"operations_count",
		"Number of finished store and retrieve operations",
		metricLabelDirection, metricLabelStatus, metricLabelKind,
	)
	// OperationDuration observes the wall time of finished operations
	OperationDuration = newSummaryVec(
		"operation_duration_seconds",
		"Duration in seconds of finished operations",
		metricLabelDirection, metricLabelStatus,
	)
	// OperationsRunningGauge tracks operations that have not reached a terminal state
	OperationsRunningGauge = newGaugeVec(
		"operations_running_total",
		"Number of operations currently running",
		metricLabelDirection,
	)
	// StageBytesCounter counts the bytes each stage produced
	StageBytesCounter = newCounterVec(
		"stage_bytes_count",
		"Bytes written by each pipeline stage",
		metricLabelStage,
	)
	// ProgressSamplesDropped counts samples replaced before the owner read them
	ProgressSamplesDropped = newCounterVec(
		"progress_samples_dropped_count",
		"Number of progress samples overwritten by a newer sample",
	)
	// RecordsPersistFailedCounter counts failures to write the record catalog
	RecordsPersistFailedCounter = newCounterVec(
		"records_persist_failed_count",
		"Number of failures to persist a storage record",
	)
	// ServiceRequestCounter counts API requests for each handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observes the duration of API requests for each handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to decode a request, execute a handler and encode its reply",
		metricLabelHandler, metricLabelStatus,
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
