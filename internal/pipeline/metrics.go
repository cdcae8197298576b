package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	objectsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagepipe_objects_processed_total",
		Help: "Source objects fully processed by the pipeline.",
	})
	objectsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagepipe_objects_failed_total",
		Help: "Pipeline runs that ended in failure.",
	})
	objectsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagepipe_objects_skipped_total",
		Help: "Objects rejected by the skip guards.",
	})
	derivativesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagepipe_derivatives_created_total",
		Help: "Derivatives written to the object store, per profile.",
	}, []string{"profile"})
	exportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagepipe_export_failures_total",
		Help: "Derivative FTP exports that failed.",
	})
)
