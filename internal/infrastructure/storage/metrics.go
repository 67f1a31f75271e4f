package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for storage operations.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
	RecordDelete(duration time.Duration, removed bool, err error)
}

// PrometheusObserver exports storage metrics to Prometheus.
type PrometheusObserver struct {
	duration     *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	uploadBytes  prometheus.Counter
	deletedFiles prometheus.Counter
}

// NewPrometheusObserver registers the storage metrics under namespace
// (default "uv_media_storage") on reg (default registerer when nil).
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "uv_media_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of media storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed media storage operations.",
		}, []string{"operation"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of media successfully stored.",
		}),
		deletedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_files_total",
			Help:      "Count of stored media files physically removed.",
		}),
	}

	var err error
	if o.duration, err = register(reg, o.duration); err != nil {
		return nil, err
	}
	if o.errors, err = register(reg, o.errors); err != nil {
		return nil, err
	}
	if o.uploadBytes, err = register(reg, o.uploadBytes); err != nil {
		return nil, err
	}
	if o.deletedFiles, err = register(reg, o.deletedFiles); err != nil {
		return nil, err
	}
	return o, nil
}

// register returns the already registered collector when an identical one exists
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register storage metric: %w", err)
	}
	return c, nil
}

// RecordUpload tracks upload duration, size and failures.
func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("upload").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("upload").Inc()
		return
	}
	o.uploadBytes.Add(float64(sizeBytes))
}

// RecordDelete tracks delete duration, removals and failures.
func (o *PrometheusObserver) RecordDelete(duration time.Duration, removed bool, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("delete").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("delete").Inc()
	}
	if removed {
		o.deletedFiles.Inc()
	}
}

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int64, error) {}

func (nopObserver) RecordDelete(time.Duration, bool, error) {}

var _ Observer = (*PrometheusObserver)(nil)
