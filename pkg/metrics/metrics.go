// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyformat.
//
// go-keyformat is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for key decoding,
// encoding and conversion. Collectors register with the default registry;
// long-running hosts expose them through promhttp, batch tools write them
// in the text exposition format with WriteText.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyformat metrics
	Namespace = "keyformat"

	// Label names
	LabelOperation = "operation"
	LabelFormat    = "format"
	LabelFrom      = "from"
	LabelTo        = "to"
	LabelAlgorithm = "algorithm"
	LabelKeyType   = "key_type"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpDecode  = "decode"
	OpEncode  = "encode"
	OpDetect  = "detect"
	OpConvert = "convert"
)

var (
	// OperationsTotal counts single-format operations by format and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of key format operations by type, format, and status",
		},
		[]string{LabelOperation, LabelFormat, LabelStatus},
	)

	// OperationDuration tracks single-format operations in seconds. Parsing
	// is sub-millisecond for EC and OCT keys; RSA validation dominates the
	// upper buckets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of key format operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{LabelOperation, LabelFormat},
	)

	// ErrorsTotal counts failures by operation, format, and error kind
	// (e.g. "malformed_input", "missing_field", "unsupported_curve").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, format, and error type",
		},
		[]string{LabelOperation, LabelFormat, LabelErrorType},
	)

	// ConversionsTotal counts end-to-end conversions between two formats.
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "conversions_total",
			Help:      "Total number of key conversions by source format, target format, and status",
		},
		[]string{LabelFrom, LabelTo, LabelStatus},
	)

	// ConversionDuration tracks end-to-end conversions in seconds.
	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Duration of key conversions in seconds",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{LabelFrom, LabelTo},
	)

	// KeysProcessed counts decoded keys by algorithm and key type.
	KeysProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "keys_processed_total",
			Help:      "Total number of decoded keys by algorithm and key type",
		},
		[]string{LabelAlgorithm, LabelKeyType},
	)

	// InputBytes tracks the size of decoded inputs.
	InputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "input_bytes",
			Help:      "Size of decoded key inputs in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{LabelFormat},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a decode, encode or detect operation with its
// duration and status.
//
// Example:
//
//	start := time.Now()
//	key, err := pem.Decode(data)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpDecode, "pem", status, time.Since(start).Seconds())
func RecordOperation(operation, format, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, format, status).Inc()
	OperationDuration.WithLabelValues(operation, format).Observe(duration)
}

// RecordError records a failure with the kind of error that caused it.
func RecordError(operation, format, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, format, errorType).Inc()
}

// RecordConversion records a conversion from one format to another.
func RecordConversion(from, to, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	ConversionsTotal.WithLabelValues(from, to, status).Inc()
	ConversionDuration.WithLabelValues(from, to).Observe(duration)
}

// RecordKey records a successfully decoded key.
func RecordKey(algorithm, keyType string) {
	if !enabled.Load() {
		return
	}
	KeysProcessed.WithLabelValues(algorithm, keyType).Inc()
}

// ObserveInputSize records the size of an input handed to a decoder.
func ObserveInputSize(format string, size int) {
	if !enabled.Load() {
		return
	}
	InputBytes.WithLabelValues(format).Observe(float64(size))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
