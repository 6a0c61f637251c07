package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame dispatch results recorded against framesTotal.
const (
	ResultClassification = "classification"
	ResultGeneric        = "generic"
	ResultMalformed      = "malformed"
	ResultEmpty          = "empty"
	ResultOversize       = "oversize"
	ResultInvalidUTF8    = "invalid_utf8"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trapmon",
			Subsystem: "listener",
			Name:      "frames_total",
			Help:      "Frames read from the serial link, by dispatch result.",
		},
		[]string{"device", "result"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trapmon",
			Subsystem: "listener",
			Name:      "frame_bytes",
			Help:      "Frame size in bytes after trimming.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 6),
		},
		[]string{"device"},
	)
	reconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trapmon",
			Subsystem: "listener",
			Name:      "reconnects_total",
			Help:      "Serial port reopen attempts after a transport error.",
		},
		[]string{"device"},
	)
	trapActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trapmon",
			Subsystem: "trigger",
			Name:      "trap_active",
			Help:      "Whether the trigger evaluator currently wants the trap live.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trapmon",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total debug endpoint requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trapmon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Debug endpoint request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, frameBytes, reconnectsTotal, trapActive, httpRequests, httpDuration)
	})
}

func RecordFrame(device, result string, size int) {
	RegisterMetrics()
	framesTotal.WithLabelValues(device, result).Inc()
	if size > 0 {
		frameBytes.WithLabelValues(device).Observe(float64(size))
	}
}

func RecordReconnect(device string) {
	RegisterMetrics()
	reconnectsTotal.WithLabelValues(device).Inc()
}

func RecordTrapState(active bool) {
	RegisterMetrics()
	if active {
		trapActive.Set(1)
	} else {
		trapActive.Set(0)
	}
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
