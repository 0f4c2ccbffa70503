package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aspentap",
			Subsystem: "decode",
			Name:      "frames_total",
			Help:      "Frames decoded from reassembled streams.",
		},
		[]string{"direction", "kind"},
	)
	framePayloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aspentap",
			Subsystem: "decode",
			Name:      "frame_payload_bytes",
			Help:      "Payload size of decoded frames.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 10),
		},
	)
	diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aspentap",
			Subsystem: "decode",
			Name:      "diagnostics_total",
			Help:      "Diagnostics raised while decoding payloads.",
		},
		[]string{"severity"},
	)
	streamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aspentap",
			Subsystem: "reassembly",
			Name:      "stream_failures_total",
			Help:      "Streams abandoned after a fatal reassembly error.",
		},
		[]string{"direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, framePayloadBytes, diagnostics, streamFailures)
	})
}

func RecordFrame(direction, kind string, payloadBytes uint64) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(direction, kind).Inc()
	framePayloadBytes.Observe(float64(payloadBytes))
}

func RecordDiagnostic(severity string) {
	RegisterMetrics()
	diagnostics.WithLabelValues(severity).Inc()
}

func RecordStreamFailure(direction string) {
	RegisterMetrics()
	streamFailures.WithLabelValues(direction).Inc()
}
