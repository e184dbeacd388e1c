package recording

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no channel names, uids or session IDs.
var (
	// NativeCallsTotal counts native engine calls by operation and result (ok/error).
	NativeCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_recording_native_calls_total",
		Help: "Total number of native recording engine calls, by operation and result.",
	}, []string{"op", "result"})

	// SessionsActive tracks sessions that joined a channel and have not been closed.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agora_recording_sessions_active",
		Help: "Current number of recording sessions joined to a channel.",
	})
)

const (
	resultOK    = "ok"
	resultError = "error"
)

func observeCall(op string, ok bool) {
	result := resultOK
	if !ok {
		result = resultError
	}
	NativeCallsTotal.WithLabelValues(op, result).Inc()
}
