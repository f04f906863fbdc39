// Package logger implements the logging capability workers use to emit
// structured log lines through the host rather than stdout, so operators
// get one unified log stream across every loaded worker. Grounded on
// original_source/balius-runtime/src/logging/mod.rs.
package logger

import "github.com/txpipe/balius/metrics"

// Level mirrors the worker-facing logging levels.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Provider receives log lines from the Host, already tagged with the
// worker they came from.
type Provider interface {
	Log(workerID string, level Level, context, message string)
}

// Host records a metric on every call, then delegates to Provider.
type Host struct {
	workerID string
	provider Provider
	metrics  *metrics.Metrics
}

func NewHost(workerID string, provider Provider, m *metrics.Metrics) *Host {
	return &Host{workerID: workerID, provider: provider, metrics: m}
}

func (h *Host) Log(level Level, context, message string) {
	h.metrics.Log(h.workerID, level.String())
	h.provider.Log(h.workerID, level, context, message)
}
