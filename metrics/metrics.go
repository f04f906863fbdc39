// Package metrics wires runtime-wide instrumentation through
// prometheus/client_golang, the teacher's own metrics stack
// (core/system_health_logging.go), in place of the original_source
// project's opentelemetry usage: nothing else in this module's pack
// pulls in otel, and prometheus already gives every counter/gauge/
// histogram shape metrics.rs needs.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// requestDurationBucketsMS are the fixed histogram boundaries spec.md
// §4.G specifies for request handling latency, in milliseconds.
var requestDurationBucketsMS = []float64{
	100, 250, 500, 1000, 2500, 5000, 10000, 25000, 60000, 1200000,
}

// Metrics is the runtime's full counter/gauge/histogram set. Grounded on
// original_source/balius-runtime/src/metrics.rs one-counter-per-concern
// shape, labeled the same way (worker, method, success, level).
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	kvGet           *prometheus.CounterVec
	kvSet           *prometheus.CounterVec
	kvList          *prometheus.CounterVec
	log             *prometheus.CounterVec
	utxoHandled     *prometheus.CounterVec
	txHandled       *prometheus.CounterVec
	undoUtxoHandled *prometheus.CounterVec
	undoTxHandled   *prometheus.CounterVec
	loadedWorkers   prometheus.Gauge
	chainErrors     *prometheus.CounterVec

	submitTx          *prometheus.CounterVec
	signerSignPayload *prometheus.CounterVec
	ledgerReadUtxos    *prometheus.CounterVec
	ledgerSearchUtxos  *prometheus.CounterVec
	ledgerReadParams   *prometheus.CounterVec

	latestBlockHeight prometheus.Gauge
	latestBlockSlot   prometheus.Gauge

	handleChainDuration       prometheus.Histogram
	handleWorkerChainDuration *prometheus.HistogramVec
}

// New builds a Metrics registered against a fresh prometheus.Registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_requests_total",
			Help: "Total number of requests handled.",
		}, []string{"worker", "method", "success"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "balius_request_duration_ms",
			Help:    "Request handling latency in milliseconds.",
			Buckets: requestDurationBucketsMS,
		}, []string{"worker", "method"}),
		kvGet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_kv_get_total",
			Help: "Total amount of kv get calls.",
		}, []string{"worker"}),
		kvSet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_kv_set_total",
			Help: "Total amount of kv set calls.",
		}, []string{"worker"}),
		kvList: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_kv_list_total",
			Help: "Total amount of kv list calls.",
		}, []string{"worker"}),
		log: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_log_total",
			Help: "Total amount of log lines written.",
		}, []string{"worker", "level"}),
		utxoHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_utxo_handled_total",
			Help: "Amount of utxo events handled per worker.",
		}, []string{"worker"}),
		txHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_tx_handled_total",
			Help: "Amount of tx events handled per worker.",
		}, []string{"worker"}),
		undoUtxoHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_undo_utxo_handled_total",
			Help: "Amount of undo utxo events handled per worker.",
		}, []string{"worker"}),
		undoTxHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_undo_tx_handled_total",
			Help: "Amount of undo tx events handled per worker.",
		}, []string{"worker"}),
		loadedWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "balius_loaded_workers",
			Help: "Number of workers currently loaded.",
		}),
		chainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_chain_errors_total",
			Help: "Total number of non-Handle errors that aborted a chain dispatch.",
		}, []string{"worker"}),
		submitTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_submit_tx_total",
			Help: "Total amount of submit_tx calls.",
		}, []string{"worker"}),
		signerSignPayload: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_signer_sign_payload_total",
			Help: "Total amount of sign_payload calls.",
		}, []string{"worker"}),
		ledgerReadUtxos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_ledger_read_utxos_total",
			Help: "Total amount of ledger read_utxos calls.",
		}, []string{"worker"}),
		ledgerSearchUtxos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_ledger_search_utxos_total",
			Help: "Total amount of ledger search_utxos calls.",
		}, []string{"worker"}),
		ledgerReadParams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balius_ledger_read_params_total",
			Help: "Total amount of ledger read_params calls.",
		}, []string{"worker"}),
		latestBlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "balius_latest_block_height",
			Help: "Height of the most recently applied block.",
		}),
		latestBlockSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "balius_latest_block_slot",
			Help: "Slot of the most recently applied block.",
		}),
		handleChainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "balius_handle_chain_duration_ms",
			Help:    "Latency of a full handle_chain dispatch across every loaded worker, in milliseconds.",
			Buckets: requestDurationBucketsMS,
		}),
		handleWorkerChainDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "balius_handle_worker_chain_duration_ms",
			Help:    "Latency of one worker's undo/apply pass within handle_chain, in milliseconds.",
			Buckets: requestDurationBucketsMS,
		}, []string{"worker"}),
	}

	reg.MustRegister(
		m.requests, m.requestDuration,
		m.kvGet, m.kvSet, m.kvList,
		m.log,
		m.utxoHandled, m.txHandled, m.undoUtxoHandled, m.undoTxHandled,
		m.loadedWorkers, m.chainErrors,
		m.submitTx, m.signerSignPayload,
		m.ledgerReadUtxos, m.ledgerSearchUtxos, m.ledgerReadParams,
		m.latestBlockHeight, m.latestBlockSlot,
		m.handleChainDuration, m.handleWorkerChainDuration,
	)
	return m
}

// Registry exposes the underlying prometheus.Registry, for wiring into
// promhttp.HandlerFor by the CLI's metrics server.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Request(workerID, method string, success bool, durationMS float64) {
	m.requests.WithLabelValues(workerID, method, boolLabel(success)).Inc()
	m.requestDuration.WithLabelValues(workerID, method).Observe(durationMS)
}

func (m *Metrics) KvGet(workerID string)  { m.kvGet.WithLabelValues(workerID).Inc() }
func (m *Metrics) KvSet(workerID string)  { m.kvSet.WithLabelValues(workerID).Inc() }
func (m *Metrics) KvList(workerID string) { m.kvList.WithLabelValues(workerID).Inc() }

func (m *Metrics) Log(workerID, level string) { m.log.WithLabelValues(workerID, level).Inc() }

func (m *Metrics) UtxoHandled(workerID string)     { m.utxoHandled.WithLabelValues(workerID).Inc() }
func (m *Metrics) TxHandled(workerID string)       { m.txHandled.WithLabelValues(workerID).Inc() }
func (m *Metrics) UndoUtxoHandled(workerID string) { m.undoUtxoHandled.WithLabelValues(workerID).Inc() }
func (m *Metrics) UndoTxHandled(workerID string)   { m.undoTxHandled.WithLabelValues(workerID).Inc() }

func (m *Metrics) SetLoadedWorkers(n int) { m.loadedWorkers.Set(float64(n)) }

func (m *Metrics) ChainError(workerID string) { m.chainErrors.WithLabelValues(workerID).Inc() }

func (m *Metrics) SubmitTx(workerID string) { m.submitTx.WithLabelValues(workerID).Inc() }

func (m *Metrics) SignerSignPayload(workerID string) {
	m.signerSignPayload.WithLabelValues(workerID).Inc()
}

func (m *Metrics) LedgerReadUtxos(workerID string)   { m.ledgerReadUtxos.WithLabelValues(workerID).Inc() }
func (m *Metrics) LedgerSearchUtxos(workerID string) { m.ledgerSearchUtxos.WithLabelValues(workerID).Inc() }
func (m *Metrics) LedgerReadParams(workerID string)  { m.ledgerReadParams.WithLabelValues(workerID).Inc() }

// SetLatestBlock records the height and slot of the most recently applied
// block, as observed at the end of a handle_chain dispatch.
func (m *Metrics) SetLatestBlock(height, slot uint64) {
	m.latestBlockHeight.Set(float64(height))
	m.latestBlockSlot.Set(float64(slot))
}

func (m *Metrics) HandleChainDuration(durationMS float64) {
	m.handleChainDuration.Observe(durationMS)
}

func (m *Metrics) HandleWorkerChainDuration(workerID string, durationMS float64) {
	m.handleWorkerChainDuration.WithLabelValues(workerID).Observe(durationMS)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
