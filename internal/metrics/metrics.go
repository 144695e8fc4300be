package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iotrace"

var (
	// Registry is a dedicated Prometheus registry for all collector metrics.
	Registry = prometheus.NewRegistry()

	// RecordsTotal counts received records by classification.
	RecordsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total records received, by domain and operation",
		},
		[]string{"domain", "op"},
	)

	// RecordBytesTotal accumulates raw payload bytes received.
	RecordBytesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_bytes_total",
			Help:      "Cumulative size of received record payloads in bytes",
		},
	)

	// DecodeFailuresTotal counts payloads that did not decode as a Record.
	DecodeFailuresTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Payloads dropped because they were not a valid record",
		},
	)

	// StoreAppendTotal counts persistence attempts by outcome.
	StoreAppendTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_append_total",
			Help:      "Record store append operations",
		},
		[]string{"outcome"}, // ok | error
	)

	// CollectorInfo exposes static information about the running collector.
	CollectorInfo = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collector_info",
			Help:      "Static information about the collector",
		},
		[]string{"os", "arch", "version", "backend"},
	)

	// Up is a liveness gauge for the collector.
	Up = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "1 if the collector is running and healthy",
		},
	)
)

func init() {
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	Registry.MustRegister(prometheus.NewGoCollector())
	Up.Set(1)
}

// SetCollectorInfo publishes a single info metric for the running collector.
func SetCollectorInfo(version, backend string) {
	if version == "" {
		version = "dev"
	}
	if backend == "" {
		backend = "socket"
	}
	CollectorInfo.WithLabelValues(runtime.GOOS, runtime.GOARCH, version, backend).Set(1)
}

// ObserveRecord updates the per-record counters.
func ObserveRecord(domain, op string, payloadBytes int) {
	RecordsTotal.WithLabelValues(domain, op).Inc()
	if payloadBytes > 0 {
		RecordBytesTotal.Add(float64(payloadBytes))
	}
}

// SetUp toggles the liveness gauge.
func SetUp(healthy bool) {
	if healthy {
		Up.Set(1)
		return
	}
	Up.Set(0)
}

// Serve starts the /metrics HTTP endpoint on the provided address.
func Serve(ctx context.Context, addr string, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = log.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	srv := &http.Server{Addr: addr, Handler: mux}

	idleClosed := make(chan struct{})
	go func() {
		defer close(idleClosed)
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Printf("[metrics] Prometheus endpoint listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-idleClosed
		return nil
	}

	return err
}
