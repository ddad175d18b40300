package obs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	} else {
		sort.Float64s(buckets)
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	m.ReqTotal = registerCounterVec(reg, m.ReqTotal)
	m.ReqDur = registerHistogramVec(reg, m.ReqDur)
	m.InFlight = registerGauge(reg, m.InFlight)
	return m
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var (
	domainOnce sync.Once

	// InvoicesCreatedTotal counts invoice creation outcomes.
	InvoicesCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounting",
		Name:      "invoices_created_total",
		Help:      "Count of invoice creation outcomes.",
	}, []string{"result"})
	// VouchersCreatedTotal counts discount voucher creation outcomes.
	VouchersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounting",
		Name:      "vouchers_created_total",
		Help:      "Count of discount voucher creation outcomes.",
	}, []string{"result"})
	// TotalsRecomputeTotal counts document totals recomputations by document kind.
	TotalsRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounting",
		Name:      "totals_recompute_total",
		Help:      "Count of document totals recomputations.",
	}, []string{"document"})
	// ReportCacheTotal counts report cache lookups by report and result.
	ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounting",
		Name:      "report_cache_total",
		Help:      "Count of report cache lookups by result.",
	}, []string{"report", "result"})
)

// MustRegisterDomainMetrics registers the domain collectors. The collectors
// work unregistered, so packages may increment them freely in tests.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		InvoicesCreatedTotal = registerCounterVec(reg, InvoicesCreatedTotal)
		VouchersCreatedTotal = registerCounterVec(reg, VouchersCreatedTotal)
		TotalsRecomputeTotal = registerCounterVec(reg, TotalsRecomputeTotal)
		ReportCacheTotal = registerCounterVec(reg, ReportCacheTotal)
	})
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register counter: %w", err))
	}
	return c
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register histogram: %w", err))
	}
	return h
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge) prometheus.Gauge {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register gauge: %w", err))
	}
	return g
}
