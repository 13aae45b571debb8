// internal/utils/metrics/collector.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricType представляет тип метрики
type MetricType string

const (
	FeeEstimateCounterType  MetricType = "fee_estimate_counter"
	FeeEstimateDurationType MetricType = "fee_estimate_duration"
	FeeComponentType        MetricType = "fee_component"
	ConversionCounterType   MetricType = "conversion_counter"
	OracleRequestType       MetricType = "oracle_requests"
	RPCLatencyType          MetricType = "rpc_latency"
)

const namespace = "paymaster"

// Collector управляет набором метрик. Нулевой *Collector безопасен: все методы становятся no-op.
type Collector struct {
	metrics sync.Map
}

// NewCollector создает коллектор и регистрирует метрики в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{}
	metricsMap := map[MetricType]prometheus.Collector{
		FeeEstimateCounterType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_estimates_total",
				Help:      "Total number of fee estimations",
			},
			[]string{"status"},
		),
		FeeEstimateDurationType: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fee_estimate_duration_seconds",
				Help:      "Fee estimation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
		),
		FeeComponentType: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fee_component_lamports",
				Help:      "Estimated fee components in lamports",
				Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
			},
			[]string{"component"},
		),
		ConversionCounterType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_conversions_total",
				Help:      "Total number of token to lamports conversions",
			},
			[]string{"status"},
		),
		OracleRequestType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_requests_total",
				Help:      "Price oracle HTTP requests",
			},
			[]string{"status"},
		),
		RPCLatencyType: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "endpoint"},
		),
	}

	for metricType, metric := range metricsMap {
		if err := reg.Register(metric); err != nil {
			return nil, err
		}
		c.metrics.Store(metricType, metric)
	}

	return c, nil
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}

func (c *Collector) counterVec(t MetricType) (*prometheus.CounterVec, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.metrics.Load(t)
	if !ok {
		return nil, false
	}
	cv, ok := v.(*prometheus.CounterVec)
	return cv, ok
}

func (c *Collector) histogramVec(t MetricType) (*prometheus.HistogramVec, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.metrics.Load(t)
	if !ok {
		return nil, false
	}
	hv, ok := v.(*prometheus.HistogramVec)
	return hv, ok
}
