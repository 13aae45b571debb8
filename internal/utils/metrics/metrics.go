// internal/utils/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// RecordFeeEstimate записывает результат оценки комиссии и ее длительность
func (c *Collector) RecordFeeEstimate(duration time.Duration, success bool) {
	if cv, ok := c.counterVec(FeeEstimateCounterType); ok {
		cv.WithLabelValues(statusLabel(success)).Inc()
	}
	if c == nil {
		return
	}
	if v, ok := c.metrics.Load(FeeEstimateDurationType); ok {
		if h, ok := v.(prometheus.Histogram); ok {
			h.Observe(duration.Seconds())
		}
	}
}

// RecordFeeComponents записывает составляющие комиссии в лампортах
func (c *Collector) RecordFeeComponents(baseFee, priorityFee, accountCreationFee uint64) {
	hv, ok := c.histogramVec(FeeComponentType)
	if !ok {
		return
	}
	hv.WithLabelValues("base").Observe(float64(baseFee))
	hv.WithLabelValues("priority").Observe(float64(priorityFee))
	hv.WithLabelValues("account_creation").Observe(float64(accountCreationFee))
}

// RecordConversion записывает результат конвертации токенов в лампорты
func (c *Collector) RecordConversion(success bool) {
	if cv, ok := c.counterVec(ConversionCounterType); ok {
		cv.WithLabelValues(statusLabel(success)).Inc()
	}
}

// RecordOracleRequest записывает единичный HTTP-запрос к оракулу цен
func (c *Collector) RecordOracleRequest(success bool) {
	if cv, ok := c.counterVec(OracleRequestType); ok {
		cv.WithLabelValues(statusLabel(success)).Inc()
	}
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method, endpoint string, duration time.Duration) {
	if hv, ok := c.histogramVec(RPCLatencyType); ok {
		hv.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	}
}
