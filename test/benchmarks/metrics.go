package benchmarks

import (
	"slices"
	"testing"
	"time"
)

// Metrics guarda a latência de cada iteração para reportar percentis, que o
// ns/op do testing esconde.
type Metrics struct {
	Durations []time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{Durations: make([]time.Duration, 0, 1024)}
}

func (m *Metrics) Record(d time.Duration) {
	m.Durations = append(m.Durations, d)
}

func (m *Metrics) P50() time.Duration { return m.percentile(0.50) }
func (m *Metrics) P95() time.Duration { return m.percentile(0.95) }
func (m *Metrics) P99() time.Duration { return m.percentile(0.99) }

func (m *Metrics) percentile(p float64) time.Duration {
	if len(m.Durations) == 0 {
		return 0
	}
	sorted := slices.Clone(m.Durations)
	slices.Sort(sorted)
	return sorted[int(float64(len(sorted)-1)*p)]
}

func (m *Metrics) Max() time.Duration {
	if len(m.Durations) == 0 {
		return 0
	}
	return slices.Max(m.Durations)
}

// Report publica os percentis como métricas extras do benchmark.
func (m *Metrics) Report(b *testing.B) {
	b.ReportMetric(float64(m.P50().Microseconds()), "p50-µs")
	b.ReportMetric(float64(m.P95().Microseconds()), "p95-µs")
	b.ReportMetric(float64(m.P99().Microseconds()), "p99-µs")
	b.ReportMetric(float64(m.Max().Microseconds()), "max-µs")
}
