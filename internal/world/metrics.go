package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики мира.
//
// * blockworld_instances — gauge, число материализованных блоков
// * blockworld_edits_total{op} — counter, destroy/place
// * blockworld_drops_total{kind} — counter, drop/throw
// * blockworld_realize_skipped_total{reason} — counter
// * blockworld_generation_progress — gauge, доля обработанных столбцов
// * blockworld_generation_seconds — histogram
type Metrics struct {
	instances         prometheus.Gauge
	edits             *prometheus.CounterVec
	drops             *prometheus.CounterVec
	skipped           *prometheus.CounterVec
	generationProg    prometheus.Gauge
	generationSeconds prometheus.Histogram
}

// NewMetrics создаёт метрики. При reg == nil метрики не регистрируются
// (удобно в тестах, где несколько миров живут в одном процессе).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Name:      "instances",
			Help:      "Количество материализованных блоков.",
		}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockworld",
			Name:      "edits_total",
			Help:      "Число правок мира.",
		}, []string{"op"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockworld",
			Name:      "drops_total",
			Help:      "Число созданных подбираемых предметов.",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockworld",
			Name:      "realize_skipped_total",
			Help:      "Блоки, которые не удалось материализовать.",
		}, []string{"reason"}),
		generationProg: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockworld",
			Name:      "generation_progress",
			Help:      "Доля обработанных столбцов текущей генерации (0..1).",
		}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockworld",
			Name:      "generation_seconds",
			Help:      "Длительность полной генерации мира.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.instances, m.edits, m.drops, m.skipped, m.generationProg, m.generationSeconds)
	}
	return m
}
