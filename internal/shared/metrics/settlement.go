package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement agrupa as métricas das invocações de liquidação
type Settlement struct {
	Invocations *prometheus.CounterVec // result: won | lost | <kind do erro>
	Payout      prometheus.Counter
	Duration    prometheus.Histogram
}

// NewSettlement cria e registra as métricas no registerer informado
// (prometheus.DefaultRegisterer em produção, registry próprio em testes)
func NewSettlement(reg prometheus.Registerer) *Settlement {
	m := &Settlement{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_invocations_total",
			Help: "invocações por resultado",
		}, []string{"result"}),
		Payout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_payout_total",
			Help: "soma dos prêmios pagos",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "duração das invocações",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Invocations, m.Payout, m.Duration)
	}
	return m
}

// Observe registra uma invocação concluída
func (m *Settlement) Observe(result string, payout uint64, started time.Time) {
	m.Invocations.WithLabelValues(result).Inc()
	if payout > 0 {
		m.Payout.Add(float64(payout))
	}
	m.Duration.Observe(time.Since(started).Seconds())
}
