package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voting_booth"

type Metrics struct {
	registry     *prometheus.Registry
	tasks        *prometheus.CounterVec
	tokensIssued prometheus.Counter
	redemptions  *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Submitted tasks by kind and response status.",
		}, []string{"kind", "status"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_tokens_issued_total",
			Help:      "Vote tokens handed out for valid invitations.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_token_redemptions_total",
			Help:      "Vote token redemption attempts by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{
		m.tasks,
		m.tokensIssued,
		m.redemptions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTask counts a task. Unknown kinds are folded into one label value so
// clients cannot grow the label set.
func (m *Metrics) ObserveTask(kind string, known bool, status int) {
	if !known {
		kind = "unknown"
	}
	m.tasks.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

func (m *Metrics) TokenIssued() {
	m.tokensIssued.Inc()
}

func (m *Metrics) Redemption(outcome string) {
	m.redemptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
