package metrics

import (
	"fmt"

	"geyser/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exposes one counter per event kind, split by a status label.
type Prometheus struct {
	uploads          map[domain.EventKind]*prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
}

// NewPrometheus creates the counters and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		uploads: map[domain.EventKind]*prometheus.CounterVec{
			domain.KindAccount: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_accounts_total",
					Help: "Number of account updates submitted to the broker client, by local enqueue status.",
				},
				[]string{"status"},
			),
			domain.KindSlot: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_slots_total",
					Help: "Number of slot status updates submitted to the broker client, by local enqueue status.",
				},
				[]string{"status"},
			),
			domain.KindTransaction: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_transactions_total",
					Help: "Number of transactions submitted to the broker client, by local enqueue status.",
				},
				[]string{"status"},
			),
		},
		deliveryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_delivery_failures_total",
				Help: "Records accepted by the broker client that later failed to be delivered.",
			},
			[]string{"topic"},
		),
	}

	collectors := []prometheus.Collector{p.deliveryFailures}
	for _, kind := range []domain.EventKind{domain.KindAccount, domain.KindSlot, domain.KindTransaction} {
		vec := p.uploads[kind]
		// expose both series from the start so rate() works before the first failure
		vec.WithLabelValues(string(Success))
		vec.WithLabelValues(string(Failed))
		collectors = append(collectors, vec)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	return p, nil
}

func (p *Prometheus) Record(kind domain.EventKind, outcome Outcome) {
	vec, ok := p.uploads[kind]
	if !ok {
		return
	}
	vec.WithLabelValues(string(outcome)).Inc()
}

// DeliveryFailed counts an asynchronous failure reported by a broker backend.
func (p *Prometheus) DeliveryFailed(topic string) {
	p.deliveryFailures.WithLabelValues(topic).Inc()
}

// Uploads returns the counter vector for kind, or nil for an unknown kind.
func (p *Prometheus) Uploads(kind domain.EventKind) *prometheus.CounterVec {
	return p.uploads[kind]
}
