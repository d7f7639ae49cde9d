// Package metrics exposes desk counters and gauges in Prometheus format.
// Counters are fed from the event bus; queue-depth gauges are refreshed by
// the stats job from desk snapshots.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderdesk/internal/desk"
	"orderdesk/internal/eventbus"
	"orderdesk/pkg/logx"
)

type Metrics struct {
	log logx.Logger
	reg *prometheus.Registry

	ordersCreated   *prometheus.CounterVec
	ordersCompleted *prometheus.CounterVec
	ordersRequeued  prometheus.Counter
	invariants      prometheus.Counter
	botsActive      prometheus.Gauge
	queueDepth      *prometheus.GaugeVec

	unsub func()
	done  chan struct{}
	srv   *http.Server
}

// New builds the metric set on a private registry, so tests can create as
// many instances as they like without double-registration panics.
func New(log logx.Logger) *Metrics {
	if log.IsZero() {
		log = logx.Nop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		log: log,
		reg: reg,
		ordersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "orders_created_total",
			Help:      "Orders created, by tier.",
		}, []string{"tier"}),
		ordersCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "orders_completed_total",
			Help:      "Orders served to completion, by tier.",
		}, []string{"tier"}),
		ordersRequeued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "orders_requeued_total",
			Help:      "Serves interrupted by bot removal and returned to the queue head.",
		}),
		invariants: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "invariant_violations_total",
			Help:      "Illegal order state transitions observed by the scheduler.",
		}),
		botsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "orderdesk",
			Name:      "bots_active",
			Help:      "Bots currently in the pool.",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orderdesk",
			Name:      "queue_depth",
			Help:      "Pending orders, by tier.",
		}, []string{"tier"}),
	}
}

// Observe subscribes to the bus and keeps the counters current.
func (m *Metrics) Observe(bus eventbus.Bus) {
	if bus == nil {
		return
	}
	ch, unsub := bus.Subscribe(256)
	m.unsub = unsub
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		for ev := range ch {
			m.apply(ev)
		}
	}()
}

func (m *Metrics) apply(ev eventbus.Event) {
	switch ev.Type {
	case eventbus.TopicOrderCreated:
		if d, ok := ev.Data.(desk.OrderEvent); ok {
			m.ordersCreated.WithLabelValues(d.Tier).Inc()
		}
	case eventbus.TopicOrderCompleted:
		if d, ok := ev.Data.(desk.OrderEvent); ok {
			m.ordersCompleted.WithLabelValues(d.Tier).Inc()
		}
	case eventbus.TopicOrderRequeued:
		m.ordersRequeued.Inc()
	case eventbus.TopicInvariant:
		m.invariants.Inc()
	case eventbus.TopicBotAdded, eventbus.TopicBotRemoved:
		if d, ok := ev.Data.(desk.BotEvent); ok {
			m.botsActive.Set(float64(d.Total))
		}
	}
}

// UpdateQueues refreshes the sampled gauges from a desk snapshot.
func (m *Metrics) UpdateQueues(s desk.Snapshot) {
	m.queueDepth.WithLabelValues(desk.VIP.String()).Set(float64(len(s.PendingVIP)))
	m.queueDepth.WithLabelValues(desk.Normal.String()).Set(float64(len(s.PendingNormal)))
	m.botsActive.Set(float64(len(s.Bots)))
}

// Gatherer exposes the private registry for scraping outside Serve.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// Serve starts the Prometheus endpoint. No-op when listen is empty.
func (m *Metrics) Serve(listen string) {
	if listen == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	m.srv = &http.Server{Addr: listen, Handler: mux}
	go func() {
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Warn("metrics listener failed", logx.String("listen", listen), logx.Err(err))
		}
	}()
	m.log.Info("metrics listening", logx.String("listen", listen))
}

func (m *Metrics) Stop(ctx context.Context) {
	if m.unsub != nil {
		m.unsub()
		select {
		case <-m.done:
		case <-ctx.Done():
		}
	}
	if m.srv != nil {
		shctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = m.srv.Shutdown(shctx)
	}
}
