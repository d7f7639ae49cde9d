package desk

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"orderdesk/internal/eventbus"
	"orderdesk/pkg/logx"
)

// Desk is the scheduler: it owns the registry, the dispatch queue, and the
// bot pool, and is the single exclusion domain for all of them.
type Desk struct {
	log   logx.Logger
	bus   eventbus.Bus
	clock clockwork.Clock

	mu   sync.Mutex
	cond *sync.Cond

	cfg  Config
	reg  registry
	q    dispatchQueue
	bots []*Bot

	nextBotID int64
	claimSeq  uint64
	stopped   bool

	// lifetime counters for snapshots/diagnostics
	createdTotal   uint64
	completedTotal uint64
	requeuedTotal  uint64
	invariantTotal uint64
}

// New creates a desk. A nil clock means the real clock; tests inject a fake
// one to drive service timers deterministically.
func New(cfg Config, log logx.Logger, bus eventbus.Bus, clock clockwork.Clock) *Desk {
	if log.IsZero() {
		log = logx.Nop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &Desk{
		log:   log,
		bus:   bus,
		clock: clock,
		cfg:   cfg.withDefaults(),
		reg:   newRegistry(),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// NewOrder creates a Pending order in the given tier and wakes an idle bot.
func (d *Desk) NewOrder(p Priority) (OrderView, error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return OrderView{}, ErrStopped
	}
	o := d.reg.createLocked(p, d.clock.Now())
	d.q.enqueueLocked(o)
	d.createdTotal++
	v := viewLocked(o)
	d.cond.Broadcast()
	d.mu.Unlock()

	d.log.Debug("order created", logx.Int64("order", v.ID), logx.String("tier", p.String()))
	d.publish(eventbus.TopicOrderCreated, OrderEvent{ID: v.ID, Tier: p.String(), Seq: v.Seq})
	return v, nil
}

// ServiceTime returns the current fixed service duration.
func (d *Desk) ServiceTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.ServiceTime
}

// Apply updates the desk config at runtime. Bots pick up a new service time
// on their next claim; an in-flight serve keeps its original timer.
func (d *Desk) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	d.mu.Lock()
	changed := cfg.ServiceTime != d.cfg.ServiceTime
	d.cfg = cfg
	d.mu.Unlock()
	if changed {
		d.log.Info("service time updated", logx.Duration("service_time", cfg.ServiceTime))
	}
}

// claimNext blocks until an order is available or the bot is stopped.
// The pop and the Pending->Processing transition happen atomically under
// the desk mutex, so two bots can never hold the same order and a snapshot
// can never observe an order in limbo.
func (d *Desk) claimNext(b *Bot) (*Order, bool) {
	d.mu.Lock()
	for {
		if d.stopped || b.stopping() {
			d.mu.Unlock()
			return nil, false
		}
		if o := d.q.dequeueLocked(); o != nil {
			d.claimSeq++
			if err := d.reg.markProcessingLocked(o, b.id, d.claimSeq); err != nil {
				d.invariantLocked(err)
				continue
			}
			b.current = o
			d.mu.Unlock()
			return o, true
		}
		d.cond.Wait()
	}
}

// finish records the natural completion of a serve.
func (d *Desk) finish(b *Bot, o *Order) {
	d.mu.Lock()
	err := d.reg.markCompletedLocked(o, d.clock.Now())
	if err == nil {
		d.completedTotal++
	} else {
		d.invariantLocked(err)
	}
	b.current = nil
	d.mu.Unlock()

	if err != nil {
		return
	}
	d.log.Info("order completed", logx.Int64("order", o.ID), logx.String("tier", o.Priority.String()), logx.Int64("bot", b.id))
	d.publish(eventbus.TopicOrderCompleted, OrderEvent{ID: o.ID, Tier: o.Priority.String(), Bot: b.id, Seq: o.Seq})
}

// abort returns an interrupted order to the head of its tier queue.
func (d *Desk) abort(b *Bot, o *Order) {
	d.mu.Lock()
	err := d.reg.markReinsertedLocked(o)
	if err == nil {
		d.q.requeueFrontLocked(o)
		d.requeuedTotal++
		d.cond.Broadcast()
	} else {
		d.invariantLocked(err)
	}
	b.current = nil
	d.mu.Unlock()

	if err != nil {
		return
	}
	d.log.Info("order requeued", logx.Int64("order", o.ID), logx.String("tier", o.Priority.String()), logx.Int64("bot", b.id), logx.Int("requeues", o.Requeues))
	d.publish(eventbus.TopicOrderRequeued, OrderEvent{ID: o.ID, Tier: o.Priority.String(), Bot: b.id, Seq: o.Seq, Requeues: o.Requeues})
}

func (d *Desk) invariantLocked(err error) {
	d.invariantTotal++
	var ierr *InvariantError
	if !errors.As(err, &ierr) {
		d.log.Error("scheduler invariant violated", logx.Err(err))
		return
	}
	d.log.Error("scheduler invariant violated", logx.Err(err), logx.Int64("order", ierr.OrderID))
	d.publish(eventbus.TopicInvariant, InvariantEvent{OrderID: ierr.OrderID, From: ierr.From.String(), To: ierr.To.String()})
}

func (d *Desk) publish(typ string, data any) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
