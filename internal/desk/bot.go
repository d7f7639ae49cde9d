package desk

import (
	"orderdesk/internal/eventbus"
	"orderdesk/pkg/logx"
)

// Bot is a worker: it repeatedly claims the next order and serves it for
// the fixed service duration. Idle bots park on the desk's condition
// variable; serving bots wait on a cancellable clock timer.
type Bot struct {
	id   int64
	desk *Desk

	stopCh chan struct{}
	done   chan struct{}

	current *Order // guarded by desk.mu
}

func newBot(id int64, d *Desk) *Bot {
	return &Bot{
		id:     id,
		desk:   d,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (b *Bot) stopping() bool {
	select {
	case <-b.stopCh:
		return true
	default:
		return false
	}
}

func (b *Bot) run() {
	defer close(b.done)
	d := b.desk
	for {
		o, ok := d.claimNext(b)
		if !ok {
			return
		}
		d.log.Debug("order claimed", logx.Int64("order", o.ID), logx.Int64("bot", b.id))
		d.publish(eventbus.TopicOrderClaimed, OrderEvent{ID: o.ID, Tier: o.Priority.String(), Bot: b.id, Seq: o.Seq})

		t := d.clock.NewTimer(d.ServiceTime())
		// The one critical linearization point: exactly one of the two
		// branches runs, so a stop can never both complete and requeue.
		select {
		case <-t.Chan():
			d.finish(b, o)
		case <-b.stopCh:
			t.Stop()
			d.abort(b, o)
			return
		}
	}
}
