package journal

import (
	"context"
	"time"

	"orderdesk/internal/desk"
	"orderdesk/internal/eventbus"
	"orderdesk/pkg/logx"
)

// Worker subscribes to the bus and persists desk events. It never blocks
// the desk: the bus drops events for slow subscribers, and append errors
// are logged, not propagated.
type Worker struct {
	store Store
	bus   eventbus.Bus
	log   logx.Logger

	unsub func()
	done  chan struct{}
}

func NewWorker(store Store, bus eventbus.Bus, log logx.Logger) *Worker {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Worker{store: store, bus: bus, log: log}
}

func (w *Worker) Start() {
	if w.store == nil || w.bus == nil {
		return
	}
	ch, unsub := w.bus.Subscribe(256)
	w.unsub = unsub
	w.done = make(chan struct{})
	go w.loop(ch)
}

// Stop unsubscribes (which closes the channel), waits for the remaining
// events to drain, then closes the store.
func (w *Worker) Stop(ctx context.Context) {
	if w.unsub == nil {
		return
	}
	w.unsub()
	select {
	case <-w.done:
	case <-ctx.Done():
	}
	if err := w.store.Close(); err != nil {
		w.log.Warn("journal close failed", logx.Err(err))
	}
}

func (w *Worker) loop(ch <-chan eventbus.Event) {
	defer close(w.done)
	for ev := range ch {
		e, ok := entryFor(ev)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := w.store.Append(ctx, e); err != nil {
			w.log.Warn("journal append failed", logx.String("kind", e.Kind), logx.Err(err))
		}
		cancel()
	}
}

func entryFor(ev eventbus.Event) (Entry, bool) {
	e := Entry{At: ev.Time, Kind: ev.Type}
	switch data := ev.Data.(type) {
	case desk.OrderEvent:
		e.OrderID = data.ID
		e.Tier = data.Tier
		e.Bot = data.Bot
	case desk.BotEvent:
		e.Bot = data.ID
	case desk.InvariantEvent:
		e.OrderID = data.OrderID
		e.Detail = data.From + " -> " + data.To
	default:
		return Entry{}, false
	}
	return e, true
}
