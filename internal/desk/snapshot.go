package desk

import (
	"sort"
	"time"
)

// OrderView is an immutable copy of an order for reporting.
type OrderView struct {
	ID          int64
	Priority    Priority
	State       State
	Bot         int64
	Seq         uint64
	ClaimSeq    uint64
	CreatedAt   time.Time
	CompletedAt time.Time
	Requeues    int
}

// BotView mirrors a bot's observable state.
type BotView struct {
	ID    int64
	State string // IDLE or BUSY
	Order int64  // 0 when idle
}

// Snapshot is a consistent point-in-time view of the whole desk.
type Snapshot struct {
	PendingVIP    []OrderView // ascending creation sequence
	PendingNormal []OrderView // ascending creation sequence
	Processing    []OrderView // ascending creation sequence
	Completed     []OrderView // completion order; claim order breaks ties
	Bots          []BotView

	ServiceTime time.Duration

	// Lifetime counters.
	Created    uint64
	Done       uint64
	Requeued   uint64
	Invariants uint64
}

// Snapshot copies the desk state under the mutex, so concurrent claims or
// completions can never produce a duplicated or missing entry.
func (d *Desk) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		PendingVIP:    viewsLocked(d.q.vip),
		PendingNormal: viewsLocked(d.q.normal),
		ServiceTime:   d.cfg.ServiceTime,
		Created:       d.createdTotal,
		Done:          d.completedTotal,
		Requeued:      d.requeuedTotal,
		Invariants:    d.invariantTotal,
	}

	for _, o := range d.reg.orders {
		if o.State == Processing {
			s.Processing = append(s.Processing, viewLocked(o))
		}
	}
	sort.Slice(s.Processing, func(i, j int) bool { return s.Processing[i].Seq < s.Processing[j].Seq })

	s.Completed = viewsLocked(d.reg.completed)
	sort.SliceStable(s.Completed, func(i, j int) bool {
		a, b := s.Completed[i], s.Completed[j]
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.ClaimSeq < b.ClaimSeq
	})

	for _, b := range d.bots {
		bv := BotView{ID: b.id, State: "IDLE"}
		if b.current != nil {
			bv.State = "BUSY"
			bv.Order = b.current.ID
		}
		s.Bots = append(s.Bots, bv)
	}
	return s
}

func viewLocked(o *Order) OrderView {
	return OrderView{
		ID:          o.ID,
		Priority:    o.Priority,
		State:       o.State,
		Bot:         o.Bot,
		Seq:         o.Seq,
		ClaimSeq:    o.ClaimSeq,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
		Requeues:    o.Requeues,
	}
}

func viewsLocked(orders []*Order) []OrderView {
	if len(orders) == 0 {
		return nil
	}
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = viewLocked(o)
	}
	return out
}
