package desk

import "time"

// registry allocates order ids and tracks every order ever created.
//
// It has no locking of its own: all methods require the owning Desk's mutex
// (the "Locked" suffix convention).
type registry struct {
	orders    map[int64]*Order
	completed []*Order

	nextID  int64
	nextSeq uint64
}

func newRegistry() registry {
	return registry{orders: map[int64]*Order{}}
}

func (r *registry) createLocked(p Priority, now time.Time) *Order {
	r.nextID++
	r.nextSeq++
	o := &Order{
		ID:        r.nextID,
		Priority:  p,
		Seq:       r.nextSeq,
		State:     Pending,
		CreatedAt: now,
	}
	r.orders[o.ID] = o
	return o
}

func (r *registry) markProcessingLocked(o *Order, botID int64, claimSeq uint64) error {
	if o.State != Pending {
		return &InvariantError{OrderID: o.ID, From: o.State, To: Processing}
	}
	o.State = Processing
	o.Bot = botID
	o.ClaimSeq = claimSeq
	return nil
}

func (r *registry) markCompletedLocked(o *Order, now time.Time) error {
	if o.State != Processing {
		return &InvariantError{OrderID: o.ID, From: o.State, To: Completed}
	}
	o.State = Completed
	o.Bot = 0
	o.CompletedAt = now
	r.completed = append(r.completed, o)
	return nil
}

func (r *registry) markReinsertedLocked(o *Order) error {
	if o.State != Processing {
		return &InvariantError{OrderID: o.ID, From: o.State, To: Pending}
	}
	o.State = Pending
	o.Bot = 0
	o.Requeues++
	return nil
}
