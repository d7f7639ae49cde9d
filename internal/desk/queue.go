package desk

// dispatchQueue is the two-tier pending queue. It is the sole priority
// policy: a Normal order is never handed out while any VIP order waits.
//
// Methods require the owning Desk's mutex.
type dispatchQueue struct {
	vip    []*Order
	normal []*Order
}

func (q *dispatchQueue) enqueueLocked(o *Order) {
	switch o.Priority {
	case VIP:
		q.vip = append(q.vip, o)
	default:
		q.normal = append(q.normal, o)
	}
}

// dequeueLocked pops the VIP head, else the Normal head, else nil.
func (q *dispatchQueue) dequeueLocked() *Order {
	if len(q.vip) > 0 {
		o := q.vip[0]
		q.vip[0] = nil
		q.vip = q.vip[1:]
		return o
	}
	if len(q.normal) > 0 {
		o := q.normal[0]
		q.normal[0] = nil
		q.normal = q.normal[1:]
		return o
	}
	return nil
}

// requeueFrontLocked reinserts an interrupted order at the HEAD of its tier,
// so work already in progress is not penalized relative to later arrivals.
func (q *dispatchQueue) requeueFrontLocked(o *Order) {
	switch o.Priority {
	case VIP:
		q.vip = append([]*Order{o}, q.vip...)
	default:
		q.normal = append([]*Order{o}, q.normal...)
	}
}

func (q *dispatchQueue) depthsLocked() (vip, normal int) {
	return len(q.vip), len(q.normal)
}
