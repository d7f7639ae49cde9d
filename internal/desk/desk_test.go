package desk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"orderdesk/pkg/logx"
)

const serviceTime = 10 * time.Second

func newTestDesk(t *testing.T) (*Desk, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	d := New(Config{ServiceTime: serviceTime}, logx.Nop(), nil, clock)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d, clock
}

// waitFor polls until cond holds. The fake clock freezes service timers, so
// this only waits out goroutine scheduling, never simulated time.
func waitFor(t *testing.T, what string, cond func(Snapshot) bool, d *Desk) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := d.Snapshot()
		if cond(s) {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; snapshot: %+v", what, d.Snapshot())
	return Snapshot{}
}

func completedIDs(s Snapshot) []int64 {
	ids := make([]int64, len(s.Completed))
	for i, o := range s.Completed {
		ids[i] = o.ID
	}
	return ids
}

func equalIDs(a []int64, b ...int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustOrder(t *testing.T, d *Desk, p Priority) OrderView {
	t.Helper()
	v, err := d.NewOrder(p)
	if err != nil {
		t.Fatalf("NewOrder(%s): %v", p, err)
	}
	return v
}

func mustAddBot(t *testing.T, d *Desk) int64 {
	t.Helper()
	id, err := d.AddBot()
	if err != nil {
		t.Fatalf("AddBot: %v", err)
	}
	return id
}

func TestSingleOrderCompletes(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	o := mustOrder(t, d, Normal)
	if o.ID != 1 {
		t.Fatalf("first order id = %d, want 1", o.ID)
	}
	mustAddBot(t, d)

	waitFor(t, "order claimed", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)
	clock.BlockUntil(1)
	clock.Advance(serviceTime)

	s := waitFor(t, "order completed", func(s Snapshot) bool { return len(s.Completed) == 1 }, d)
	if !equalIDs(completedIDs(s), 1) {
		t.Fatalf("completed = %v, want [1]", completedIDs(s))
	}
	if len(s.PendingVIP)+len(s.PendingNormal)+len(s.Processing) != 0 {
		t.Fatalf("leftover work in snapshot: %+v", s)
	}
	if s.Created != 1 || s.Done != 1 {
		t.Fatalf("counters = created %d done %d, want 1/1", s.Created, s.Done)
	}
}

func TestVIPServedBeforeNormal(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	mustOrder(t, d, Normal) // id 1
	mustOrder(t, d, VIP)    // id 2
	mustAddBot(t, d)

	s := waitFor(t, "first claim", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)
	if s.Processing[0].ID != 2 {
		t.Fatalf("first claim = order %d, want VIP order 2", s.Processing[0].ID)
	}

	clock.BlockUntil(1)
	clock.Advance(serviceTime)
	waitFor(t, "second claim", func(s Snapshot) bool {
		return len(s.Completed) == 1 && len(s.Processing) == 1
	}, d)

	clock.BlockUntil(1)
	clock.Advance(serviceTime)
	s = waitFor(t, "both completed", func(s Snapshot) bool { return len(s.Completed) == 2 }, d)
	if !equalIDs(completedIDs(s), 2, 1) {
		t.Fatalf("completed = %v, want [2 1]", completedIDs(s))
	}
}

func TestRemoveBotRequeuesAtFront(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	mustOrder(t, d, Normal) // id 1
	mustAddBot(t, d)
	waitFor(t, "order claimed", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)

	// Remove mid-service: the order must come back Pending at the head of
	// its tier, not be lost and not be completed.
	if _, err := d.RemoveBot(); err != nil {
		t.Fatalf("RemoveBot: %v", err)
	}
	s := d.Snapshot()
	if len(s.PendingNormal) != 1 || s.PendingNormal[0].ID != 1 {
		t.Fatalf("after removal, pending normal = %+v, want order 1", s.PendingNormal)
	}
	if s.PendingNormal[0].Requeues != 1 {
		t.Fatalf("requeues = %d, want 1", s.PendingNormal[0].Requeues)
	}
	if len(s.Bots) != 0 {
		t.Fatalf("pool not empty after removal: %+v", s.Bots)
	}

	// A VIP created after the interruption still wins over the requeued
	// Normal order.
	mustOrder(t, d, VIP) // id 2
	mustAddBot(t, d)

	s = waitFor(t, "VIP claimed", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)
	if s.Processing[0].ID != 2 {
		t.Fatalf("claimed order %d, want VIP order 2", s.Processing[0].ID)
	}

	clock.BlockUntil(1)
	clock.Advance(serviceTime)
	waitFor(t, "requeued order claimed", func(s Snapshot) bool {
		return len(s.Completed) == 1 && len(s.Processing) == 1
	}, d)

	clock.BlockUntil(1)
	clock.Advance(serviceTime)
	s = waitFor(t, "both completed", func(s Snapshot) bool { return len(s.Completed) == 2 }, d)
	if !equalIDs(completedIDs(s), 2, 1) {
		t.Fatalf("completed = %v, want [2 1]", completedIDs(s))
	}
}

func TestBatchCompletionOrder(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	mustOrder(t, d, VIP) // id 1
	mustOrder(t, d, VIP) // id 2
	mustAddBot(t, d)
	waitFor(t, "bot 1 claims order 1", func(s Snapshot) bool {
		return len(s.Processing) == 1 && s.Processing[0].ID == 1
	}, d)

	mustOrder(t, d, Normal) // id 3
	mustAddBot(t, d)
	waitFor(t, "bot 2 claims order 2", func(s Snapshot) bool { return len(s.Processing) == 2 }, d)

	mustOrder(t, d, VIP) // id 4

	// Both serves finish on the same simulated instant; claim order breaks
	// the tie, so the first batch reads [1 2].
	clock.BlockUntil(2)
	clock.Advance(serviceTime)
	s := waitFor(t, "first batch completed", func(s Snapshot) bool { return len(s.Completed) == 2 }, d)
	if !equalIDs(completedIDs(s), 1, 2) {
		t.Fatalf("first batch = %v, want [1 2]", completedIDs(s))
	}

	// Tier priority applies to the second round of claims: VIP 4 is claimed
	// before Normal 3 even though 3 arrived first.
	waitFor(t, "second round claimed", func(s Snapshot) bool { return len(s.Processing) == 2 }, d)
	clock.BlockUntil(2)
	clock.Advance(serviceTime)
	s = waitFor(t, "all completed", func(s Snapshot) bool { return len(s.Completed) == 4 }, d)
	if !equalIDs(completedIDs(s), 1, 2, 4, 3) {
		t.Fatalf("completed = %v, want [1 2 4 3]", completedIDs(s))
	}
}

func TestRemoveBotEmptyPool(t *testing.T) {
	t.Parallel()
	d, _ := newTestDesk(t)
	if _, err := d.RemoveBot(); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("RemoveBot on empty pool: err = %v, want ErrEmptyPool", err)
	}
}

func TestRemoveIdleBot(t *testing.T) {
	t.Parallel()
	d, _ := newTestDesk(t)

	id := mustAddBot(t, d)
	waitFor(t, "bot registered", func(s Snapshot) bool { return len(s.Bots) == 1 }, d)

	got, err := d.RemoveBot()
	if err != nil {
		t.Fatalf("RemoveBot: %v", err)
	}
	if got != id {
		t.Fatalf("removed bot %d, want %d", got, id)
	}
}

func TestRemoveNewestBotFirst(t *testing.T) {
	t.Parallel()
	d, _ := newTestDesk(t)

	mustAddBot(t, d) // 1
	mustAddBot(t, d) // 2
	id, err := d.RemoveBot()
	if err != nil {
		t.Fatalf("RemoveBot: %v", err)
	}
	if id != 2 {
		t.Fatalf("removed bot %d, want newest (2)", id)
	}
}

func TestConservation(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	for i := 0; i < 3; i++ {
		mustOrder(t, d, VIP)
		mustOrder(t, d, Normal)
	}
	mustAddBot(t, d)
	mustAddBot(t, d)

	check := func(s Snapshot) {
		t.Helper()
		total := len(s.PendingVIP) + len(s.PendingNormal) + len(s.Processing) + len(s.Completed)
		if uint64(total) != s.Created {
			t.Fatalf("conservation broken: %d orders visible, %d created; snapshot %+v", total, s.Created, s)
		}
		seen := map[int64]bool{}
		for _, list := range [][]OrderView{s.PendingVIP, s.PendingNormal, s.Processing, s.Completed} {
			for _, o := range list {
				if seen[o.ID] {
					t.Fatalf("order %d appears twice in snapshot %+v", o.ID, s)
				}
				seen[o.ID] = true
			}
		}
	}

	waitFor(t, "two claims", func(s Snapshot) bool { return len(s.Processing) == 2 }, d)
	check(d.Snapshot())

	// Interrupt one serve mid-flight; nothing may be lost or duplicated.
	if _, err := d.RemoveBot(); err != nil {
		t.Fatalf("RemoveBot: %v", err)
	}
	check(d.Snapshot())

	waitFor(t, "remaining bot claims", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)
	for i := 0; i < 6; i++ {
		clock.BlockUntil(1)
		clock.Advance(serviceTime)
		s := waitFor(t, "progress", func(s Snapshot) bool {
			return uint64(len(s.Completed)) >= uint64(i+1)
		}, d)
		check(s)
		if len(s.Completed) == 6 {
			break
		}
		waitFor(t, "next claim", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)
	}

	s := waitFor(t, "all done", func(s Snapshot) bool { return len(s.Completed) == 6 }, d)
	check(s)
	if s.Invariants != 0 {
		t.Fatalf("invariant violations recorded: %d", s.Invariants)
	}
}

func TestStopRequeuesInFlight(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	d := New(Config{ServiceTime: serviceTime}, logx.Nop(), nil, clock)

	mustOrder(t, d, Normal)
	mustAddBot(t, d)
	waitFor(t, "order claimed", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	s := d.Snapshot()
	if len(s.Processing) != 0 {
		t.Fatalf("order left Processing after stop: %+v", s.Processing)
	}
	if len(s.PendingNormal) != 1 {
		t.Fatalf("in-flight order not requeued: %+v", s)
	}

	if _, err := d.NewOrder(Normal); !errors.Is(err, ErrStopped) {
		t.Fatalf("NewOrder after stop: err = %v, want ErrStopped", err)
	}
	if _, err := d.AddBot(); !errors.Is(err, ErrStopped) {
		t.Fatalf("AddBot after stop: err = %v, want ErrStopped", err)
	}
	// Idempotent.
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestServiceTimeHotReload(t *testing.T) {
	t.Parallel()
	d, clock := newTestDesk(t)

	d.Apply(Config{ServiceTime: 3 * time.Second})
	if got := d.ServiceTime(); got != 3*time.Second {
		t.Fatalf("ServiceTime = %v, want 3s", got)
	}

	mustOrder(t, d, Normal)
	mustAddBot(t, d)
	waitFor(t, "order claimed", func(s Snapshot) bool { return len(s.Processing) == 1 }, d)

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	waitFor(t, "completed with new duration", func(s Snapshot) bool { return len(s.Completed) == 1 }, d)
}
