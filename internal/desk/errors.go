package desk

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned by RemoveBot when there is no bot to remove.
// It is an operator-facing condition, not a scheduler fault.
var ErrEmptyPool = errors.New("no bot to remove")

// ErrStopped is returned by operations on a desk that has been shut down.
var ErrStopped = errors.New("desk stopped")

// InvariantError reports an order found in an unexpected state during a
// transition. It indicates a scheduler bug: the desk logs it, counts it,
// and publishes it on the bus rather than swallowing it.
type InvariantError struct {
	OrderID int64
	From    State // state the order was actually in
	To      State // state the transition tried to reach
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("order %d: illegal transition %s -> %s", e.OrderID, e.From, e.To)
}
