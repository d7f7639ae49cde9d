package desk

import (
	"time"
)

// Priority is the tier of an order. VIP orders are always dispatched before
// Normal ones.
type Priority int

const (
	Normal Priority = iota
	VIP
)

func (p Priority) String() string {
	switch p {
	case VIP:
		return "VIP"
	case Normal:
		return "NORMAL"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of an order.
type State int

const (
	Pending    State = iota // waiting in a tier queue
	Processing              // claimed by exactly one bot
	Completed               // served for the full duration, terminal
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Processing:
		return "PROCESSING"
	case Completed:
		return "COMPLETE"
	default:
		return "unknown"
	}
}

// Order is the unit of work flowing through the desk.
//
// An order is in exactly one place at any time: a tier queue while Pending,
// held by one bot while Processing, and on the completed list thereafter.
type Order struct {
	ID       int64
	Priority Priority
	Seq      uint64 // creation sequence; FIFO tie-break within a tier
	State    State
	Bot      int64 // serving bot id; 0 unless Processing

	CreatedAt   time.Time
	CompletedAt time.Time

	// ClaimSeq is the sequence in which a bot last claimed this order.
	// It is the deterministic tie-break for completions that land on the
	// same clock instant.
	ClaimSeq uint64

	// Requeues counts interrupted serves (bot removed mid-service).
	Requeues int
}

// Config controls the desk core.
type Config struct {
	// ServiceTime is the fixed duration every order is served for.
	ServiceTime time.Duration
}

const DefaultServiceTime = 10 * time.Second

func (c Config) withDefaults() Config {
	if c.ServiceTime <= 0 {
		c.ServiceTime = DefaultServiceTime
	}
	return c
}

// ---- Event payloads (published on the bus) ----

type OrderEvent struct {
	ID       int64  `json:"id"`
	Tier     string `json:"tier"`
	Bot      int64  `json:"bot,omitempty"`
	Seq      uint64 `json:"seq"`
	Requeues int    `json:"requeues,omitempty"`
}

type BotEvent struct {
	ID    int64 `json:"id"`
	Total int   `json:"total"` // pool size after the change
}

type InvariantEvent struct {
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
