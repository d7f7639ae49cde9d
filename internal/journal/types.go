package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal.
//
// Driver values:
//   - "file": dependency-free JSONL append
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one desk event. Keep it compact and schema-stable.
type Entry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	OrderID int64     `json:"order_id,omitempty"`
	Tier    string    `json:"tier,omitempty"`
	Bot     int64     `json:"bot,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}
