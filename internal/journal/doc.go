// Package journal appends order lifecycle events to a local audit trail
// (JSONL file or SQLite). It is write-only: the desk never reads it back,
// so a restart always begins from an empty schedule.
package journal
