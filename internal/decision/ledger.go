// File: internal/decision/ledger.go
package decision

import (
	"sync"
	"time"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// Entry is one recorded decision. Reward stays 0 until feedback arrives and
// an entry receives feedback at most once.
type Entry struct {
	ID         string         `json:"id"`
	FrameID    string         `json:"frame_id,omitempty"`
	Action     schemas.Action `json:"action"`
	Priority   Priority       `json:"priority"`
	Confidence float64        `json:"confidence"`
	Success    bool           `json:"success"`
	Reward     float64        `json:"reward"`
	Resolved   bool           `json:"resolved"`
	ExecutedAt time.Time      `json:"executed_at"`

	State    *State    `json:"-"`
	Features []float64 `json:"-"`
}

// Ledger is a fixed-capacity FIFO of decisions backed by a ring buffer.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	head    int // index of the oldest entry
	size    int
}

// NewLedger creates a ledger holding at most capacity entries.
func NewLedger(capacity int) *Ledger {
	if capacity < 1 {
		capacity = 1
	}
	return &Ledger{entries: make([]Entry, capacity)}
}

// Cap is the maximum number of entries retained.
func (l *Ledger) Cap() int { return len(l.entries) }

// Len is the number of entries currently held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Append records e, evicting the oldest entry when full.
func (l *Ledger) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.size < len(l.entries) {
		l.entries[(l.head+l.size)%len(l.entries)] = e
		l.size++
		return
	}
	l.entries[l.head] = e
	l.head = (l.head + 1) % len(l.entries)
}

// at returns the i-th oldest slot. Callers hold the lock.
func (l *Ledger) at(i int) *Entry {
	return &l.entries[(l.head+i)%len(l.entries)]
}

// Resolve applies an outcome to the oldest unresolved entry accepted by
// match and returns a copy of it.
func (l *Ledger) Resolve(match func(*Entry) bool, success bool, reward float64) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < l.size; i++ {
		e := l.at(i)
		if e.Resolved || !match(e) {
			continue
		}
		e.Success = success
		e.Reward = reward
		e.Resolved = true
		return *e, true
	}
	return Entry{}, false
}

// Recent returns up to n of the newest entries, oldest first.
func (l *Ledger) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > l.size {
		n = l.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, n)
	for i := l.size - n; i < l.size; i++ {
		out = append(out, *l.at(i))
	}
	return out
}

// SuccessRate is the share of entries of type t that succeeded. Entries with
// no feedback count as failures. matched is the number of entries of type t.
func (l *Ledger) SuccessRate(t schemas.ActionType) (rate float64, matched int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wins := 0
	for i := 0; i < l.size; i++ {
		e := l.at(i)
		if e.Action.Type != t {
			continue
		}
		matched++
		if e.Resolved && e.Success {
			wins++
		}
	}
	if matched == 0 {
		return 0, 0
	}
	return float64(wins) / float64(matched), matched
}
