package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/paperquery/internal/intent"
)

// HistoryEntry is one answered query.
type HistoryEntry struct {
	Query  string        `json:"query"`
	Intent intent.Intent `json:"intent"`
	Answer string        `json:"answer"`
	At     time.Time     `json:"at"`
}

// History keeps the most recent answered queries, oldest dropped first.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	max     int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 10
	}
	return &History{max: max}
}

func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Entries returns a copy, newest last.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
