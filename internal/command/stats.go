package command

import "time"

// Stats are per-command execution counters.
type Stats struct {
	Total   uint64
	Success uint64
	Failure uint64
	// AvgDuration is a cumulative moving average of handler run time.
	AvgDuration time.Duration
}

func (s *Stats) record(ok bool, d time.Duration) {
	s.Total++
	if ok {
		s.Success++
	} else {
		s.Failure++
	}
	s.AvgDuration += (d - s.AvgDuration) / time.Duration(s.Total)
}

// HistoryEntry is one executed command in an actor's history.
type HistoryEntry struct {
	Command string
	Line    string
	Status  Status
	At      time.Time
}

// history is a fixed-size ring of the most recent entries.
type history struct {
	entries []HistoryEntry
	next    int
	full    bool
}

func newHistory(size int) *history {
	return &history{entries: make([]HistoryEntry, size)}
}

func (h *history) add(e HistoryEntry) {
	if len(h.entries) == 0 {
		return
	}
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// list returns the entries oldest first.
func (h *history) list() []HistoryEntry {
	if !h.full {
		out := make([]HistoryEntry, h.next)
		copy(out, h.entries[:h.next])
		return out
	}
	out := make([]HistoryEntry, 0, len(h.entries))
	out = append(out, h.entries[h.next:]...)
	return append(out, h.entries[:h.next]...)
}
