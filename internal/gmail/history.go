package gmail

import (
	"fmt"
	"strconv"
	"sync"
)

// HistoryState remembers the newest mailbox history id seen. Updates only
// move it forward; ids that are not numbers replace it outright.
type HistoryState struct {
	mu   sync.Mutex
	last string
}

// NewHistoryState starts from initial, which may be empty.
func NewHistoryState(initial string) *HistoryState {
	s := &HistoryState{}
	s.Advance(initial)
	return s
}

// Last returns the current history id, or "".
func (s *HistoryState) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Advance records id. Empty ids and "0" are ignored.
func (s *HistoryState) Advance(id string) {
	if id == "" || id == "0" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == "" {
		s.last = id
		return
	}
	curr, errCurr := strconv.ParseUint(s.last, 10, 64)
	next, errNext := strconv.ParseUint(id, 10, 64)
	if errCurr != nil || errNext != nil {
		s.last = id
		return
	}
	if next > curr {
		s.last = id
	}
}

func parseHistoryID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid history id %q: %w", id, err)
	}
	return n, nil
}
