package diagnosis

import (
	"sync"
	"time"
)

type IDGenerator interface {
	Next() int64
}

// ClockSequence issues millisecond timestamps, bumped by one whenever the
// clock has not advanced past the previous id. Values stay well inside the
// 2^53 range JSON clients can represent exactly.
type ClockSequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockSequence(now func() time.Time) *ClockSequence {
	if now == nil {
		now = time.Now
	}
	return &ClockSequence{now: now}
}

func (s *ClockSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
