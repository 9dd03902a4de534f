package syncengine

import "time"

// timerSlot holds at most one pending timer: scheduling replaces whatever
// was pending, cancel stops it. The engine owns two slots (debounce, retry)
// and touches them only under its lock.
type timerSlot struct {
	t *time.Timer
}

func (s *timerSlot) schedule(d time.Duration, fn func()) {
	s.cancel()
	s.t = time.AfterFunc(d, fn)
}

func (s *timerSlot) cancel() {
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
}
