package timeline

import "time"

// NewSessionWithIdle shortens input idle polling for tests.
func NewSessionWithIdle(d Desktop, processName string, polls int, interval time.Duration) *Session {
	s := NewSession(d, processName)
	s.idlePolls = polls
	s.idleInterval = interval
	return s
}
