package orchestrator

import "time"

// notifyAfter fires onTimeout exactly once if d elapses before done closes.
// It never cancels the underlying work; the caller's goroutine keeps
// running to completion either way. If both resolve near-simultaneously
// the select picks one arm, so a finished pipeline cannot also produce a
// notice.
func notifyAfter(done <-chan struct{}, d time.Duration, onTimeout func()) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		onTimeout()
	}
}
