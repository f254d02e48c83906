package leaktest

import (
	"testing"
)

// recordingTB captures Errorf instead of failing the real test
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.failed = true
}

func TestCheckNoGoroutineLeak_FinishedGoroutine(t *testing.T) {
	CheckNoGoroutineLeak(t, func() {
		done := make(chan struct{})
		go func() { close(done) }()
		<-done
	})
}

func TestGoroutineChecker_DetectsLeak(t *testing.T) {
	rec := &recordingTB{TB: t}
	checker := NewGoroutineChecker(rec)

	stop := make(chan struct{})
	go func() { <-stop }()

	checker.Check(0)
	close(stop)

	if !rec.failed {
		t.Error("expected checker to report the blocked goroutine")
	}
}
