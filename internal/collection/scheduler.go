package collection

import "time"

// Timer is the handle of a scheduled write.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The default wraps time.AfterFunc; tests
// substitute a manual scheduler to fire pending writes deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler returns the wall-clock scheduler.
func RealScheduler() Scheduler {
	return realScheduler{}
}
