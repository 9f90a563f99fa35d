package session

import (
	"sync"
	"time"
)

// Clock is the time source of a session. Every runs fn every d until the
// returned stop function is called.
type Clock interface {
	Now() time.Time
	Every(d time.Duration, fn func()) (stop func())
}

// SystemClock is the wall clock backed by time.Ticker.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Every starts a ticker goroutine. stop is idempotent and returns without
// waiting for an in-flight fn; callers discard late ticks themselves.
func (SystemClock) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}
