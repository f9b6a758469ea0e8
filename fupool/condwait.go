package fupool

import (
	"sync"
	"time"
)

// waitFor blocks on cond (whose Locker is already held by the caller)
// until pred reports done, or timeoutMsec elapses. timeoutMsec < 0 means
// wait indefinitely; 0 means check pred once and return immediately.
// pred is called with the lock held and must not block.
func waitFor(mu *sync.Mutex, cond *sync.Cond, timeoutMsec int, pred func() (result int, done bool)) (int, error) {
	if r, done := pred(); done {
		return r, nil
	}
	if timeoutMsec == 0 {
		return -1, ErrTimeout
	}

	deadline := time.Now().Add(time.Duration(timeoutMsec) * time.Millisecond)
	var timer *time.Timer
	if timeoutMsec > 0 {
		timer = time.AfterFunc(time.Duration(timeoutMsec)*time.Millisecond, func() {
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		})
		defer timer.Stop()
	}

	for {
		cond.Wait()
		if r, done := pred(); done {
			return r, nil
		}
		if timeoutMsec > 0 && !time.Now().Before(deadline) {
			return -1, ErrTimeout
		}
	}
}
