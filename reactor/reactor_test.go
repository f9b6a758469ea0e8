package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	require.NoError(t, unix.SetNonblock(fds[1], true))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestSocketEventBecomesPendableOnWrite(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	a, b := newPipe(t)
	ev := NewSocketEvent(a, Read, false, "conn")
	require.NoError(t, r.Add(ev))

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	popped := r.PopEvent()
	require.NotNil(t, popped)
	require.Same(t, ev, popped)
	require.NotZero(t, popped.ResultFlags()&Read)
	require.Equal(t, "conn", popped.UserData())
	require.Nil(t, r.PopEvent())
}

func TestOnceSocketEventStaysAttachedUntilRemoved(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	a, b := newPipe(t)
	ev := NewSocketEvent(a, Read, true, nil)
	require.NoError(t, r.Add(ev))

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	popped := r.PopEvent()
	require.Same(t, ev, popped)
	require.True(t, ev.Reacting(), "a ONCE socket stays registered after firing; only a fresh EPOLLONESHOT delivery is suppressed")

	// EPOLLONESHOT suppressed further delivery for a until it's re-armed;
	// the write below sits unreported until Modify re-arms the fd.
	_, err = unix.Write(b, []byte("y"))
	require.NoError(t, err)
	require.NoError(t, r.Modify(ev))

	n, err = r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	popped = r.PopEvent()
	require.Same(t, ev, popped)
	require.True(t, ev.Reacting())

	r.Remove(ev)
	require.False(t, ev.Reacting())
}

func TestAddDuplicateFDFails(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	a, _ := newPipe(t)
	require.NoError(t, r.Add(NewSocketEvent(a, Read, false, nil)))
	require.ErrorIs(t, r.Add(NewSocketEvent(a, Read, false, nil)), ErrExists)
}

func TestAddAlreadyAttachedFails(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewObjectEvent(nil)
	require.NoError(t, r.Add(ev))
	require.ErrorIs(t, r.Add(ev), ErrAlready)
}

func TestTimerEventOnceFiresAndDrops(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewTimerEvent(5, false, true, nil)
	require.NoError(t, r.Add(ev))

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, ev.Reacting())

	popped := r.PopEvent()
	require.Same(t, ev, popped)
}

func TestTimerEventRepeatsUntilRemoved(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewTimerEvent(5, false, false, nil)
	require.NoError(t, r.Add(ev))

	for i := 0; i < 3; i++ {
		n, err := r.Wait()
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.True(t, ev.Reacting())
		require.NotNil(t, r.PopEvent())
	}
	r.Remove(ev)
	require.False(t, ev.Reacting())
}

func TestTimerEventAccurateDoesNotDriftBehind(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewTimerEvent(5, true, false, nil)
	require.NoError(t, r.Add(ev))
	before := ev.expiration

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NotNil(t, r.PopEvent())
	require.True(t, ev.expiration.After(before))
	r.Remove(ev)
}

func TestObjectEventPendsOnNonZeroResultFlags(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewObjectEvent("widget")
	require.NoError(t, r.Add(ev))
	ev.SetResultFlags(Read)

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	popped := r.PopEvent()
	require.Same(t, ev, popped)
	require.Equal(t, "widget", popped.UserData())
}

func TestPendInsertsDirectly(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewObjectEvent(nil)
	require.NoError(t, r.Add(ev))
	r.Pend(ev, Write)

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	popped := r.PopEvent()
	require.Same(t, ev, popped)
	require.Equal(t, Write, popped.ResultFlags())
}

func TestBreakReturnsZeroOnce(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	r.Break()
	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, n)

	ev := NewTimerEvent(5, false, true, nil)
	require.NoError(t, r.Add(ev))
	n, err = r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSignalReturnsAndWaitPendsFlaggedObject(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	done := make(chan struct{})
	go func() {
		r.Signal()
		close(done)
	}()

	ev := NewObjectEvent(nil)
	require.NoError(t, r.Add(ev))
	ev.SetResultFlags(Read)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signal goroutine did not return")
	}

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveBeforeFireDetachesTimer(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	ev := NewTimerEvent(100000, false, false, nil)
	require.NoError(t, r.Add(ev))
	r.Remove(ev)
	require.False(t, ev.Reacting())
	// removing twice is a no-op
	r.Remove(ev)
}

func TestModifyRepositionsTimer(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	slow := NewTimerEvent(100000, false, false, nil)
	fast := NewTimerEvent(100000, false, true, nil)
	require.NoError(t, r.Add(slow))
	require.NoError(t, r.Add(fast))

	fast.intervalMs = 5
	require.NoError(t, r.Modify(fast))

	n, err := r.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	popped := r.PopEvent()
	require.Same(t, fast, popped)
	r.Remove(slow)
}

func TestMetricsRecordsWaits(t *testing.T) {
	m := NewMetrics()
	r, err := New(WithMetrics(m))
	require.NoError(t, err)
	defer r.Close()

	ev := NewTimerEvent(5, false, true, nil)
	require.NoError(t, r.Add(ev))
	_, err = r.Wait()
	require.NoError(t, err)

	snap := m.Snapshot()
	require.Equal(t, int64(1), snap.Waits)
	require.Equal(t, int64(1), snap.TotalPending)
}

func TestWaitOnClosedReactorErrors(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = r.Wait()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, r.Close(), ErrClosed)
}
