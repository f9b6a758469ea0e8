//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// epollMux is the reference mux implementation, grounded on epoll.
// eventBuf is preallocated once and reused across every poll call.
type epollMux struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
	ready    int
	cursor   int
}

func newMux() (mux, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMux{epfd: fd}, nil
}

func flagsToEpoll(f Flags) uint32 {
	var e uint32
	if f&Read != 0 {
		e |= unix.EPOLLIN | unix.EPOLLPRI
	}
	if f&Write != 0 {
		e |= unix.EPOLLOUT
	}
	if f&Once != 0 {
		e |= unix.EPOLLONESHOT
	}
	return e
}

func epollToFlags(e uint32) Flags {
	var f Flags
	if e&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		f |= Read
	}
	if e&unix.EPOLLOUT != 0 {
		f |= Write
	}
	if e&unix.EPOLLERR != 0 {
		f |= Error
	}
	return f
}

func (m *epollMux) add(fd int, interest Flags) error {
	ev := &unix.EpollEvent{Events: flagsToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (m *epollMux) mod(fd int, interest Flags) error {
	ev := &unix.EpollEvent{Events: flagsToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (m *epollMux) del(fd int) error {
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (m *epollMux) poll(timeoutMs int) error {
	for {
		n, err := unix.EpollWait(m.epfd, m.eventBuf[:], timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		m.ready = n
		m.cursor = 0
		return nil
	}
}

func (m *epollMux) next() (int, Flags, bool) {
	if m.cursor >= m.ready {
		return 0, 0, false
	}
	ev := m.eventBuf[m.cursor]
	m.cursor++
	return int(ev.Fd), epollToFlags(ev.Events), true
}

func (m *epollMux) close() error {
	return unix.Close(m.epfd)
}
