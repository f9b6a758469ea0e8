package reactor

// mux is the pluggable readiness-engine backing a Reactor. The reference
// implementation (mux_linux.go) is epoll-flavoured; the abstraction
// itself doesn't preclude a kqueue or IOCP implementation.
type mux interface {
	add(fd int, interest Flags) error
	mod(fd int, interest Flags) error
	del(fd int) error
	poll(timeoutMs int) error
	next() (fd int, flags Flags, ok bool)
	close() error
}
