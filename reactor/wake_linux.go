//go:build linux

package reactor

import "golang.org/x/sys/unix"

// createWake opens an eventfd to serve as both ends of the reactor's wake
// self-pipe (the source uses an actual socket pair; eventfd is Linux's
// native single-fd equivalent and is what the mux registers for
// readability).
func createWake() (readFD, writeFD int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

// signalWake writes one unit to the wake fd, waking a blocked poll. EAGAIN
// (the counter is already non-zero, or saturated) is not an error: the
// poller is already guaranteed to observe readability.
func signalWake(writeFD int) {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(writeFD, buf[:])
	if err != nil && err != unix.EAGAIN {
		_ = err // best-effort; a failed wake only costs latency, not correctness
	}
}

// drainWake reads and discards every pending wake-up unit.
func drainWake(readFD int) {
	var buf [8]byte
	for {
		_, err := unix.Read(readFD, buf[:])
		if err != nil {
			return
		}
	}
}

func closeWake(fd int) error {
	return unix.Close(fd)
}
