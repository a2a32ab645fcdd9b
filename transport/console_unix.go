//go:build linux || darwin

package transport

import "golang.org/x/sys/unix"

func (c *Console) start() {}

func (c *Console) poll() bool {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return false
	}

	// a hangup counts as a keypress so a lost terminal ends the wait
	var b [1]byte
	_, _ = unix.Read(c.fd, b[:])
	return true
}
