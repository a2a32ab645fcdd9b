//go:build !linux && !darwin

package transport

import "os"

func (c *Console) start() {
	c.keys = make(chan struct{}, 1)
	go func() {
		var b [1]byte
		_, _ = os.Stdin.Read(b[:])
		c.keys <- struct{}{}
	}()
}

func (c *Console) poll() bool {
	select {
	case <-c.keys:
		return true
	default:
		return false
	}
}
