package transport

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by OpenConsole when standard input is not a
// terminal. A redirected or closed stdin reads as ready immediately, which
// would end the sync bursts before the device is listening.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Console watches standard input for an operator keypress without blocking.
// Standard input is switched to raw mode so a single key is enough; Close
// restores it.
type Console struct {
	fd       int
	oldState *term.State
	keys     chan struct{}
}

// OpenConsole prepares standard input for KeyPressed. It fails with
// ErrNotTerminal when stdin is redirected.
func OpenConsole() (*Console, error) {
	return openConsole(int(os.Stdin.Fd()))
}

func openConsole(fd int) (*Console, error) {
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "console raw mode")
	}

	c := &Console{fd: fd, oldState: state}
	c.start()
	return c, nil
}

// KeyPressed reports whether a key was pressed since the last call.
// The key is consumed.
func (c *Console) KeyPressed() bool {
	return c.poll()
}

// Close restores the terminal mode.
func (c *Console) Close() error {
	if c.oldState == nil {
		return nil
	}
	return errors.Wrap(term.Restore(c.fd, c.oldState), "restore console")
}
