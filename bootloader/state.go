package bootloader

import "fmt"

// State is a stage of the transfer sequence.
// A transfer moves strictly forward: Idle, Erasing, Writing, Finishing, Done.
type State int

const (
	StateIdle State = iota
	StateErasing
	StateWriting
	StateFinishing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateErasing:
		return "erasing"
	case StateWriting:
		return "writing"
	case StateFinishing:
		return "finishing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
