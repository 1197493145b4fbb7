package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoSender is returned when Schedule is called without a Sender.
var ErrNoSender = errors.New("dispatch: no sender")

// SendError wraps a Sender failure with the action that failed. The run stops at that action.
type SendError struct {
	Kind  Kind
	Index int
	Err   error
}

func (e *SendError) Error() string {
	if e.Kind == KindHint {
		return fmt.Sprintf("dispatch: send start hint: %v", e.Err)
	}
	return fmt.Sprintf("dispatch: send segment %d: %v", e.Index, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
