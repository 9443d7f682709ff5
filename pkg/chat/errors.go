package chat

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrSendFailed     = errors.New("assistant did not reply")
)

// SendError is returned when the assistant call fails. The optimistic message
// has already been rolled back; Draft carries the text so it can be retried.
type SendError struct {
	Draft string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSendFailed.Error(), e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func (e *SendError) Is(target error) bool {
	return target == ErrSendFailed
}
