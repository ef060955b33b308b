package tutor

import (
	"errors"
	"fmt"
)

var (
	ErrStreamClosed     = errors.New("ui message stream already closed")
	ErrTurnInProgress   = errors.New("a chat turn is already in progress")
	ErrInvalidToolInput = errors.New("invalid tool input")
	ErrUnknownTool      = errors.New("unknown tool")
)

// StreamError 流中的error事件
type StreamError struct {
	Text string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("ui message stream error: %s", e.Text)
}
