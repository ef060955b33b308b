package dto

import "encoding/json"

// Event 单帧解码后的流事件
type Event interface {
	event()
}

type StartEvent struct {
	MessageID string
}

type TextStartEvent struct {
	ID string
}

type TextDeltaEvent struct {
	ID    string
	Delta string
}

type TextEndEvent struct {
	ID string
}

type ToolInputStartEvent struct {
	ToolCallID string
	ToolName   string
}

type ToolInputDeltaEvent struct {
	ToolCallID     string
	InputTextDelta string
}

type ToolInputAvailableEvent struct {
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
}

type ToolOutputAvailableEvent struct {
	ToolCallID string
	Output     json.RawMessage
}

type ToolOutputErrorEvent struct {
	ToolCallID string
	ErrorText  string
}

// StepEvent start-step / finish-step, folds to nothing
type StepEvent struct {
	Finish bool
}

type FinishEvent struct {
	FinishReason string
}

type ErrorEvent struct {
	ErrorText string
}

func (StartEvent) event()               {}
func (TextStartEvent) event()           {}
func (TextDeltaEvent) event()           {}
func (TextEndEvent) event()             {}
func (ToolInputStartEvent) event()      {}
func (ToolInputDeltaEvent) event()      {}
func (ToolInputAvailableEvent) event()  {}
func (ToolOutputAvailableEvent) event() {}
func (ToolOutputErrorEvent) event()     {}
func (StepEvent) event()                {}
func (FinishEvent) event()              {}
func (ErrorEvent) event()               {}

var (
	_ Event = StartEvent{}
	_ Event = TextStartEvent{}
	_ Event = TextDeltaEvent{}
	_ Event = TextEndEvent{}
	_ Event = ToolInputStartEvent{}
	_ Event = ToolInputDeltaEvent{}
	_ Event = ToolInputAvailableEvent{}
	_ Event = ToolOutputAvailableEvent{}
	_ Event = ToolOutputErrorEvent{}
	_ Event = StepEvent{}
	_ Event = FinishEvent{}
	_ Event = ErrorEvent{}
)
