package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	stlerr "github.com/kkkunny/stl/error"
	stlval "github.com/kkkunny/stl/value"
)

var ErrUnknownChunkType = errors.New("unknown chunk type")

type ChunkType string

const (
	ChunkTypeStart               ChunkType = "start"
	ChunkTypeStartStep           ChunkType = "start-step"
	ChunkTypeFinishStep          ChunkType = "finish-step"
	ChunkTypeTextStart           ChunkType = "text-start"
	ChunkTypeTextDelta           ChunkType = "text-delta"
	ChunkTypeTextEnd             ChunkType = "text-end"
	ChunkTypeToolInputStart      ChunkType = "tool-input-start"
	ChunkTypeToolInputDelta      ChunkType = "tool-input-delta"
	ChunkTypeToolInputAvailable  ChunkType = "tool-input-available"
	ChunkTypeToolOutputAvailable ChunkType = "tool-output-available"
	ChunkTypeToolOutputError     ChunkType = "tool-output-error"
	ChunkTypeFinish              ChunkType = "finish"
	ChunkTypeError               ChunkType = "error"
)

// Chunk UI消息流的一帧
type Chunk struct {
	Type           ChunkType       `json:"type"`
	MessageID      *string         `json:"messageId,omitempty"`      // only ChunkTypeStart
	ID             *string         `json:"id,omitempty"`             // only ChunkTypeText*
	Delta          *string         `json:"delta,omitempty"`          // only ChunkTypeTextDelta
	Text           *string         `json:"text,omitempty"`           // only ChunkTypeTextDelta, legacy spelling of Delta
	ToolCallID     *string         `json:"toolCallId,omitempty"`     // only ChunkTypeTool*
	ToolName       *string         `json:"toolName,omitempty"`       // only ChunkTypeToolInputStart || ChunkTypeToolInputAvailable
	InputTextDelta *string         `json:"inputTextDelta,omitempty"` // only ChunkTypeToolInputDelta
	Input          json.RawMessage `json:"input,omitempty"`          // only ChunkTypeToolInputAvailable
	Output         json.RawMessage `json:"output,omitempty"`         // only ChunkTypeToolOutputAvailable
	ErrorText      *string         `json:"errorText,omitempty"`      // only ChunkTypeError || ChunkTypeToolOutputError
	FinishReason   *string         `json:"finishReason,omitempty"`   // only ChunkTypeFinish
}

// Event 转换为事件
func (c *Chunk) Event() (Event, error) {
	switch c.Type {
	case ChunkTypeStart:
		return StartEvent{MessageID: stlval.DerefPtrOr(c.MessageID)}, nil
	case ChunkTypeStartStep, ChunkTypeFinishStep:
		return StepEvent{Finish: c.Type == ChunkTypeFinishStep}, nil
	case ChunkTypeTextStart:
		return TextStartEvent{ID: stlval.DerefPtrOr(c.ID)}, nil
	case ChunkTypeTextDelta:
		delta := stlval.DerefPtrOr(c.Delta)
		if c.Delta == nil {
			delta = stlval.DerefPtrOr(c.Text)
		}
		return TextDeltaEvent{ID: stlval.DerefPtrOr(c.ID), Delta: delta}, nil
	case ChunkTypeTextEnd:
		return TextEndEvent{ID: stlval.DerefPtrOr(c.ID)}, nil
	case ChunkTypeToolInputStart:
		if err := c.requireToolCallID(); err != nil {
			return nil, err
		}
		return ToolInputStartEvent{ToolCallID: *c.ToolCallID, ToolName: stlval.DerefPtrOr(c.ToolName)}, nil
	case ChunkTypeToolInputDelta:
		if err := c.requireToolCallID(); err != nil {
			return nil, err
		}
		return ToolInputDeltaEvent{ToolCallID: *c.ToolCallID, InputTextDelta: stlval.DerefPtrOr(c.InputTextDelta)}, nil
	case ChunkTypeToolInputAvailable:
		if err := c.requireToolCallID(); err != nil {
			return nil, err
		}
		return ToolInputAvailableEvent{ToolCallID: *c.ToolCallID, ToolName: stlval.DerefPtrOr(c.ToolName), Input: c.Input}, nil
	case ChunkTypeToolOutputAvailable:
		if err := c.requireToolCallID(); err != nil {
			return nil, err
		}
		return ToolOutputAvailableEvent{ToolCallID: *c.ToolCallID, Output: c.Output}, nil
	case ChunkTypeToolOutputError:
		if err := c.requireToolCallID(); err != nil {
			return nil, err
		}
		return ToolOutputErrorEvent{ToolCallID: *c.ToolCallID, ErrorText: stlval.DerefPtrOr(c.ErrorText)}, nil
	case ChunkTypeFinish:
		return FinishEvent{FinishReason: stlval.DerefPtrOr(c.FinishReason)}, nil
	case ChunkTypeError:
		return ErrorEvent{ErrorText: stlval.DerefPtrOr(c.ErrorText)}, nil
	default:
		return nil, stlerr.ErrorWrap(fmt.Errorf("%w `%s`", ErrUnknownChunkType, c.Type))
	}
}

func (c *Chunk) requireToolCallID() error {
	if stlval.DerefPtrOr(c.ToolCallID) == "" {
		return stlerr.Errorf("chunk `%s` without toolCallId", c.Type)
	}
	return nil
}

// NewChunk 由事件构造帧，服务端发送时使用
func NewChunk(evt Event) *Chunk {
	switch e := evt.(type) {
	case StartEvent:
		return &Chunk{Type: ChunkTypeStart, MessageID: optional(e.MessageID)}
	case StepEvent:
		return &Chunk{Type: stlval.Ternary(e.Finish, ChunkTypeFinishStep, ChunkTypeStartStep)}
	case TextStartEvent:
		return &Chunk{Type: ChunkTypeTextStart, ID: optional(e.ID)}
	case TextDeltaEvent:
		return &Chunk{Type: ChunkTypeTextDelta, ID: optional(e.ID), Delta: stlval.Ptr(e.Delta)}
	case TextEndEvent:
		return &Chunk{Type: ChunkTypeTextEnd, ID: optional(e.ID)}
	case ToolInputStartEvent:
		return &Chunk{Type: ChunkTypeToolInputStart, ToolCallID: stlval.Ptr(e.ToolCallID), ToolName: stlval.Ptr(e.ToolName)}
	case ToolInputDeltaEvent:
		return &Chunk{Type: ChunkTypeToolInputDelta, ToolCallID: stlval.Ptr(e.ToolCallID), InputTextDelta: stlval.Ptr(e.InputTextDelta)}
	case ToolInputAvailableEvent:
		return &Chunk{Type: ChunkTypeToolInputAvailable, ToolCallID: stlval.Ptr(e.ToolCallID), ToolName: stlval.Ptr(e.ToolName), Input: e.Input}
	case ToolOutputAvailableEvent:
		return &Chunk{Type: ChunkTypeToolOutputAvailable, ToolCallID: stlval.Ptr(e.ToolCallID), Output: e.Output}
	case ToolOutputErrorEvent:
		return &Chunk{Type: ChunkTypeToolOutputError, ToolCallID: stlval.Ptr(e.ToolCallID), ErrorText: stlval.Ptr(e.ErrorText)}
	case FinishEvent:
		return &Chunk{Type: ChunkTypeFinish, FinishReason: optional(e.FinishReason)}
	case ErrorEvent:
		return &Chunk{Type: ChunkTypeError, ErrorText: stlval.Ptr(e.ErrorText)}
	default:
		panic("unreachable")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
