package tutor

import (
	"encoding/json"

	stlerr "github.com/kkkunny/stl/error"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

// Reducer 把事件逐个折叠进助手消息
type Reducer struct {
	msg    *dto.Message
	last   *dto.Message
	done   bool
	failed bool
}

func NewReducer(msg *dto.Message) *Reducer {
	if msg == nil {
		msg = dto.NewAssistantMessage("")
	}
	msg = msg.Clone()
	if msg.Role == "" {
		msg.Role = dto.RoleAssistant
	}
	return &Reducer{msg: msg, last: msg.Clone()}
}

// Fold 折叠一个事件并返回快照
func (r *Reducer) Fold(evt dto.Event) (*dto.Message, error) {
	if r.done || r.failed {
		return nil, stlerr.ErrorWrap(ErrStreamClosed)
	}

	switch e := evt.(type) {
	case dto.StartEvent:
		if r.msg.ID == "" {
			r.msg.ID = e.MessageID
		}
	case dto.StepEvent:
	case dto.TextStartEvent:
		r.msg.Parts = append(r.msg.Parts, &dto.TextPart{State: dto.TextStateStreaming})
	case dto.TextDeltaEvent:
		if text, ok := r.lastText(); ok {
			text.Text += e.Delta
		} else {
			r.msg.Parts = append(r.msg.Parts, &dto.TextPart{Text: e.Delta, State: dto.TextStateStreaming})
		}
	case dto.TextEndEvent:
		if text, ok := r.lastText(); ok {
			text.State = dto.TextStateDone
		}
	case dto.ToolInputStartEvent:
		r.toolPart(e.ToolCallID, e.ToolName)
	case dto.ToolInputDeltaEvent:
		part := r.toolPart(e.ToolCallID, "")
		if part.State != dto.ToolStateInputStreaming {
			_ = config.Logger.Warnf("ignore input delta for tool call `%s` in state `%s`", e.ToolCallID, part.State)
			break
		}
		part.InputText += e.InputTextDelta
		if json.Valid([]byte(part.InputText)) {
			part.Input = json.RawMessage(part.InputText)
		}
	case dto.ToolInputAvailableEvent:
		part := r.toolPart(e.ToolCallID, e.ToolName)
		part.State = dto.ToolStateInputAvailable
		if len(e.Input) > 0 {
			part.Input = e.Input
		} else if json.Valid([]byte(part.InputText)) {
			part.Input = json.RawMessage(part.InputText)
		}
	case dto.ToolOutputAvailableEvent:
		part := r.toolPart(e.ToolCallID, "")
		part.State = dto.ToolStateOutputAvailable
		part.Output = e.Output
	case dto.ToolOutputErrorEvent:
		part := r.toolPart(e.ToolCallID, "")
		part.State = dto.ToolStateOutputError
		part.ErrorText = e.ErrorText
	case dto.FinishEvent:
		r.done = true
		for _, part := range r.msg.Parts {
			if text, ok := part.(*dto.TextPart); ok {
				text.State = dto.TextStateDone
			}
		}
	case dto.ErrorEvent:
		r.failed = true
		return nil, &StreamError{Text: e.ErrorText}
	default:
		_ = config.Logger.Warnf("unknown ui message event %T", evt)
		return r.last.Clone(), nil
	}

	r.last = r.msg.Clone()
	return r.last.Clone(), nil
}

// Last 最后一个完整快照，返回副本
func (r *Reducer) Last() *dto.Message {
	return r.last.Clone()
}

// Done 是否已收到finish
func (r *Reducer) Done() bool {
	return r.done
}

func (r *Reducer) lastText() (*dto.TextPart, bool) {
	if len(r.msg.Parts) == 0 {
		return nil, false
	}
	text, ok := r.msg.Parts[len(r.msg.Parts)-1].(*dto.TextPart)
	return text, ok
}

// toolPart 同一调用ID只对应一个片段
func (r *Reducer) toolPart(toolCallID, toolName string) *dto.ToolPart {
	part, ok := r.msg.ToolPart(toolCallID)
	if !ok {
		part = &dto.ToolPart{ToolCallID: toolCallID, State: dto.ToolStateInputStreaming}
		r.msg.Parts = append(r.msg.Parts, part)
	}
	if toolName != "" {
		part.ToolName = toolName
	}
	return part
}
