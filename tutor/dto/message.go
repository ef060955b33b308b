package dto

import (
	"encoding/json"
	"strings"

	stlslices "github.com/kkkunny/stl/container/slices"
)

const RoleAssistant = "assistant"

type TextState string

const (
	TextStateStreaming TextState = "streaming"
	TextStateDone      TextState = "done"
)

type ToolState string

const (
	ToolStateInputStreaming  ToolState = "input-streaming"
	ToolStateInputAvailable  ToolState = "input-available"
	ToolStateOutputAvailable ToolState = "output-available"
	ToolStateOutputError     ToolState = "output-error"
)

// Part 消息内容片段
type Part interface {
	clonePart() Part
}

// TextPart 文本片段
type TextPart struct {
	Text  string
	State TextState
}

func (p *TextPart) clonePart() Part {
	cp := *p
	return &cp
}

// ToolPart 工具调用片段
type ToolPart struct {
	ToolCallID string
	ToolName   string
	State      ToolState
	InputText  string // 流式累积的原始输入
	Input      json.RawMessage
	Output     json.RawMessage
	ErrorText  string
}

func (p *ToolPart) clonePart() Part {
	cp := *p
	cp.Input = cloneRaw(p.Input)
	cp.Output = cloneRaw(p.Output)
	return &cp
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// Message 一轮助手消息
type Message struct {
	ID    string
	Role  string
	Parts []Part
}

func NewAssistantMessage(id string) *Message {
	return &Message{ID: id, Role: RoleAssistant}
}

// Clone 深拷贝，快照之间互不影响
func (m *Message) Clone() *Message {
	return &Message{
		ID:   m.ID,
		Role: m.Role,
		Parts: stlslices.Map(m.Parts, func(_ int, part Part) Part {
			return part.clonePart()
		}),
	}
}

// Text 拼接全部文本片段
func (m *Message) Text() string {
	var sb strings.Builder
	for _, part := range m.Parts {
		if text, ok := part.(*TextPart); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

func (m *Message) ToolParts() []*ToolPart {
	var parts []*ToolPart
	for _, part := range m.Parts {
		if tool, ok := part.(*ToolPart); ok {
			parts = append(parts, tool)
		}
	}
	return parts
}

// ToolPart 按调用ID查找
func (m *Message) ToolPart(toolCallID string) (*ToolPart, bool) {
	for _, part := range m.Parts {
		if tool, ok := part.(*ToolPart); ok && tool.ToolCallID == toolCallID {
			return tool, true
		}
	}
	return nil, false
}
