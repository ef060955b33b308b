package handler

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	stlval "github.com/kkkunny/stl/value"
	"github.com/sashabaranov/go-openai"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/internal/sse"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

const streamErrorText = "An error occurred while generating the response."

type toolCall struct {
	id      string
	name    string
	args    strings.Builder
	started bool
}

// chunkStream 把模型的增量响应翻译为UI消息帧
type chunkStream struct {
	writer   *sse.Writer
	textID   string
	calls    map[int]*toolCall
	order    []int
	reason   openai.FinishReason
	finished bool
}

func newChunkStream(writer *sse.Writer) *chunkStream {
	return &chunkStream{writer: writer, calls: make(map[int]*toolCall)}
}

func (s *chunkStream) send(evt dto.Event) error {
	return s.writer.SendData(dto.NewChunk(evt))
}

func (s *chunkStream) handle(resp *openai.ChatCompletionStreamResponse) error {
	for _, choice := range resp.Choices {
		if choice.Index != 0 {
			continue
		}
		if choice.Delta.Content != "" {
			if err := s.text(choice.Delta.Content); err != nil {
				return err
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			if err := s.toolDelta(tc); err != nil {
				return err
			}
		}
		if choice.FinishReason != "" {
			s.reason = choice.FinishReason
		}
	}
	return nil
}

func (s *chunkStream) text(delta string) error {
	if s.textID == "" {
		s.textID = "text-" + uuid.NewString()
		if err := s.send(dto.TextStartEvent{ID: s.textID}); err != nil {
			return err
		}
	}
	return s.send(dto.TextDeltaEvent{ID: s.textID, Delta: delta})
}

func (s *chunkStream) endText() error {
	if s.textID == "" {
		return nil
	}
	id := s.textID
	s.textID = ""
	return s.send(dto.TextEndEvent{ID: id})
}

// toolDelta 参数片段按index聚合，id与名称都到齐后才开始转发
func (s *chunkStream) toolDelta(tc openai.ToolCall) error {
	idx := stlval.DerefPtrOr(tc.Index)
	call, ok := s.calls[idx]
	if !ok {
		call = new(toolCall)
		s.calls[idx] = call
		s.order = append(s.order, idx)
	}
	if call.id == "" {
		call.id = tc.ID
	}
	if call.name == "" {
		call.name = tc.Function.Name
	}
	call.args.WriteString(tc.Function.Arguments)

	if call.started {
		return s.sendArgs(call, tc.Function.Arguments)
	} else if call.id == "" || call.name == "" {
		return nil
	}
	if err := s.startTool(call); err != nil {
		return err
	}
	return s.sendArgs(call, call.args.String())
}

func (s *chunkStream) startTool(call *toolCall) error {
	if err := s.endText(); err != nil {
		return err
	}
	call.started = true
	return s.send(dto.ToolInputStartEvent{ToolCallID: call.id, ToolName: call.name})
}

func (s *chunkStream) sendArgs(call *toolCall, delta string) error {
	if delta == "" {
		return nil
	}
	return s.send(dto.ToolInputDeltaEvent{ToolCallID: call.id, InputTextDelta: delta})
}

// finish 结束文本，提交所有工具调用，然后写出finish与[DONE]
func (s *chunkStream) finish() error {
	if s.finished {
		return nil
	}
	s.finished = true

	if err := s.endText(); err != nil {
		return err
	}
	for _, idx := range s.order {
		call := s.calls[idx]
		if call.name == "" {
			_ = config.Logger.Warnf("drop tool call #%d without name", idx)
			continue
		}
		if !call.started {
			if call.id == "" {
				call.id = "call-" + uuid.NewString()
			}
			if err := s.startTool(call); err != nil {
				return err
			}
			if err := s.sendArgs(call, call.args.String()); err != nil {
				return err
			}
		}
		err := s.send(dto.ToolInputAvailableEvent{ToolCallID: call.id, ToolName: call.name, Input: toolInput(call.args.String())})
		if err != nil {
			return err
		}
	}
	if err := s.send(dto.FinishEvent{FinishReason: finishReason(s.reason)}); err != nil {
		return err
	}
	return s.writer.SendDone()
}

// fail 响应头已发出，错误只能以error帧告知客户端
func (s *chunkStream) fail(err error) error {
	_ = config.Logger.Error(err)
	if s.finished {
		return nil
	}
	s.finished = true
	if err = s.send(dto.ErrorEvent{ErrorText: streamErrorText}); err != nil {
		return err
	}
	return s.writer.SendDone()
}

// toolInput 非法JSON作为字符串透传，由客户端拒绝
func toolInput(args string) json.RawMessage {
	args = strings.TrimSpace(args)
	if args == "" {
		return json.RawMessage("{}")
	} else if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	data, _ := json.Marshal(args)
	return data
}

func finishReason(reason openai.FinishReason) string {
	if reason == "" {
		return "stop"
	}
	return strings.ReplaceAll(string(reason), "_", "-")
}
