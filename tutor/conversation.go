package tutor

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	stlerr "github.com/kkkunny/stl/error"
	stlval "github.com/kkkunny/stl/value"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

const FallbackReply = "Sorry, something went wrong while fetching the AI response."

// Document 对话关联的PDF上下文
type Document struct {
	FileID string
	Pages  []*dto.PageContent
}

// Conversation 单个会话的内存历史，不做持久化
type Conversation struct {
	client *Client
	doc    *Document

	lock    sync.Mutex
	busy    bool
	history []*dto.UIMessage
}

func NewConversation(client *Client, doc *Document) *Conversation {
	if doc == nil {
		doc = &Document{}
	}
	return &Conversation{client: client, doc: doc}
}

// History 返回历史消息副本
func (c *Conversation) History() []*dto.UIMessage {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]*dto.UIMessage(nil), c.history...)
}

// Ask 提交一个问题并消费整轮回复，进行中的轮次会阻止新的提交
func (c *Conversation) Ask(ctx context.Context, question string, currentPage int, viewer Viewer, sink func(*dto.Message)) (*dto.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, stlerr.Errorf("empty question")
	}

	c.lock.Lock()
	if c.busy {
		c.lock.Unlock()
		return nil, stlerr.ErrorWrap(ErrTurnInProgress)
	}
	c.busy = true
	userMsg := dto.NewUserMessage(question)
	c.history = append(c.history, userMsg)
	req := &dto.ChatRequest{
		Messages:    append([]*dto.UIMessage(nil), c.history...),
		PDFContent:  c.doc.Pages,
		CurrentPage: currentPage,
		FileID:      c.doc.FileID,
	}
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		c.busy = false
		c.lock.Unlock()
	}()

	reply, err := c.run(ctx, req, viewer, sink)
	if reply == nil {
		reply = dto.NewAssistantMessage("assistant-" + uuid.NewString())
	}
	text := stlval.Ternary(err == nil, reply.Text(), FallbackReply)

	c.lock.Lock()
	c.history = append(c.history, dto.NewTextUIMessage(reply.ID, dto.RoleAssistant, text))
	c.lock.Unlock()

	if err != nil {
		reply = reply.Clone()
		reply.Parts = append(reply.Parts, &dto.TextPart{Text: FallbackReply, State: dto.TextStateDone})
	}
	return reply, err
}

func (c *Conversation) run(ctx context.Context, req *dto.ChatRequest, viewer Viewer, sink func(*dto.Message)) (*dto.Message, error) {
	turn, err := c.client.Chat(ctx, req, viewer)
	if err != nil {
		return nil, err
	}
	return turn.Run(sink)
}
