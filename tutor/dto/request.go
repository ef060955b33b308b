package dto

import (
	"github.com/google/uuid"
)

const (
	RoleUser   = "user"
	RoleSystem = "system"

	UIPartTypeText = "text"
)

// ChatRequest 对话请求体
type ChatRequest struct {
	Messages    []*UIMessage   `json:"messages"`
	PDFContent  []*PageContent `json:"pdfContent,omitempty"`
	CurrentPage int            `json:"currentPage,omitempty"`
	FileID      string         `json:"fileId,omitempty"`
}

type UIMessage struct {
	ID    string    `json:"id"`
	Role  string    `json:"role"`
	Parts []*UIPart `json:"parts"`
}

type UIPart struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	State string `json:"state,omitempty"`
}

// PageContent 预先提取的单页文本
type PageContent struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

func NewTextUIMessage(id, role, text string) *UIMessage {
	return &UIMessage{
		ID:   id,
		Role: role,
		Parts: []*UIPart{{
			Type:  UIPartTypeText,
			Text:  text,
			State: string(TextStateDone),
		}},
	}
}

func NewUserMessage(text string) *UIMessage {
	return NewTextUIMessage("user-"+uuid.NewString(), RoleUser, text)
}

// Text 拼接文本片段
func (m *UIMessage) Text() string {
	var text string
	for _, part := range m.Parts {
		if part != nil && part.Type == UIPartTypeText {
			text += part.Text
		}
	}
	return text
}
