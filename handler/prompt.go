package handler

import (
	"fmt"
	"sort"
	"strings"

	stlslices "github.com/kkkunny/stl/container/slices"
	"github.com/sashabaranov/go-openai"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

const tutorInstructions = `You are a helpful PDF tutor. You help students understand the PDF document they are reading through conversation. Always prefer concise, actionable answers.
When the answer is on a specific page, call set_page to take the student there.
When you refer to a passage, figure or formula, call highlight_region with coordinates normalized to the page (0 to 1, origin at the top-left corner).`

const truncatedMark = "\n[document truncated]"

// buildSystemPrompt 说明、当前页与文档正文
func buildSystemPrompt(req *dto.ChatRequest, budget int) string {
	var sb strings.Builder
	sb.WriteString(tutorInstructions)
	if req.CurrentPage > 0 {
		_, _ = fmt.Fprintf(&sb, "\n\nThe student is currently viewing page %d.", req.CurrentPage)
	}
	if doc := documentText(req.PDFContent, budget); doc != "" {
		sb.WriteString("\n\nDocument content:\n")
		sb.WriteString(doc)
	}
	return sb.String()
}

// documentText 按页码拼接正文，超出预算(按字符)时截断
func documentText(pages []*dto.PageContent, budget int) string {
	pages = stlslices.Filter(pages, func(_ int, page *dto.PageContent) bool {
		return page != nil && strings.TrimSpace(page.Text) != ""
	})
	if len(pages) == 0 {
		return ""
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})

	var sb strings.Builder
	for _, page := range pages {
		_, _ = fmt.Fprintf(&sb, "--- Page %d ---\n%s\n", page.PageNumber, strings.TrimSpace(page.Text))
	}

	text := []rune(sb.String())
	if budget <= 0 || len(text) <= budget {
		return string(text)
	}
	return string(text[:budget]) + truncatedMark
}

// chatMessages 只保留文本，空消息丢弃
func chatMessages(req *dto.ChatRequest) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(req, config.MaxContextChars),
	}}
	for _, msg := range req.Messages {
		if msg == nil {
			continue
		}
		var role string
		switch msg.Role {
		case dto.RoleUser:
			role = openai.ChatMessageRoleUser
		case dto.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case dto.RoleSystem:
			role = openai.ChatMessageRoleSystem
		default:
			_ = config.Logger.Warnf("unknown ui message role `%s`", msg.Role)
			continue
		}
		text := msg.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: text})
	}
	return msgs
}
