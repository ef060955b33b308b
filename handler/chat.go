package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/kkkunny/stl/container/tuple"
	stlerr "github.com/kkkunny/stl/error"
	"github.com/labstack/echo/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/internal/sse"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

var openaiHTTPClient = newOpenAIHTTPClient()

// newOpenAIHTTPClient 沿用默认Transport的超时与HTTP/2设置，仅替换代理
func newOpenAIHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.Proxy != nil {
		transport.Proxy = config.Proxy
	}
	return &http.Client{Transport: transport}
}

func newOpenAIClient() *openai.Client {
	cfg := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		cfg.BaseURL = config.OpenAIBaseURL
	}
	cfg.HTTPClient = openaiHTTPClient
	return openai.NewClientWithConfig(cfg)
}

// Chat 把对话转发给模型，并以UI消息流返回
func Chat(reqCtx echo.Context) error {
	var req dto.ChatRequest
	if err := stlerr.ErrorWrap(reqCtx.Bind(&req)); err != nil {
		_ = config.Logger.Error(err)
		return echo.ErrBadRequest
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages is required")
	}

	writer, err := sse.NewWriter(reqCtx.Response())
	if err != nil {
		return err
	}
	out := newChunkStream(writer)
	if err = out.send(dto.StartEvent{MessageID: "msg-" + uuid.NewString()}); err != nil {
		return err
	}

	ctx := reqCtx.Request().Context()
	stream, err := stlerr.ErrorWith(newOpenAIClient().CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    config.Model,
		Messages: chatMessages(&req),
		Tools:    tutorTools,
		Stream:   true,
	}))
	if err != nil {
		return out.fail(err)
	}
	defer stream.Close()

	respChan := recvStream(ctx, stream)
	for {
		select {
		case <-ctx.Done():
			return stlerr.Errorf("SSE client disconnected")
		case data, ok := <-respChan:
			if !ok {
				return out.finish()
			}
			resp, err := data.Unpack()
			if err != nil && errors.Is(err, io.EOF) {
				return out.finish()
			} else if err != nil {
				return out.fail(err)
			}
			if err = out.handle(&resp); err != nil {
				return err
			}
		}
	}
}

func recvStream(ctx context.Context, stream *openai.ChatCompletionStream) chan tuple.Tuple2[openai.ChatCompletionStreamResponse, error] {
	respChan := make(chan tuple.Tuple2[openai.ChatCompletionStreamResponse, error])

	go func() {
		defer func() {
			if err := recover(); err != nil {
				_ = config.Logger.Error(err)
			}
		}()

		defer func() {
			close(respChan)
		}()

		for {
			data := tuple.Pack2(stlerr.ErrorWith(stream.Recv()))
			select {
			case <-ctx.Done():
				return
			case respChan <- data:
			}
			if _, err := data.Unpack(); err != nil {
				return
			}
		}
	}()

	return respChan
}

// Health 存活检查
func Health(reqCtx echo.Context) error {
	return stlerr.ErrorWrap(reqCtx.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"model":  config.Model,
	}))
}
