package tutor

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/kkkunny/PDFTutor/internal/api"
	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

type ClientOption func(*Client)

// WithCookies 会话cookie，签名地址接口需要登录
func WithCookies(cookies ...*http.Cookie) ClientOption {
	return func(c *Client) {
		c.cookies = append(c.cookies, cookies...)
	}
}

func WithDispatcherOptions(opts ...DispatcherOption) ClientOption {
	return func(c *Client) {
		c.dispatcherOpts = append(c.dispatcherOpts, opts...)
	}
}

type Client struct {
	endpoint       string
	cookies        []*http.Cookie
	dispatcherOpts []DispatcherOption
}

// NewClient endpoint为对话接口完整地址
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{endpoint: endpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat 发起一轮对话，传输层错误在解码开始前返回
func (c *Client) Chat(ctx context.Context, req *dto.ChatRequest, viewer Viewer) (*Turn, error) {
	body, err := api.ChatStream(ctx, c.endpoint, c.cookies, req)
	if err != nil {
		return nil, err
	}
	return newTurn(body, dto.NewAssistantMessage("assistant-"+uuid.NewString()), NewDispatcher(viewer, c.dispatcherOpts...)), nil
}

// FileSignedURL 获取PDF的限时地址
func (c *Client) FileSignedURL(ctx context.Context, domain string, fileID string) (string, error) {
	return api.FileSignedURL(ctx, domain, c.cookies, fileID)
}

// UploadPDF 申请签名地址并上传
func (c *Client) UploadPDF(ctx context.Context, domain string, name string, data []byte) (string, error) {
	target, err := api.CreateUploadURL(ctx, domain, c.cookies, name)
	if err != nil {
		return "", err
	}
	if err = api.UploadPDF(ctx, target, data); err != nil {
		return "", err
	}
	return target.Path, nil
}

// Turn 一轮助手回复：解码 -> 折叠 -> 渲染与派发
type Turn struct {
	stream     *MessageStream
	dispatcher *Dispatcher
	onDispatch func(DispatchResult)
}

func newTurn(body io.ReadCloser, msg *dto.Message, dispatcher *Dispatcher) *Turn {
	return &Turn{
		stream:     NewMessageStream(body, msg),
		dispatcher: dispatcher,
	}
}

func (t *Turn) Dispatcher() *Dispatcher {
	return t.dispatcher
}

// OnDispatch 每个工具调用处理后回调
func (t *Turn) OnDispatch(fn func(DispatchResult)) {
	t.onDispatch = fn
}

// Run 顺序消费整个流；出错时返回最后一个完整快照和错误
func (t *Turn) Run(sink func(*dto.Message)) (*dto.Message, error) {
	defer t.Close()

	for {
		snapshot, err := t.stream.Next()
		if err != nil && errors.Is(err, io.EOF) {
			return t.stream.Last(), nil
		} else if err != nil {
			_ = config.Logger.Error(err)
			return t.stream.Last(), err
		}

		if sink != nil {
			sink(snapshot)
		}
		for _, res := range t.dispatcher.Dispatch(snapshot) {
			if t.onDispatch != nil {
				t.onDispatch(res)
			}
		}
	}
}

// Close 提前结束时释放连接
func (t *Turn) Close() error {
	return t.stream.Close()
}
