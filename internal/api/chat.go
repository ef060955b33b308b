package api

import (
	"context"
	"io"
	"net/http"

	request "github.com/imroc/req/v3"
	stlerr "github.com/kkkunny/stl/error"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

// ChatStream 发起对话请求，返回尚未读取的SSE响应体
func ChatStream(ctx context.Context, endpoint string, cookies []*http.Cookie, req *dto.ChatRequest) (io.ReadCloser, error) {
	resp, err := stlerr.ErrorWith(streamClient.R().
		SetContext(ctx).
		SetCookies(cookies...).
		SetHeaders(map[string]string{
			"accept":        "text/event-stream",
			"cache-control": "no-cache",
		}).
		SetBodyJsonMarshal(req).
		DisableAutoReadResponse().
		Post(endpoint))
	if err != nil {
		return nil, err
	}
	return streamBody(resp)
}

func streamBody(resp *request.Response) (io.ReadCloser, error) {
	if resp.Response == nil || resp.Body == nil {
		return nil, stlerr.Errorf("chat response without body")
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if resp.Body == http.NoBody {
		return nil, stlerr.Errorf("chat response without body")
	}
	return resp.Body, nil
}
