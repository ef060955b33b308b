package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	request "github.com/imroc/req/v3"
	stlerr "github.com/kkkunny/stl/error"
	stlval "github.com/kkkunny/stl/value"
)

var ErrUnauthorized = errors.New("unauthorized")

// TransportError 非200响应
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http error: code=%d, status=%s", e.StatusCode, e.Status)
}

func checkStatus(resp *request.Response) error {
	switch code := resp.GetStatusCode(); code {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return stlerr.ErrorWrap(ErrUnauthorized)
	default:
		return stlerr.ErrorWrap(&TransportError{StatusCode: code, Status: resp.GetStatus()})
	}
}

func joinURL(domain string, format string, a ...any) (string, error) {
	if !strings.Contains(domain, "://") {
		return "", stlerr.Errorf("invalid domain `%s`", domain)
	}
	return stlerr.ErrorWith(url.JoinPath(domain, fmt.Sprintf(format, a...)))
}

func sendDefaultHttpRequest[Result any](ctx context.Context, method string, reqHandler func(r *request.Request) *request.Request, cookies []*http.Cookie, domain string, format string, a ...any) (*Result, error) {
	uri, err := joinURL(domain, format, a...)
	if err != nil {
		return nil, err
	}

	if reqHandler == nil {
		reqHandler = func(req *request.Request) *request.Request { return req }
	}
	req := reqHandler(globalClient.R().
		SetContext(ctx).
		SetCookies(cookies...).
		SetHeader("origin", domain).
		SetSuccessResult(stlval.Default[Result]()),
	)
	resp, err := stlerr.ErrorWith(req.Send(method, uri))
	if err != nil {
		return nil, err
	} else if err = checkStatus(resp); err != nil {
		return nil, err
	}

	res, ok := resp.SuccessResult().(*Result)
	if !ok {
		return nil, stlerr.Errorf("parse http result error: code=%d, status=%s", resp.GetStatusCode(), resp.GetStatus())
	}
	return res, nil
}
