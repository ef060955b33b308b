package api

import (
	"context"
	"net/http"

	request "github.com/imroc/req/v3"
	stlerr "github.com/kkkunny/stl/error"
)

type signedURLResponse struct {
	URL string `json:"url"`
}

// FileSignedURL 获取PDF的限时读取地址
func FileSignedURL(ctx context.Context, domain string, cookies []*http.Cookie, fileID string) (string, error) {
	if fileID == "" {
		return "", stlerr.Errorf("file id is required")
	}
	resp, err := sendDefaultHttpRequest[signedURLResponse](ctx, http.MethodGet, nil, cookies, domain, "/api/files/%s/signed-url", fileID)
	if err != nil {
		return "", err
	} else if resp.URL == "" {
		return "", stlerr.Errorf("empty signed url for file `%s`", fileID)
	}
	return resp.URL, nil
}

type createUploadURLRequest struct {
	Name string `json:"name"`
}

// UploadTarget 上传用的签名地址
type UploadTarget struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	Path  string `json:"path"`
}

// CreateUploadURL 申请上传地址
func CreateUploadURL(ctx context.Context, domain string, cookies []*http.Cookie, name string) (*UploadTarget, error) {
	if name == "" {
		return nil, stlerr.Errorf("file name is required")
	}
	return sendDefaultHttpRequest[UploadTarget](ctx, http.MethodPost, func(r *request.Request) *request.Request {
		return r.SetBodyJsonMarshal(&createUploadURLRequest{Name: name})
	}, cookies, domain, "/api/upload")
}

// UploadPDF 通过签名地址上传PDF
func UploadPDF(ctx context.Context, target *UploadTarget, data []byte) error {
	resp, err := stlerr.ErrorWith(globalClient.R().
		SetContext(ctx).
		SetHeader("content-type", "application/pdf").
		SetBearerAuthToken(target.Token).
		SetBodyBytes(data).
		Put(target.URL))
	if err != nil {
		return err
	}
	return checkStatus(resp)
}
