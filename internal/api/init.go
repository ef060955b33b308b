package api

import (
	"github.com/imroc/req/v3"

	"github.com/kkkunny/PDFTutor/internal/config"
)

const userAgent = "PDFTutor/1.0 (+https://github.com/kkkunny/PDFTutor)"

var (
	globalClient *req.Client
	// streamClient 流式响应可能持续很久，只受ctx约束
	streamClient *req.Client
)

func init() {
	globalClient = req.C().
		SetProxy(config.Proxy).
		SetRedirectPolicy(req.NoRedirectPolicy()).
		SetUserAgent(userAgent)
	streamClient = globalClient.Clone().SetTimeout(0)
}
