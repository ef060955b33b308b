package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kkkunny/PDFTutor/internal/config"
)

// Logger 请求日志，流式响应结束后才记录耗时
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(reqCtx echo.Context) error {
		begin := time.Now()
		err := next(reqCtx)
		_ = config.Logger.Infof("Method [%s] %s --> %s (%d, %s)", reqCtx.Request().Method, reqCtx.RealIP(), reqCtx.Path(), reqCtx.Response().Status, time.Since(begin).Round(time.Millisecond))
		return err
	}
}
