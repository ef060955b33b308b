package middleware

import (
	"errors"
	"net/http"

	stlerr "github.com/kkkunny/stl/error"
	"github.com/labstack/echo/v4"

	"github.com/kkkunny/PDFTutor/internal/config"
)

// ErrorHandler 记录错误并恢复panic，非HTTPError一律按500返回
func ErrorHandler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(reqCtx echo.Context) (err error) {
		var isPanic bool

		defer func() {
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					err = httpErr
					return
				}
				if !isPanic {
					_ = config.Logger.Error(err)
				}
				err = echo.NewHTTPError(http.StatusInternalServerError)
			}
		}()

		defer func() {
			if errObj := recover(); errObj != nil {
				isPanic = true
				_ = config.Logger.Panic(errObj)
				var ok bool
				err, ok = errObj.(error)
				if !ok {
					err = stlerr.Errorf("%v", errObj)
				}
			}
		}()

		return next(reqCtx)
	}
}
