package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(ErrorHandler, Logger)
	e.GET("/", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		handler echo.HandlerFunc
		code    int
	}{
		{"ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, http.StatusNoContent},
		{"http error kept", func(c echo.Context) error { return echo.ErrBadRequest }, http.StatusBadRequest},
		{"plain error hidden", func(c echo.Context) error { return errors.New("db down") }, http.StatusInternalServerError},
		{"panic recovered", func(c echo.Context) error { panic("boom") }, http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(c.handler)
			assert.Equal(t, c.code, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}
