package main

import (
	stlerr "github.com/kkkunny/stl/error"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/kkkunny/PDFTutor/handler"
	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/middleware"
)

func main() {
	svr := echo.New()
	svr.HideBanner, svr.HidePort = true, true
	svr.Logger.SetLevel(log.OFF)
	svr.IPExtractor = echo.ExtractIPFromRealIPHeader()

	svr.Use(middleware.ErrorHandler, middleware.Logger)

	svr.GET("/healthz", handler.Health)
	svr.POST("/api/chat", handler.Chat)

	_ = config.Logger.Keywordf("listen http: %s, model: %s", config.ListenAddr, config.Model)
	stlerr.Must(svr.Start(config.ListenAddr))
}
