package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"polyglot/internal/handler"
)

func NewRouter(
	translateHandler *handler.TranslateHandler,
	syncHandler *handler.SyncHandler,
	settingsHandler *handler.SettingsHandler,
	healthHandler *handler.HealthHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	api := e.Group("/api")
	healthHandler.RegisterRoutes(api)
	translateHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)

	syncHandler.RegisterRoutes(api.Group("/sync", SyncKeyMiddleware()))

	return e
}
