package web

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"thirdcoast.systems/clipforge/cmd/web/handlers/api/job_api"
	"thirdcoast.systems/clipforge/cmd/web/handlers/api/render_api"
	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/internal/render"
)

type Webserver struct {
	*echo.Echo
	dbc           *db.DatabaseConnection
	conf          config.Config
	renderService *render.Service
}

func NewWebserver(dbc *db.DatabaseConnection, conf config.Config) *Webserver {
	webserver := &Webserver{
		Echo:          echo.New(),
		dbc:           dbc,
		conf:          conf,
		renderService: render.NewService(dbc, conf),
	}

	webserver.setupMiddleware()
	webserver.registerRoutes()

	return webserver
}

func (s *Webserver) setupMiddleware() {
	s.HideBanner = true
	s.HidePort = true
	// BodyLimit takes a size string; a plain digit string is bytes.
	s.Use(middleware.BodyLimit(strconv.FormatUint(s.conf.UploadLimitBytes, 10)))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		// Finished renders are already compressed; gzipping the download
		// stream burns CPU for nothing.
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/download")
		},
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogMethod:       true,
		LogURI:          true,
		LogStatus:       true,
		LogLatency:      true,
		LogResponseSize: true,
		LogRemoteIP:     true,
		LogRequestID:    true,
		LogError:        true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"bytes_out", v.ResponseSize,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("http request", attrs...)
			return nil
		},
	}))
}

func (s *Webserver) registerRoutes() {
	apiGroup := s.Group("/api")
	apiGroup.POST("/render", render_api.HandleSubmit(s.renderService, s.conf))
	apiGroup.GET("/jobs", job_api.HandleIndex(s.renderService))
	apiGroup.GET("/jobs/:id", job_api.HandleStatus(s.renderService))
	apiGroup.POST("/jobs/:id/cancel", job_api.HandleCancel(s.renderService))
	apiGroup.POST("/jobs/:id/retry", job_api.HandleRetry(s.renderService))
	apiGroup.GET("/jobs/:id/download", render_api.HandleDownload(s.renderService))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		if err := s.dbc.Ping(c.Request().Context()); err != nil {
			return c.String(503, "database unreachable")
		}
		return c.String(200, "ok")
	})
}
