package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root - redirect to the active overlay
	s.echo.GET("/", s.handleRoot)

	// Static overlay assets, one mount per discovered plugin
	for _, descriptor := range s.plugins.Plugins() {
		prefix := fmt.Sprintf("/plugins/%s", descriptor.ID)
		s.echo.Static(prefix, descriptor.BasePath)
	}

	// Connection lifecycle
	s.echo.POST("/api/connection", s.handleConnect)
	s.echo.DELETE("/api/connection", s.handleDisconnect)
	s.echo.GET("/api/connection", s.handleConnectionState)

	// Plugins
	s.echo.GET("/api/plugins", s.handleListPlugins)
	s.echo.GET("/api/plugins/preferences", s.handleGetPreferences)
	s.echo.PUT("/api/plugins/preferences", s.handlePutPreferences)
	s.echo.GET("/api/plugins/:id/settings", s.handleGetPluginSettings)
	s.echo.PUT("/api/plugins/:id/settings", s.handlePutPluginSettings)
	s.echo.PUT("/api/overlay", s.handlePutActiveOverlay)

	// TTS
	s.echo.GET("/api/tts/settings", s.handleGetTTSSettings)
	s.echo.PUT("/api/tts/settings", s.handlePutTTSSettings)
	s.echo.GET("/api/tts/adapters", s.handleListAdapters)
	s.echo.GET("/api/tts/adapters/:id/params", s.handleAdapterParams)
}

func (s *Server) handleRoot(c echo.Context) error {
	active := s.overlay.ActiveOverlay()
	if active == "" {
		return c.String(http.StatusNotFound, "no active overlay")
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf("/plugins/%s/overlay/", active))
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"connection": s.connection.State(),
	})
}
