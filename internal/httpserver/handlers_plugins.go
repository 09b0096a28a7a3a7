package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Segu-g/NicomView/internal/domain"
	apperrors "github.com/Segu-g/NicomView/internal/platform/errors"
)

func (s *Server) handleListPlugins(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"plugins":       s.plugins.Plugins(),
		"activeOverlay": activeOrNil(s.overlay.ActiveOverlay()),
	})
}

func (s *Server) handleGetPreferences(c echo.Context) error {
	return c.JSON(http.StatusOK, s.plugins.Preferences())
}

func (s *Server) handlePutPreferences(c echo.Context) error {
	var preferences domain.PluginPreferences
	if err := c.Bind(&preferences); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.plugins.SetPreferences(preferences); err != nil {
		return apperrors.InternalError("failed to save plugin preferences", err)
	}
	return c.JSON(http.StatusOK, s.plugins.Preferences())
}

func (s *Server) handleGetPluginSettings(c echo.Context) error {
	id := c.Param("id")

	settings, err := s.plugins.Settings(id)
	if err != nil {
		if errors.Is(err, domain.ErrPluginNotFound) {
			return apperrors.NotFoundError("plugin not found").WithField("plugin_id", id)
		}
		return apperrors.InternalError("failed to load plugin settings", err).WithField("plugin_id", id)
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handlePutPluginSettings(c echo.Context) error {
	id := c.Param("id")

	var settings domain.PluginSettings
	if err := c.Bind(&settings); err != nil {
		return apperrors.ValidationError("invalid request body").WithField("plugin_id", id)
	}

	if err := s.plugins.SetSettings(id, settings); err != nil {
		if errors.Is(err, domain.ErrPluginNotFound) {
			return apperrors.NotFoundError("plugin not found").WithField("plugin_id", id)
		}
		return apperrors.InternalError("failed to save plugin settings", err).WithField("plugin_id", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type putOverlayRequest struct {
	PluginID *string `json:"pluginId"`
}

func (s *Server) handlePutActiveOverlay(c echo.Context) error {
	var req putOverlayRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	// Null clears the designation.
	if req.PluginID == nil || *req.PluginID == "" {
		s.overlay.SetActiveOverlay("")
		return c.JSON(http.StatusOK, map[string]any{"activeOverlay": nil})
	}

	descriptor, err := s.plugins.Plugin(*req.PluginID)
	if err != nil {
		return apperrors.NotFoundError("plugin not found").WithField("plugin_id", *req.PluginID)
	}
	if !descriptor.Overlay {
		return apperrors.ValidationError("plugin has no overlay").WithField("plugin_id", descriptor.ID)
	}

	s.overlay.SetActiveOverlay(descriptor.ID)
	return c.JSON(http.StatusOK, map[string]any{"activeOverlay": descriptor.ID})
}

func activeOrNil(id string) any {
	if id == "" {
		return nil
	}
	return id
}
