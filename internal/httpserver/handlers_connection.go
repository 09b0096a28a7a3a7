package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Segu-g/NicomView/internal/platform/errors"
)

type connectRequest struct {
	LiveID  string `json:"liveId"`
	Cookies string `json:"cookies"`
}

func (s *Server) handleConnect(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.LiveID == "" {
		return apperrors.ValidationError("liveId is required")
	}

	// The collapsed call is shared by every caller waiting on this live id,
	// so it must not die with the first caller's request context.
	ctx := context.WithoutCancel(c.Request().Context())
	_, err, _ := s.connectGroup.Do(req.LiveID, func() (any, error) {
		return nil, s.connection.Connect(ctx, req.LiveID, req.Cookies)
	})
	if err != nil {
		return apperrors.ExternalError("failed to connect to broadcast", err).
			WithField("live_id", req.LiveID)
	}

	if err := c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"state":  s.connection.State(),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDisconnect(c echo.Context) error {
	s.connection.Disconnect()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"state":  s.connection.State(),
	})
}

func (s *Server) handleConnectionState(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"state": s.connection.State(),
	})
}
