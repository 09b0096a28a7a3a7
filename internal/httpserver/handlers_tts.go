package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Segu-g/NicomView/internal/domain"
	apperrors "github.com/Segu-g/NicomView/internal/platform/errors"
)

func (s *Server) handleGetTTSSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tts.Settings())
}

func (s *Server) handlePutTTSSettings(c echo.Context) error {
	var patch domain.TTSSettingsPatch
	if err := c.Bind(&patch); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	updated := s.tts.ApplySettings(patch)
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleListAdapters(c echo.Context) error {
	infos := s.tts.AdapterInfos()

	type adapterStatus struct {
		domain.AdapterInfo
		Available bool `json:"available"`
	}

	out := make([]adapterStatus, 0, len(infos))
	for _, info := range infos {
		available, err := s.tts.AdapterAvailable(c.Request().Context(), info.ID)
		if err != nil {
			available = false
		}
		out = append(out, adapterStatus{AdapterInfo: info, Available: available})
	}
	return c.JSON(http.StatusOK, map[string]any{"adapters": out})
}

func (s *Server) handleAdapterParams(c echo.Context) error {
	id := c.Param("id")

	params, err := s.tts.AdapterParams(id)
	if err != nil {
		if errors.Is(err, domain.ErrAdapterNotFound) {
			return apperrors.NotFoundError("adapter not found").WithField("adapter_id", id)
		}
		return apperrors.InternalError("failed to resolve adapter params", err).WithField("adapter_id", id)
	}
	return c.JSON(http.StatusOK, map[string]any{"params": params})
}
