package httpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/Segu-g/NicomView/internal/domain"
	"github.com/Segu-g/NicomView/internal/platform/config"
	apperrors "github.com/Segu-g/NicomView/internal/platform/errors"
)

// connectionService is the supervisor surface the API needs.
type connectionService interface {
	Connect(ctx context.Context, liveID, cookies string) error
	Disconnect()
	State() domain.ConnectionState
}

// pluginService is the plugin-manager surface the API needs.
type pluginService interface {
	Plugins() []domain.PluginDescriptor
	Plugin(id string) (domain.PluginDescriptor, error)
	Preferences() domain.PluginPreferences
	SetPreferences(preferences domain.PluginPreferences) error
	Settings(id string) (domain.PluginSettings, error)
	SetSettings(id string, settings domain.PluginSettings) error
}

// ttsService is the announcement-manager surface the API needs.
type ttsService interface {
	Settings() domain.TTSSettings
	ApplySettings(patch domain.TTSSettingsPatch) domain.TTSSettings
	AdapterInfos() []domain.AdapterInfo
	AdapterParams(id string) ([]domain.AdapterParamDef, error)
	AdapterAvailable(ctx context.Context, id string) (bool, error)
}

// overlayRegistry tracks the single active-overlay designation.
type overlayRegistry interface {
	SetActiveOverlay(pluginID string)
	ActiveOverlay() string
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	connection connectionService
	plugins    pluginService
	tts        ttsService
	overlay    overlayRegistry

	// connectGroup collapses concurrent connect calls for the same live id
	// into one provider handshake.
	connectGroup singleflight.Group
}

func NewServer(cfg *config.Config, connection connectionService, plugins pluginService, tts ttsService, overlay overlayRegistry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:       e,
		config:     cfg,
		connection: connection,
		plugins:    plugins,
		tts:        tts,
		overlay:    overlay,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.config.HTTPPort)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.HTTPPort))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
