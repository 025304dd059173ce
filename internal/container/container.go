package container

import (
	"fmt"
	"net/http"

	"go-camera-inspector/internal/config"
	"go-camera-inspector/internal/device"
	"go-camera-inspector/internal/logger"
	"go-camera-inspector/internal/observer"
	"go-camera-inspector/internal/report"
	"go-camera-inspector/internal/service"
	"go-camera-inspector/internal/storage"
	"go-camera-inspector/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	bridge     device.Bridge
	loader     storage.ImageLoader
	renderer   report.Renderer
	publisher  observer.Subject
	runService *service.RunService
	handler    http.Handler
}

// NewContainer builds the dependency graph from a loaded configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	bridge, err := device.NewADB(cfg.ADB)
	if err != nil {
		return nil, fmt.Errorf("failed to set up device bridge: %w", err)
	}

	loader := storage.NewFileLoader()

	renderer, err := report.NewHTMLRenderer(cfg.Output.ReportsDir)
	if err != nil {
		return nil, err
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(observer.NewMetricsObserver())

	runService := service.NewRunService(cfg, bridge, loader, renderer, publisher)
	handler := transport.NewHandler(runService, cfg)

	return &Container{
		config:     cfg,
		bridge:     bridge,
		loader:     loader,
		renderer:   renderer,
		publisher:  publisher,
		runService: runService,
		handler:    handler,
	}, nil
}

// RunService returns the run orchestrator
func (c *Container) RunService() *service.RunService {
	return c.runService
}

// Bridge returns the device bridge
func (c *Container) Bridge() device.Bridge {
	return c.bridge
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
