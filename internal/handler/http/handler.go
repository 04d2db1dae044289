package http

import (
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/service"
)

// Handler owns the REST and WebSocket surface of the sync server. It
// decodes requests, delegates to the service layer, and maps service
// errors to HTTP status codes.
type Handler struct {
	services *service.Services
	bus      *notify.Bus
	version  string

	logger *logger.Logger
}

// NewHandler constructs the transport layer over the given services and
// notification bus. version is reported by the health endpoint.
func NewHandler(services *service.Services, bus *notify.Bus, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		bus:      bus,
		version:  version,
		logger:   logger,
	}
}
