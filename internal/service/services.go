package service

import (
	"github.com/keydrop/keydrop/internal/blob"
	"github.com/keydrop/keydrop/internal/config"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
)

// Services bundles every server-side service behind its interface.
type Services struct {
	AuthService      AuthService
	SyncService      SyncService
	DeviceService    DeviceService
	EmergencyService EmergencyService
	CommandService   CommandService
}

// NewServices wires the full service layer: repositories for metadata,
// the blob store for ciphertext, and the notification bus for fan-out.
func NewServices(repos *store.Repositories, blobs blob.Store, bus *notify.Bus, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:      NewAuthService(repos, cfg.App, logger),
		SyncService:      NewSyncService(repos, blobs, bus, logger),
		DeviceService:    NewDeviceService(repos, bus, logger),
		EmergencyService: NewEmergencyService(repos, bus, logger),
		CommandService:   NewCommandService(repos, bus, logger),
	}
}
