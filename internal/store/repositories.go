package store

import "github.com/keydrop/keydrop/internal/logger"

// Repositories bundles every PostgreSQL-backed repository behind one handle,
// so the service layer receives a single dependency.
type Repositories struct {
	UserRepository
	DeviceRepository
	RefreshTokenRepository
	SyncRepository
	AuthRequestRepository
	EmergencyRepository
	CommandRepository
}

func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db, log),
		DeviceRepository:       NewDeviceRepository(db, log),
		RefreshTokenRepository: NewRefreshTokenRepository(db, log),
		SyncRepository:         NewSyncRepository(db, log),
		AuthRequestRepository:  NewAuthRequestRepository(db, log),
		EmergencyRepository:    NewEmergencyRepository(db, log),
		CommandRepository:      NewCommandRepository(db, log),
	}
}
