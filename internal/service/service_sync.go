package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/blob"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

// Pull page limits.
const (
	DefaultPullLimit = 100
	MaxPullLimit     = 1000
)

// conflictScanPage is the page size used when loading the server state
// for conflict detection during a push.
const conflictScanPage = 1000

// ConflictStrategy selects how a push conflict is resolved when an
// incoming item collides with a server row the client has not seen.
type ConflictStrategy int

const (
	// LastWriteWins keeps whichever side has the later modified_at;
	// the server wins ties.
	LastWriteWins ConflictStrategy = iota
	// ServerWins always keeps the server's row.
	ServerWins
	// ClientWins always accepts the incoming item.
	ClientWins
)

// syncService is the concrete implementation of SyncService. Metadata
// lives in the sync repository, ciphertext in the blob store; the two
// are linked by the blob key on each metadata row. Accepted changes are
// announced on the notification bus so the user's other devices pull.
type syncService struct {
	sync     store.SyncRepository
	devices  store.DeviceRepository
	blobs    blob.Store
	bus      *notify.Bus
	strategy ConflictStrategy
	logger   *logger.Logger
}

// NewSyncService constructs a SyncService resolving conflicts by
// last-write-wins.
func NewSyncService(repos *store.Repositories, blobs blob.Store, bus *notify.Bus, logger *logger.Logger) SyncService {
	return NewSyncServiceWithStrategy(repos, blobs, bus, LastWriteWins, logger)
}

// NewSyncServiceWithStrategy constructs a SyncService with an explicit
// conflict strategy.
func NewSyncServiceWithStrategy(repos *store.Repositories, blobs blob.Store, bus *notify.Bus, strategy ConflictStrategy, logger *logger.Logger) SyncService {
	return &syncService{
		sync:     repos.SyncRepository,
		devices:  repos.DeviceRepository,
		blobs:    blobs,
		bus:      bus,
		strategy: strategy,
		logger:   logger,
	}
}

// Pull returns the items changed after sinceVersion, oldest version
// first. Tombstones come back with an empty payload; an item whose
// ciphertext has gone missing from the blob store is skipped with a
// warning rather than failing the page. HasMore signals that a full
// page was returned and the client should pull again from the last
// version it received.
func (s *syncService) Pull(ctx context.Context, userID, deviceID uuid.UUID, sinceVersion int64, limit int) (models.SyncPullResponse, error) {
	log := logger.FromContext(ctx)

	if limit <= 0 {
		limit = DefaultPullLimit
	}
	if limit > MaxPullLimit {
		limit = MaxPullLimit
	}

	if err := s.devices.TouchDevice(ctx, deviceID); err != nil {
		log.Warn().Err(err).Str("device_id", deviceID.String()).Msg("updating device last_seen failed")
	}

	currentVersion, err := s.sync.GetSyncVersion(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("reading sync version failed")
		return models.SyncPullResponse{}, fmt.Errorf("reading sync version failed: %w", err)
	}

	rows, err := s.sync.FindItemsSinceVersion(ctx, userID, sinceVersion, limit)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("loading changed items failed")
		return models.SyncPullResponse{}, fmt.Errorf("loading changed items failed: %w", err)
	}

	items := make([]models.SyncItem, 0, len(rows))
	for _, row := range rows {
		item, ok := s.wireItem(ctx, row)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return models.SyncPullResponse{
		CurrentVersion: currentVersion,
		Items:          items,
		HasMore:        len(rows) == limit,
	}, nil
}

// Push applies a batch of client changes on top of base_version.
//
// When the server counter moved past base_version, every row the client
// has not seen is a conflict candidate: colliding incoming items are
// resolved by the configured strategy and losing items come back in
// Conflicts carrying the server's ciphertext. Each accepted item gets a
// fresh blob and its own counter increment, so versions stay unique per
// user. A blob-store failure halts the batch; items already applied
// stay applied and the client re-pushes the rest from NewVersion.
func (s *syncService) Push(ctx context.Context, userID, deviceID uuid.UUID, req models.SyncPushRequest) (models.SyncPushResponse, error) {
	log := logger.FromContext(ctx)

	currentVersion, err := s.sync.GetSyncVersion(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("reading sync version failed")
		return models.SyncPushResponse{}, fmt.Errorf("reading sync version failed: %w", err)
	}

	serverRows := map[uuid.UUID]models.VaultItemSync{}
	if req.BaseVersion < currentVersion {
		serverRows, err = s.loadRowsSince(ctx, userID, req.BaseVersion)
		if err != nil {
			log.Err(err).Str("user_id", userID.String()).Msg("loading server rows for conflict check failed")
			return models.SyncPushResponse{}, fmt.Errorf("loading server rows for conflict check failed: %w", err)
		}
	}

	newVersion := currentVersion
	var conflicts []models.SyncItem

	for _, item := range req.Items {
		if serverRow, exists := serverRows[item.ID]; exists && !s.clientWins(item, serverRow) {
			conflict, ok := s.wireItem(ctx, serverRow)
			if !ok {
				// blob gone: the client still learns it lost, just without the payload
				conflict = models.SyncItem{
					ID:         serverRow.ID,
					Version:    serverRow.Version,
					IsDeleted:  serverRow.IsDeleted,
					ModifiedAt: serverRow.ModifiedAt.Unix(),
				}
			}
			conflicts = append(conflicts, conflict)
			continue
		}

		version, err := s.applyItem(ctx, userID, item)
		if err != nil {
			return models.SyncPushResponse{}, err
		}
		newVersion = version
	}

	if newVersion > currentVersion {
		s.bus.Publish(models.SyncNotification{
			Kind:           models.NotifyChangesAvailable,
			UserID:         userID,
			SourceDeviceID: deviceID,
			Version:        newVersion,
		})
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("items", len(req.Items)).
		Int("conflicts", len(conflicts)).
		Int64("new_version", newVersion).
		Msg("push applied")

	return models.SyncPushResponse{
		NewVersion:   newVersion,
		HadConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}, nil
}

// applyItem stores the ciphertext under a fresh key, advances the user's
// counter, and upserts the metadata row at the new version. The blob the
// row previously pointed at is removed once the new row is in place.
func (s *syncService) applyItem(ctx context.Context, userID uuid.UUID, item models.SyncItem) (int64, error) {
	log := logger.FromContext(ctx)

	var priorBlobID string
	prior, err := s.sync.FindVaultItemByID(ctx, item.ID, userID)
	switch {
	case err == nil:
		priorBlobID = prior.EncryptedBlobID
	case errors.Is(err, store.ErrVaultItemNotFound):
		// First write for this item.
	default:
		log.Err(err).Str("item_id", item.ID.String()).Msg("prior row lookup failed, old blob may be orphaned")
	}

	var blobKey string
	if !item.IsDeleted {
		data, err := base64.StdEncoding.DecodeString(item.EncryptedData)
		if err != nil {
			log.Error().Str("item_id", item.ID.String()).Msg("encrypted payload is not valid base64")
			return 0, fmt.Errorf("%w: item %s carries malformed payload", ErrInvalidDataProvided, item.ID)
		}

		blobKey = blob.NewBlobKey(userID)
		if err := s.blobs.Store(ctx, blobKey, data); err != nil {
			log.Err(err).Str("item_id", item.ID.String()).Str("blob_key", blobKey).Msg("storing ciphertext blob failed")
			return 0, fmt.Errorf("storing ciphertext blob failed: %w", err)
		}
	}

	version, err := s.sync.IncrementSyncVersion(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("advancing sync version failed")
		return 0, fmt.Errorf("advancing sync version failed: %w", err)
	}

	// The stored timestamp is the server's clock, not the client's claim:
	// a skewed or forged modified_at must not win every future conflict.
	_, err = s.sync.UpsertVaultItem(ctx, models.VaultItemSync{
		ID:              item.ID,
		UserID:          userID,
		Version:         version,
		EncryptedBlobID: blobKey,
		ModifiedAt:      time.Now().UTC(),
		IsDeleted:       item.IsDeleted,
	})
	if err != nil {
		log.Err(err).Str("item_id", item.ID.String()).Msg("upserting item metadata failed")
		return 0, fmt.Errorf("upserting item metadata failed: %w", err)
	}

	if priorBlobID != "" && priorBlobID != blobKey {
		if err := s.blobs.Delete(ctx, priorBlobID); err != nil {
			log.Err(err).Str("item_id", item.ID.String()).Str("blob_key", priorBlobID).Msg("deleting replaced ciphertext blob failed")
		}
	}

	return version, nil
}

// clientWins resolves one collision per the configured strategy.
func (s *syncService) clientWins(incoming models.SyncItem, serverRow models.VaultItemSync) bool {
	switch s.strategy {
	case ServerWins:
		return false
	case ClientWins:
		return true
	default:
		return incoming.ModifiedAt > serverRow.ModifiedAt.Unix()
	}
}

// loadRowsSince pages through every metadata row with version greater
// than sinceVersion and indexes them by item id.
func (s *syncService) loadRowsSince(ctx context.Context, userID uuid.UUID, sinceVersion int64) (map[uuid.UUID]models.VaultItemSync, error) {
	rows := map[uuid.UUID]models.VaultItemSync{}
	cursor := sinceVersion

	for {
		page, err := s.sync.FindItemsSinceVersion(ctx, userID, cursor, conflictScanPage)
		if err != nil {
			return nil, err
		}
		for _, row := range page {
			rows[row.ID] = row
			if row.Version > cursor {
				cursor = row.Version
			}
		}
		if len(page) < conflictScanPage {
			return rows, nil
		}
	}
}

// wireItem converts a metadata row to its wire form, fetching the
// ciphertext for live items. Returns ok=false when the blob is gone:
// the row is reported in logs and dropped from the page.
func (s *syncService) wireItem(ctx context.Context, row models.VaultItemSync) (models.SyncItem, bool) {
	item := models.SyncItem{
		ID:         row.ID,
		Version:    row.Version,
		IsDeleted:  row.IsDeleted,
		ModifiedAt: row.ModifiedAt.Unix(),
	}

	if row.IsDeleted {
		return item, true
	}

	data, err := s.blobs.Retrieve(ctx, row.EncryptedBlobID)
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("item_id", row.ID.String()).
			Str("blob_key", row.EncryptedBlobID).
			Msg("ciphertext blob unavailable, skipping item")
		return models.SyncItem{}, false
	}

	item.EncryptedData = base64.StdEncoding.EncodeToString(data)
	return item, true
}
