package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/crypto"
	"github.com/keydrop/keydrop/internal/vault"
	"github.com/keydrop/keydrop/models"
)

// pullBatchSize bounds one pull request; the loop follows has_more.
const pullBatchSize = 500

// Sync runs one full pull-then-push cycle. Remote changes are merged
// into the local vault by last-write-wins on the item's modification
// time, then local changes made since the previous sync are pushed.
// Conflicts reported by the server are resolved by adopting the server
// copy.
func (s *Session) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return ErrVaultLocked
	}

	if err := s.pullLocked(ctx); err != nil {
		return err
	}
	if err := s.pushLocked(ctx); err != nil {
		return err
	}

	now := time.Now().Unix()
	s.vault.LastSync = &now
	return s.saveLocked()
}

func (s *Session) pullLocked(ctx context.Context) error {
	since := s.syncVersion

	for {
		resp, err := s.server.Pull(ctx, since, pullBatchSize)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}

		for i := range resp.Items {
			if err = s.applyRemoteItem(&resp.Items[i]); err != nil {
				return err
			}
			since = resp.Items[i].Version
		}

		if !resp.HasMore {
			s.syncVersion = resp.CurrentVersion
			return nil
		}
	}
}

func (s *Session) applyRemoteItem(remote *models.SyncItem) error {
	id := remote.ID.String()

	if remote.IsDeleted {
		// Deleting an item we never had is fine.
		_, _ = s.vault.RemoveItem(id)
		return nil
	}

	item, err := s.decryptItem(remote.EncryptedData)
	if err != nil {
		s.logger.Err(err).Str("item_id", id).Msg("skipping undecryptable sync item")
		return nil
	}

	if local, getErr := s.vault.GetItem(id); getErr == nil {
		if local.ModifiedAt >= item.ModifiedAt {
			return nil
		}
		return s.vault.UpdateItem(id, *item)
	}

	s.vault.AddItem(*item)
	return nil
}

func (s *Session) pushLocked(ctx context.Context) error {
	items, err := s.pendingItems()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	resp, err := s.server.Push(ctx, models.SyncPushRequest{
		BaseVersion: s.syncVersion,
		Items:       items,
	})
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}

	for i := range resp.Conflicts {
		if applyErr := s.applyRemoteItem(&resp.Conflicts[i]); applyErr != nil {
			return applyErr
		}
	}

	s.syncVersion = resp.NewVersion
	s.tombstones = nil
	return nil
}

// pendingItems collects local changes since the last sync: modified or
// new items plus tombstones for deletions.
func (s *Session) pendingItems() ([]models.SyncItem, error) {
	var lastSync int64
	if s.vault.LastSync != nil {
		lastSync = *s.vault.LastSync
	}

	var out []models.SyncItem
	for i := range s.vault.Items {
		item := &s.vault.Items[i]
		if item.ModifiedAt < lastSync {
			continue
		}

		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, fmt.Errorf("item %q has a malformed id: %w", item.ID, err)
		}

		encrypted, err := s.encryptItem(item)
		if err != nil {
			return nil, err
		}

		out = append(out, models.SyncItem{
			ID:            id,
			EncryptedData: encrypted,
			IsDeleted:     false,
			ModifiedAt:    item.ModifiedAt,
		})
	}

	for _, t := range s.tombstones {
		id, err := uuid.Parse(t.ID)
		if err != nil {
			continue
		}
		out = append(out, models.SyncItem{
			ID:         id,
			IsDeleted:  true,
			ModifiedAt: t.DeletedAt,
		})
	}

	return out, nil
}

func (s *Session) encryptItem(item *vault.Item) (string, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}
	defer crypto.Zeroize(raw)

	blob, err := crypto.Encrypt(raw, s.keys.VaultKey[:])
	if err != nil {
		return "", fmt.Errorf("encrypt item: %w", err)
	}

	return blob.ToBase64()
}

func (s *Session) decryptItem(encoded string) (*vault.Item, error) {
	blob, err := crypto.BlobFromBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode item blob: %w", err)
	}

	raw, err := crypto.Decrypt(blob, s.keys.VaultKey[:])
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(raw)

	var item vault.Item
	if err = json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}

	return &item, nil
}

func registerRequest(p RegisterParams, keys *crypto.KeySet, salt []byte) models.RegisterRequest {
	return models.RegisterRequest{
		Email:      p.Email,
		AuthKey:    base64.StdEncoding.EncodeToString(keys.AuthKey[:]),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		DeviceName: p.DeviceName,
		DeviceType: p.DeviceType,
	}
}

func loginRequest(p LoginParams, keys *crypto.KeySet) models.LoginRequest {
	return models.LoginRequest{
		Email:      p.Email,
		AuthKey:    base64.StdEncoding.EncodeToString(keys.AuthKey[:]),
		DeviceName: p.DeviceName,
		DeviceType: p.DeviceType,
	}
}
