// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

// Package vault holds the client-side plaintext credential model. A
// Vault exists only in memory while unlocked; at rest and in transit it
// is always an AEAD blob produced by Export.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/crypto"
)

// SchemaVersion is stamped into every exported vault. Import rejects
// vaults from a newer schema.
const SchemaVersion = 1

var (
	// ErrItemNotFound indicates the item id is not in the vault.
	ErrItemNotFound = errors.New("vault item not found")
	// ErrVersionMismatch indicates an imported vault from a newer,
	// unknown schema version.
	ErrVersionMismatch = errors.New("unsupported vault schema version")
)

// CustomField is one extra name/value pair on an item. Hidden fields
// are masked in UIs the way passwords are.
type CustomField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Hidden bool   `json:"hidden"`
}

// Item is a single credential. Timestamps are Unix epoch seconds;
// ModifiedAt drives last-write-wins conflict resolution during sync.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	URL          string        `json:"url,omitempty"`
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	Notes        string        `json:"notes,omitempty"`
	Category     string        `json:"category,omitempty"`
	Favorite     bool          `json:"favorite"`
	CreatedAt    int64         `json:"created_at"`
	ModifiedAt   int64         `json:"modified_at"`
	CustomFields []CustomField `json:"custom_fields"`
}

// NewItem creates an item with a fresh UUID and both timestamps set to
// now.
func NewItem(name, username, password string) Item {
	now := time.Now().Unix()
	return Item{
		ID:           uuid.NewString(),
		Name:         name,
		Username:     username,
		Password:     password,
		CreatedAt:    now,
		ModifiedAt:   now,
		CustomFields: []CustomField{},
	}
}

// Touch stamps the modification time.
func (i *Item) Touch() {
	i.ModifiedAt = time.Now().Unix()
}

// AddCustomField appends one extra field to the item.
func (i *Item) AddCustomField(name, value string, hidden bool) {
	i.CustomFields = append(i.CustomFields, CustomField{Name: name, Value: value, Hidden: hidden})
}

// Vault is the ordered collection of items plus category bookkeeping.
type Vault struct {
	Version    int      `json:"version"`
	Items      []Item   `json:"items"`
	Categories []string `json:"categories"`
	LastSync   *int64   `json:"last_sync,omitempty"`
}

// New creates an empty vault with the default categories.
func New() *Vault {
	return &Vault{
		Version:    SchemaVersion,
		Items:      []Item{},
		Categories: []string{"Login", "Credit Card", "Identity", "Secure Note"},
	}
}

// AddItem appends the item and returns its id.
func (v *Vault) AddItem(item Item) string {
	v.Items = append(v.Items, item)
	return item.ID
}

// GetItem returns the item with the given id.
func (v *Vault) GetItem(id string) (*Item, error) {
	for idx := range v.Items {
		if v.Items[idx].ID == id {
			return &v.Items[idx], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// UpdateItem replaces the item with the given id, preserving the id and
// stamping the modification time.
func (v *Vault) UpdateItem(id string, updated Item) error {
	for idx := range v.Items {
		if v.Items[idx].ID == id {
			updated.ID = id
			updated.Touch()
			v.Items[idx] = updated
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// RemoveItem deletes the item with the given id and returns it.
func (v *Vault) RemoveItem(id string) (Item, error) {
	for idx := range v.Items {
		if v.Items[idx].ID == id {
			removed := v.Items[idx]
			v.Items = append(v.Items[:idx], v.Items[idx+1:]...)
			return removed, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Search returns items whose name, username, or URL contains query,
// case-insensitively.
func (v *Vault) Search(query string) []*Item {
	q := strings.ToLower(query)
	var out []*Item
	for idx := range v.Items {
		item := &v.Items[idx]
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Username), q) ||
			strings.Contains(strings.ToLower(item.URL), q) {
			out = append(out, item)
		}
	}
	return out
}

// FindByURL returns items whose URL matches the given one at the domain
// level, for autofill. Subdomains match their parent domain in both
// directions.
func (v *Vault) FindByURL(url string) []*Item {
	domain := extractDomain(url)
	var out []*Item
	for idx := range v.Items {
		item := &v.Items[idx]
		if item.URL == "" {
			continue
		}
		if domainsMatch(domain, extractDomain(item.URL)) {
			out = append(out, item)
		}
	}
	return out
}

// GetByCategory returns items in the given category.
func (v *Vault) GetByCategory(category string) []*Item {
	var out []*Item
	for idx := range v.Items {
		if v.Items[idx].Category == category {
			out = append(out, &v.Items[idx])
		}
	}
	return out
}

// GetFavorites returns items flagged as favorite.
func (v *Vault) GetFavorites() []*Item {
	var out []*Item
	for idx := range v.Items {
		if v.Items[idx].Favorite {
			out = append(out, &v.Items[idx])
		}
	}
	return out
}

// AddCategory registers a category if not already present.
func (v *Vault) AddCategory(category string) {
	for _, c := range v.Categories {
		if c == category {
			return
		}
	}
	v.Categories = append(v.Categories, category)
}

// Len returns the number of items.
func (v *Vault) Len() int {
	return len(v.Items)
}

// Export serializes the vault and seals it under key. The plaintext
// serialization is wiped before returning.
func (v *Vault) Export(key []byte) (*crypto.EncryptedBlob, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal vault: %w", err)
	}
	defer crypto.Zeroize(raw)

	return crypto.Encrypt(raw, key)
}

// Import opens an exported blob under key and parses the vault. Fails
// with [ErrVersionMismatch] when the schema version is newer than this
// build understands.
func Import(blob *crypto.EncryptedBlob, key []byte) (*Vault, error) {
	raw, err := crypto.Decrypt(blob, key)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(raw)

	var v Vault
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal vault: %w", err)
	}

	if v.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersionMismatch, v.Version)
	}

	return &v, nil
}

// extractDomain strips the scheme, leading www., and any path from a
// URL, leaving the lowercased host.
func extractDomain(url string) string {
	d := strings.TrimPrefix(url, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.ToLower(d)
}

// domainsMatch reports whether the domains are equal or one is a
// subdomain of the other.
func domainsMatch(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}
