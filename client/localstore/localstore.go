// Package localstore is the single durable persistence boundary for the
// storefront client. It holds the credential pair, the guest cart, and
// per-user wishlists as JSON files under one directory. Every write goes
// through an atomic rename so a crash mid-write can never leave a partial
// snapshot on disk.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/atikur-web-dev/shopeasy/internal/domain"
)

const (
	sessionFile   = "session.json"
	guestCartFile = "guest_cart.json"
)

// Store persists client state under a single directory.
type Store struct {
	dir string
}

// Open creates the storage directory if needed and returns a store bound to it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("localstore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("localstore: create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SessionRecord is the durable credential pair. Token and User are always
// written together; a record with only one of them set is invalid.
type SessionRecord struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Valid reports whether the record holds a complete credential pair.
func (r *SessionRecord) Valid() bool {
	return r != nil && r.Token != "" && r.User != nil && r.User.ID != ""
}

// LoadSession reads the persisted credential pair. A missing file or a
// corrupt or partial record returns (nil, nil); corrupt data is treated as
// no session rather than an error the caller must classify.
func (s *Store) LoadSession() (*SessionRecord, error) {
	var rec SessionRecord
	ok, err := s.read(sessionFile, &rec)
	if err != nil || !ok {
		return nil, err
	}
	if !rec.Valid() {
		// Partial or corrupt pair: discard it entirely.
		_ = s.remove(sessionFile)
		return nil, nil
	}
	return &rec, nil
}

// SaveSession atomically persists the credential pair.
func (s *Store) SaveSession(token string, user *domain.User) error {
	rec := SessionRecord{Token: token, User: user}
	if !rec.Valid() {
		return errors.New("localstore: refusing to persist a partial credential pair")
	}
	return s.write(sessionFile, &rec)
}

// ClearSession removes the persisted credential pair. Clearing an absent
// session is a no-op.
func (s *Store) ClearSession() error {
	return s.remove(sessionFile)
}

// LoadGuestCart reads the guest cart lines. A missing or corrupt file yields
// an empty cart.
func (s *Store) LoadGuestCart() ([]domain.CartItem, error) {
	var items []domain.CartItem
	ok, err := s.read(guestCartFile, &items)
	if err != nil {
		return nil, err
	}
	if !ok || items == nil {
		return []domain.CartItem{}, nil
	}
	return items, nil
}

// SaveGuestCart atomically persists the guest cart lines.
func (s *Store) SaveGuestCart(items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	return s.write(guestCartFile, items)
}

// ClearGuestCart removes the persisted guest cart.
func (s *Store) ClearGuestCart() error {
	return s.remove(guestCartFile)
}

// LoadWishlist reads the product IDs wished by the given user.
func (s *Store) LoadWishlist(userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.New("localstore: user id is required")
	}
	var ids []string
	ok, err := s.read(wishlistFileName(userID), &ids)
	if err != nil {
		return nil, err
	}
	if !ok || ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

// SaveWishlist atomically persists the user's wishlist.
func (s *Store) SaveWishlist(userID string, productIDs []string) error {
	if userID == "" {
		return errors.New("localstore: user id is required")
	}
	if productIDs == nil {
		productIDs = []string{}
	}
	return s.write(wishlistFileName(userID), productIDs)
}

func wishlistFileName(userID string) string {
	// User IDs are UUIDs; the replacement guards against path separators in
	// anything else callers might pass.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	return "wishlist_" + safe + ".json"
}

// read decodes the named file into v. Returns false when the file does not
// exist or cannot be decoded.
func (s *Store) read(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("localstore: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt state is unreadable state.
		return false, nil
	}
	return true, nil
}

// write encodes v and atomically replaces the named file.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("localstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstore: close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstore: replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localstore: remove %s: %w", name, err)
	}
	return nil
}
