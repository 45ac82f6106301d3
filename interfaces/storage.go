package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable is returned when a scan store backend is not
	// accessible.
	ErrStoreUnavailable = errors.New("scan store unavailable")

	// ErrInvalidLocationURI is returned when a store location URI is
	// malformed or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid store location URI")
)

// ScanEntry is one recorded tag scan in the append log.
type ScanEntry struct {
	Code       string    `json:"code"`
	TrayUID    string    `json:"trayUid"`
	ChipUID    string    `json:"chipUid,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// DedupeKey returns the key entries are deduplicated on. The tray
// identifier may be the MissingTrayUID sentinel, in which case repeated
// sentinel scans of the same code collapse to one entry.
func (e ScanEntry) DedupeKey() string {
	return e.Code + "|" + e.TrayUID
}

// ScanStore is an append-only scan log with duplicate detection.
type ScanStore interface {
	// Append records the entry unless its dedupe key is already present.
	// Returns true when the entry was recorded, false for a duplicate.
	Append(ctx context.Context, entry ScanEntry) (bool, error)

	// List returns all recorded entries in append order.
	List(ctx context.Context) ([]ScanEntry, error)

	// Name returns a short identifier for this store backend.
	Name() string

	// LocationURI returns the URI this store was created from.
	LocationURI() string
}

// ScanStoreFactory creates scan stores from location URIs.
type ScanStoreFactory interface {
	StoreFor(locationURI string) (ScanStore, error)
}
