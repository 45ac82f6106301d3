package interfaces

import (
	"encoding/hex"
	"fmt"
)

// Sentinel values standing in for "field intentionally unresolved",
// distinct from absence. They are part of the wire contract with the
// append service and must not be changed.
const (
	// UnresolvedCode marks a filament code that could not be resolved
	// against the material table.
	UnresolvedCode = "?"

	// MissingTrayUID marks a scan where block 9 never decoded. The append
	// service dedupes on this literal, so scans lacking tray data are
	// still recorded once per filament code.
	MissingTrayUID = "Tray UID missing"
)

// Maximum lengths for trimmed string fields. These mirror the fixed
// buffer sizes of the tag layout and are enforced on assignment.
const (
	MaxCodeLen    = 6
	MaxVariantLen = 8
	MaxTrayHexLen = 32
)

// TagUID is a card unique identifier as acquired from the transport.
// It is read-only once acquired; its lifetime is the scan session.
type TagUID []byte

// NewTagUID validates and copies a raw UID. Valid UIDs are 4 to 16 bytes.
func NewTagUID(raw []byte) (TagUID, error) {
	if len(raw) < 4 || len(raw) > 16 {
		return nil, fmt.Errorf("invalid UID length: %d bytes", len(raw))
	}
	uid := make(TagUID, len(raw))
	copy(uid, raw)
	return uid, nil
}

// Hex returns the UID as an uppercase hex string.
func (u TagUID) Hex() string {
	return fmt.Sprintf("%X", []byte(u))
}

// String returns the lowercase hex form, used in log attributes.
func (u TagUID) String() string {
	return hex.EncodeToString(u)
}

// SectorKey is a single 6-byte MIFARE Classic sector authentication key.
type SectorKey [6]byte

// SectorCount is the number of sectors on the supported tag layout.
const SectorCount = 16

// SectorKeySet is the ordered set of per-sector authentication keys,
// indexed by sector number 0-15. Key sets are secret-derived and must
// never be logged.
type SectorKeySet [SectorCount]SectorKey

// Key returns the authentication key for the given sector.
func (s SectorKeySet) Key(sector int) SectorKey {
	return s[sector]
}

// ScanRecord is the decoded state accumulated over one scan session.
// Fields are populated incrementally as blocks decode; a failed
// authentication or read leaves existing values untouched.
type ScanRecord struct {
	// Code is the resolved filament code, or UnresolvedCode on a lookup
	// miss. Empty until material resolution runs.
	Code string

	// Name is the friendly display name from the material table, or the
	// raw material string when resolution missed.
	Name string

	// Color is the color label from the material table.
	Color string

	// VariantID and MaterialID are the raw trimmed strings from block 1.
	VariantID  string
	MaterialID string

	// FilamentType is the raw type name from block 2.
	FilamentType string

	// TrayUID is the 32-hex-char spool identifier from block 9, or the
	// MissingTrayUID sentinel.
	TrayUID string

	// ChipUID is the hex-encoded tag identifier.
	ChipUID string

	// ColorHex is the block 5 color, printed most significant byte first.
	ColorHex    string
	WeightGrams uint16
	DiameterMM  float32

	DryTempC   uint16
	DryTimeH   uint16
	BedTempC   uint16
	HotendMaxC uint16
	HotendMinC uint16

	NozzleMM       float32
	SpoolWidthMM   float32
	ProductionDate string
	LengthM        uint16

	FormatID       uint16
	ColorCount     uint16
	SecondColorHex string
}

// NewScanRecord returns the session-start state for a freshly identified
// tag: every field zeroed, tray identifier at its missing sentinel and
// the chip identifier set from the UID. Records are reconstructed, not
// mutated in place, so no stale data can leak across sessions.
func NewScanRecord(uid TagUID) ScanRecord {
	return ScanRecord{
		TrayUID: MissingTrayUID,
		ChipUID: uid.Hex(),
	}
}

// Submittable reports whether the record passes the submission guard:
// a resolved, non-sentinel code and a non-empty tray identifier string.
// TrayUID defaults to the missing sentinel rather than empty, so the tray
// condition always holds once a code resolves.
func (r ScanRecord) Submittable() bool {
	return r.Code != "" && r.Code != UnresolvedCode && r.TrayUID != ""
}
