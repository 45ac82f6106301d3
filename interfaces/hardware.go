package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoTag is returned by Poll when no tag is in the field.
	ErrNoTag = errors.New("no tag present")

	// ErrAuthFailed is returned when a sector rejects its derived key.
	// Non-fatal: the session skips the sector's blocks and continues.
	ErrAuthFailed = errors.New("sector authentication failed")

	// ErrReadFailed is returned when a block read fails after a
	// successful sector authentication. Non-fatal for the session.
	ErrReadFailed = errors.New("block read failed")

	// ErrTransportGone is returned when the reader hardware itself is
	// unavailable. This is the only fatal condition in the read path.
	ErrTransportGone = errors.New("tag transport unavailable")
)

// BlockSize is the payload size of a single tag memory block.
const BlockSize = 16

// Block is one raw tag memory block.
type Block [BlockSize]byte

// TagTransport is the hardware boundary for tag access. Implementations
// block at most for their hardware-level timeouts; the scanner drives one
// session at a time, so implementations need not be safe for concurrent
// use.
type TagTransport interface {
	// Poll checks the field for a tag and returns its UID, or ErrNoTag.
	// It blocks until a tag is seen, the poll interval elapses or ctx is
	// cancelled.
	Poll(ctx context.Context) (TagUID, error)

	// Authenticate presents the key for the given sector (0-15).
	// Returns ErrAuthFailed if the tag rejects the key, ErrTransportGone
	// if the hardware is lost. Re-authenticating an already authenticated
	// sector is idempotent.
	Authenticate(sector int, key SectorKey) error

	// ReadBlock reads one 16-byte block by absolute block index. The
	// owning sector must have been authenticated. Returns ErrReadFailed
	// on a per-block failure.
	ReadBlock(block int) (Block, error)

	// Close releases the transport.
	Close() error
}

// Toner emits an audio cue. Implementations must not block longer than
// the requested duration.
type Toner interface {
	Tone(freqHz int, d time.Duration)
}

// Display shows two lines of raw status text, if a display is fitted.
type Display interface {
	Show(line1, line2 string)
}
