// Package sim provides an in-memory TagTransport for tests and the
// scanner's --sim mode.
package sim

import (
	"context"
	"sync"

	"github.com/filatag/spool-scanner/interfaces"
)

// Transport simulates a tag reader holding at most one tag. Failure
// injection is per sector (authentication) and per block (read).
type Transport struct {
	mu sync.Mutex

	uid     interfaces.TagUID
	blocks  map[int]interfaces.Block
	present bool

	failAuthSectors map[int]bool
	failReadBlocks  map[int]bool
	authedSectors   map[int]bool
	removeAfterPoll bool
	polled          bool

	authCalls int
	closed    bool
}

// New creates an empty transport with no tag in the field.
func New() *Transport {
	return &Transport{
		failAuthSectors: make(map[int]bool),
		failReadBlocks:  make(map[int]bool),
		authedSectors:   make(map[int]bool),
	}
}

// PresentTag places a tag in the field.
func (t *Transport) PresentTag(uid interfaces.TagUID, blocks map[int]interfaces.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uid = uid
	t.blocks = blocks
	t.present = true
	t.authedSectors = make(map[int]bool)
	t.removeAfterPoll = false
	t.polled = false
}

// PresentTagOnce places a tag that leaves the field after its first
// successful poll. Used by the scanner's --sim smoke mode.
func (t *Transport) PresentTagOnce(uid interfaces.TagUID, blocks map[int]interfaces.Block) {
	t.PresentTag(uid, blocks)
	t.mu.Lock()
	t.removeAfterPoll = true
	t.mu.Unlock()
}

// RemoveTag clears the field.
func (t *Transport) RemoveTag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.present = false
	t.authedSectors = make(map[int]bool)
}

// FailAuth makes the given sector reject authentication.
func (t *Transport) FailAuth(sector int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAuthSectors[sector] = true
}

// FailRead makes the given block fail to read.
func (t *Transport) FailRead(block int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failReadBlocks[block] = true
}

// AuthCalls returns how many Authenticate calls were made.
func (t *Transport) AuthCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authCalls
}

// Poll implements interfaces.TagTransport.
func (t *Transport) Poll(ctx context.Context) (interfaces.TagUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, interfaces.ErrTransportGone
	}
	if !t.present {
		return nil, interfaces.ErrNoTag
	}
	if t.removeAfterPoll {
		if t.polled {
			// The once-presented tag has left the field.
			return nil, interfaces.ErrNoTag
		}
		t.polled = true
	}
	return t.uid, nil
}

// Authenticate implements interfaces.TagTransport.
func (t *Transport) Authenticate(sector int, key interfaces.SectorKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authCalls++
	if t.closed {
		return interfaces.ErrTransportGone
	}
	if !t.present || t.failAuthSectors[sector] {
		return interfaces.ErrAuthFailed
	}
	t.authedSectors[sector] = true
	return nil
}

// ReadBlock implements interfaces.TagTransport.
func (t *Transport) ReadBlock(block int) (interfaces.Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return interfaces.Block{}, interfaces.ErrTransportGone
	}
	if !t.present || !t.authedSectors[block/4] || t.failReadBlocks[block] {
		return interfaces.Block{}, interfaces.ErrReadFailed
	}
	raw, ok := t.blocks[block]
	if !ok {
		return interfaces.Block{}, interfaces.ErrReadFailed
	}
	return raw, nil
}

// Close implements interfaces.TagTransport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
