// Package pcsc implements the TagTransport over a PC/SC contactless
// reader using the standard MIFARE Classic pseudo-APDUs.
package pcsc

import (
	"context"
	"fmt"
	"time"

	"github.com/ebfe/scard"

	"github.com/filatag/spool-scanner/interfaces"
)

// keySlot is the reader-side volatile key slot used for all sectors; the
// key is reloaded before each authentication.
const keySlot = 0x00

// Transport drives a single PC/SC reader. It is not safe for concurrent
// use; the scanner runs one session at a time.
type Transport struct {
	ctx    *scard.Context
	reader string
	card   *scard.Card
}

// Connect establishes a PC/SC context on the reader with the given index.
func Connect(readerIndex int) (*Transport, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("no readers found: %v", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader index out of range (0..%d)", len(readers)-1)
	}

	return &Transport{ctx: ctx, reader: readers[readerIndex]}, nil
}

// Poll connects to a card in the field and reads its UID. Without a card
// the connect fails fast and ErrNoTag is returned.
func (t *Transport) Poll(ctx context.Context) (interfaces.TagUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.card != nil {
		// Drop the previous session's connection so a re-presented tag
		// starts clean.
		_ = t.card.Disconnect(scard.LeaveCard)
		t.card = nil
	}

	card, err := t.ctx.Connect(t.reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, interfaces.ErrNoTag
	}
	t.card = card

	// FF CA 00 00 00: PC/SC get UID.
	rsp, err := card.Transmit([]byte{0xFF, 0xCA, 0x00, 0x00, 0x00})
	if err != nil {
		return nil, fmt.Errorf("%w: get UID: %v", interfaces.ErrTransportGone, err)
	}
	data, ok := swOK(rsp)
	if !ok {
		return nil, interfaces.ErrNoTag
	}

	uid, err := interfaces.NewTagUID(data)
	if err != nil {
		return nil, interfaces.ErrNoTag
	}
	return uid, nil
}

// Authenticate loads the sector key into the reader's volatile slot and
// runs General Authenticate with key type A against the sector's first
// block.
func (t *Transport) Authenticate(sector int, key interfaces.SectorKey) error {
	if t.card == nil {
		return interfaces.ErrTransportGone
	}

	// FF 82 00 <slot> 06 <key>: load key into volatile memory.
	load := append([]byte{0xFF, 0x82, 0x00, keySlot, 0x06}, key[:]...)
	rsp, err := t.card.Transmit(load)
	if err != nil {
		return fmt.Errorf("%w: load key: %v", interfaces.ErrTransportGone, err)
	}
	if _, ok := swOK(rsp); !ok {
		return interfaces.ErrAuthFailed
	}

	// FF 86 00 00 05 01 00 <block> 60 <slot>: authenticate key A.
	block := byte(sector * 4)
	auth := []byte{0xFF, 0x86, 0x00, 0x00, 0x05, 0x01, 0x00, block, 0x60, keySlot}
	rsp, err = t.card.Transmit(auth)
	if err != nil {
		return fmt.Errorf("%w: authenticate: %v", interfaces.ErrTransportGone, err)
	}
	if _, ok := swOK(rsp); !ok {
		return interfaces.ErrAuthFailed
	}
	return nil
}

// ReadBlock reads one 16-byte block with Read Binary.
func (t *Transport) ReadBlock(block int) (interfaces.Block, error) {
	var out interfaces.Block
	if t.card == nil {
		return out, interfaces.ErrTransportGone
	}

	// FF B0 00 <block> 10: read binary.
	rsp, err := t.card.Transmit([]byte{0xFF, 0xB0, 0x00, byte(block), 0x10})
	if err != nil {
		return out, fmt.Errorf("%w: read binary: %v", interfaces.ErrTransportGone, err)
	}
	data, ok := swOK(rsp)
	if !ok || len(data) != interfaces.BlockSize {
		return out, interfaces.ErrReadFailed
	}
	copy(out[:], data)
	return out, nil
}

// Close disconnects the card and releases the PC/SC context.
func (t *Transport) Close() error {
	if t.card != nil {
		_ = t.card.Disconnect(scard.LeaveCard)
		t.card = nil
	}
	if t.ctx != nil {
		return t.ctx.Release()
	}
	return nil
}

// swOK splits an APDU response into payload and checks for SW 90 00.
func swOK(rsp []byte) ([]byte, bool) {
	if len(rsp) < 2 {
		return nil, false
	}
	sw1, sw2 := rsp[len(rsp)-2], rsp[len(rsp)-1]
	return rsp[:len(rsp)-2], sw1 == 0x90 && sw2 == 0x00
}

// Beeper emits tones on the host terminal bell. Real devices drive a
// piezo; on a workstation the bell plus the duration pause preserves the
// cue rhythm.
type Beeper struct{}

// Tone implements interfaces.Toner.
func (Beeper) Tone(freqHz int, d time.Duration) {
	fmt.Print("\a")
	time.Sleep(d)
}
