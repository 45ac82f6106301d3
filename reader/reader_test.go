package reader

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filatag/spool-scanner/interfaces"
	"github.com/filatag/spool-scanner/keyderive"
	"github.com/filatag/spool-scanner/tagdata"
	"github.com/filatag/spool-scanner/transport/sim"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullTag() (interfaces.TagUID, map[int]interfaces.Block) {
	uid := interfaces.TagUID{0x04, 0xAA, 0xBB, 0xCC}
	blocks := make(map[int]interfaces.Block)
	for _, b := range tagdata.TargetBlocks() {
		var raw interfaces.Block
		raw[0] = byte(b)
		blocks[b] = raw
	}
	return uid, blocks
}

func TestReadBlocksAllSucceed(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)

	r := New(transport, testLogger())
	got, err := r.ReadBlocks(keyderive.Derive(uid), tagdata.TargetBlocks())
	require.NoError(t, err)

	assert.Len(t, got, len(tagdata.TargetBlocks()))
	for _, b := range tagdata.TargetBlocks() {
		assert.Equal(t, byte(b), got[b][0], "block %d payload", b)
	}
}

func TestReadBlocksAuthFailureSkipsSector(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)

	// Block 9 lives in sector 2 together with targets 8 and 10.
	transport.FailAuth(2)

	r := New(transport, testLogger())
	got, err := r.ReadBlocks(keyderive.Derive(uid), tagdata.TargetBlocks())
	require.NoError(t, err, "partial results are not an error")

	assert.NotContains(t, got, 8)
	assert.NotContains(t, got, 9)
	assert.NotContains(t, got, 10)
	assert.Len(t, got, len(tagdata.TargetBlocks())-3, "all other sectors must still read")
}

func TestReadBlocksReadFailureSkipsSingleBlock(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)
	transport.FailRead(9)

	r := New(transport, testLogger())
	got, err := r.ReadBlocks(keyderive.Derive(uid), tagdata.TargetBlocks())
	require.NoError(t, err)

	assert.NotContains(t, got, 9)
	assert.Contains(t, got, 8, "sibling blocks in the sector still read")
	assert.Contains(t, got, 10)
	assert.Len(t, got, len(tagdata.TargetBlocks())-1)
}

func TestReadBlocksAuthenticatesOncePerSectorRun(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)

	r := New(transport, testLogger())
	_, err := r.ReadBlocks(keyderive.Derive(uid), tagdata.TargetBlocks())
	require.NoError(t, err)

	sectors := make(map[int]bool)
	for _, b := range tagdata.TargetBlocks() {
		sectors[b/4] = true
	}
	assert.Equal(t, len(sectors), transport.AuthCalls(),
		"adjacent blocks of one sector must reuse the authentication")
}

func TestReadBlocksReauthenticatesOnSectorChange(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)

	r := New(transport, testLogger())
	// A list that leaves sector 0 and comes back: the cached result only
	// spans adjacent blocks, so sector 0 authenticates twice.
	_, err := r.ReadBlocks(keyderive.Derive(uid), []int{1, 5, 2})
	require.NoError(t, err)

	assert.Equal(t, 3, transport.AuthCalls())
}

func TestReadBlocksTransportGone(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)
	require.NoError(t, transport.Close())

	r := New(transport, testLogger())
	_, err := r.ReadBlocks(keyderive.Derive(uid), tagdata.TargetBlocks())
	assert.ErrorIs(t, err, interfaces.ErrTransportGone)
}

func TestReadBlocksIgnoresOutOfRangeTargets(t *testing.T) {
	transport := sim.New()
	uid, blocks := fullTag()
	transport.PresentTag(uid, blocks)

	r := New(transport, testLogger())
	got, err := r.ReadBlocks(keyderive.Derive(uid), []int{1, 64, 2})
	require.NoError(t, err)

	assert.Contains(t, got, 1)
	assert.Contains(t, got, 2)
	assert.NotContains(t, got, 64)
}
