// Package reader drives the sector authenticate/read loop over a
// TagTransport, tolerating per-sector and per-block failures.
package reader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/filatag/spool-scanner/interfaces"
	"github.com/filatag/spool-scanner/metrics"
)

// blocksPerSector is fixed by the tag layout: 4 blocks share one key.
const blocksPerSector = 4

// Reader reads target blocks from a presented tag.
type Reader struct {
	transport interfaces.TagTransport
	log       *slog.Logger
}

// New creates a Reader over the given transport.
func New(transport interfaces.TagTransport, log *slog.Logger) *Reader {
	return &Reader{transport: transport, log: log}
}

// ReadBlocks authenticates and reads the target blocks in list order,
// returning whatever subset succeeded.
//
// The sector for each block is block/4. A sector is re-authenticated only
// when it differs from the previous target block's sector; the cached
// result (success or failure) carries across adjacent blocks of the same
// sector. An authentication failure skips all of that sector's adjacent
// target blocks; a read failure skips the single block. Partial results
// are not an error; only a lost transport aborts the call.
func (r *Reader) ReadBlocks(keys interfaces.SectorKeySet, blocks []int) (map[int]interfaces.Block, error) {
	out := make(map[int]interfaces.Block, len(blocks))

	lastSector := -1
	sectorOK := false

	for _, block := range blocks {
		sector := block / blocksPerSector
		if sector < 0 || sector >= interfaces.SectorCount {
			r.log.Warn("Target block outside tag layout", "block", block)
			continue
		}

		if sector != lastSector {
			lastSector = sector
			err := r.transport.Authenticate(sector, keys.Key(sector))
			switch {
			case err == nil:
				sectorOK = true
			case errors.Is(err, interfaces.ErrAuthFailed):
				sectorOK = false
				metrics.AuthFailures.Inc()
				r.log.Warn("Sector authentication failed, skipping its blocks",
					"sector", sector, "err", err)
			default:
				return out, fmt.Errorf("%w: authenticating sector %d: %v",
					interfaces.ErrTransportGone, sector, err)
			}
		}

		if !sectorOK {
			continue
		}

		raw, err := r.transport.ReadBlock(block)
		switch {
		case err == nil:
			out[block] = raw
		case errors.Is(err, interfaces.ErrReadFailed):
			r.log.Warn("Block read failed, skipping",
				"block", block, "sector", sector, "err", err)
		default:
			return out, fmt.Errorf("%w: reading block %d: %v",
				interfaces.ErrTransportGone, block, err)
		}
	}

	return out, nil
}
