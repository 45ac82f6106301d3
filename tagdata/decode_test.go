package tagdata

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filatag/spool-scanner/interfaces"
)

// asciiBlock space-pads s into a 16-byte block.
func asciiBlock(s string) interfaces.Block {
	var b interfaces.Block
	for i := range b {
		b[i] = ' '
	}
	copy(b[:], s)
	return b
}

func TestDecodeMaterialIDs(t *testing.T) {
	raw := asciiBlock("10100000" + "PLA0000 ")

	var rec interfaces.ScanRecord
	require.True(t, Decode(1, raw, &rec))

	assert.Equal(t, "10100000", rec.VariantID)
	assert.Equal(t, "PLA0000", rec.MaterialID, "trailing pad spaces must be trimmed")
}

func TestDecodeMaterialIDsTrimsNuls(t *testing.T) {
	var raw interfaces.Block
	copy(raw[0:8], "A1B2\x00\x00\x00\x00")
	copy(raw[8:16], "PETG\x00\x00\x00\x00")

	var rec interfaces.ScanRecord
	require.True(t, Decode(1, raw, &rec))

	assert.Equal(t, "A1B2", rec.VariantID)
	assert.Equal(t, "PETG", rec.MaterialID)
}

func TestDecodeFilamentType(t *testing.T) {
	var rec interfaces.ScanRecord
	require.True(t, Decode(2, asciiBlock("PLA Basic"), &rec))
	assert.Equal(t, "PLA Basic", rec.FilamentType)
}

func TestDecodeColorWeightDiameter(t *testing.T) {
	var raw interfaces.Block
	// Stored reversed: printing most significant byte first must yield
	// 00A5FFFF.
	raw[0], raw[1], raw[2], raw[3] = 0xFF, 0xFF, 0xA5, 0x00
	binary.LittleEndian.PutUint16(raw[4:6], 1000)
	binary.LittleEndian.PutUint32(raw[8:12], math.Float32bits(1.75))

	var rec interfaces.ScanRecord
	require.True(t, Decode(5, raw, &rec))

	assert.Equal(t, "00A5FFFF", rec.ColorHex)
	assert.Equal(t, uint16(1000), rec.WeightGrams)
	assert.InDelta(t, 1.75, rec.DiameterMM, 0.0001)
}

func TestDecodeTemperatures(t *testing.T) {
	var raw interfaces.Block
	binary.LittleEndian.PutUint16(raw[0:2], 55)
	binary.LittleEndian.PutUint16(raw[2:4], 8)
	// Offset 4 is the unused bed-type discriminator; make it non-zero to
	// prove it never leaks into a decoded field.
	binary.LittleEndian.PutUint16(raw[4:6], 0xFFFF)
	binary.LittleEndian.PutUint16(raw[6:8], 60)
	binary.LittleEndian.PutUint16(raw[8:10], 230)
	binary.LittleEndian.PutUint16(raw[10:12], 190)

	var rec interfaces.ScanRecord
	require.True(t, Decode(6, raw, &rec))

	assert.Equal(t, uint16(55), rec.DryTempC)
	assert.Equal(t, uint16(8), rec.DryTimeH)
	assert.Equal(t, uint16(60), rec.BedTempC)
	assert.Equal(t, uint16(230), rec.HotendMaxC)
	assert.Equal(t, uint16(190), rec.HotendMinC)
}

func TestDecodeNozzle(t *testing.T) {
	var raw interfaces.Block
	binary.LittleEndian.PutUint32(raw[12:16], math.Float32bits(0.4))

	var rec interfaces.ScanRecord
	require.True(t, Decode(8, raw, &rec))
	assert.InDelta(t, 0.4, rec.NozzleMM, 0.0001)
}

func TestDecodeTrayUID(t *testing.T) {
	var raw interfaces.Block
	for i := range raw {
		raw[i] = byte(i)
	}

	var rec interfaces.ScanRecord
	require.True(t, Decode(9, raw, &rec))

	assert.Equal(t, "000102030405060708090A0B0C0D0E0F", rec.TrayUID)
	assert.Len(t, rec.TrayUID, interfaces.MaxTrayHexLen)
}

func TestDecodeSpoolWidth(t *testing.T) {
	var raw interfaces.Block
	binary.LittleEndian.PutUint16(raw[4:6], 6650)

	var rec interfaces.ScanRecord
	require.True(t, Decode(10, raw, &rec))
	assert.InDelta(t, 66.5, rec.SpoolWidthMM, 0.0001)
}

func TestDecodeProductionDate(t *testing.T) {
	var rec interfaces.ScanRecord
	require.True(t, Decode(12, asciiBlock("2024_03_14_08_30"), &rec))
	assert.Equal(t, "2024_03_14_08_30", rec.ProductionDate)
}

func TestDecodeLength(t *testing.T) {
	var raw interfaces.Block
	binary.LittleEndian.PutUint16(raw[4:6], 330)

	var rec interfaces.ScanRecord
	require.True(t, Decode(14, raw, &rec))
	assert.Equal(t, uint16(330), rec.LengthM)
}

func TestDecodeExtraColor(t *testing.T) {
	var raw interfaces.Block
	binary.LittleEndian.PutUint16(raw[0:2], 2)
	binary.LittleEndian.PutUint16(raw[2:4], 2)
	raw[4], raw[5], raw[6], raw[7] = 0x30, 0x4A, 0xC8, 0xFF

	var rec interfaces.ScanRecord
	require.True(t, Decode(16, raw, &rec))

	assert.Equal(t, uint16(2), rec.FormatID)
	assert.Equal(t, uint16(2), rec.ColorCount)
	assert.Equal(t, "FFC84A30", rec.SecondColorHex)
}

func TestDecodeUnknownBlockIsNoOp(t *testing.T) {
	uid := interfaces.TagUID{0x04, 0x12, 0x34, 0x56}
	before := interfaces.NewScanRecord(uid)
	rec := before

	var raw interfaces.Block
	for i := range raw {
		raw[i] = 0xFF
	}

	for _, block := range []int{0, 3, 4, 7, 11, 13, 15, 17, 63, -1} {
		assert.False(t, Decode(block, raw, &rec), "block %d", block)
	}
	assert.Equal(t, before, rec, "unknown blocks must not touch the record")
}

func TestTargetBlocksSectorAdjacency(t *testing.T) {
	blocks := TargetBlocks()
	require.NotEmpty(t, blocks)

	// Every target block must have a decoder, and blocks of one sector
	// must be adjacent so a session authenticates each sector once.
	seenSectors := make(map[int]bool)
	lastSector := -1
	for _, b := range blocks {
		_, ok := decoders[b]
		assert.True(t, ok, "target block %d has no decoder", b)

		sector := b / 4
		if sector != lastSector {
			assert.False(t, seenSectors[sector], "sector %d appears non-contiguously", sector)
			seenSectors[sector] = true
			lastSector = sector
		}
	}
}

func TestTargetBlocksReturnsCopy(t *testing.T) {
	a := TargetBlocks()
	a[0] = 99
	assert.NotEqual(t, a[0], TargetBlocks()[0])
}
