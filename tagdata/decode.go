// Package tagdata decodes the fixed binary memory layout of spool tags
// into ScanRecord fields.
//
// Each target block is decoded independently through a table of per-block
// decode functions. Multi-byte numeric fields are little-endian; the two
// color fields are stored reversed and printed most significant byte
// first, per the tag's encoding convention. String fields are ASCII with
// trailing space or NUL padding, which is trimmed on extraction.
package tagdata

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/filatag/spool-scanner/interfaces"
)

// decodeFunc applies one block's fields to the record.
type decodeFunc func(rec *interfaces.ScanRecord, raw interfaces.Block)

// decoders maps block index to its decoder. Blocks not present here are
// ignored by Decode.
var decoders = map[int]decodeFunc{
	1:  decodeMaterialIDs,
	2:  decodeFilamentType,
	5:  decodeColorWeightDiameter,
	6:  decodeTemperatures,
	8:  decodeNozzle,
	9:  decodeTrayUID,
	10: decodeSpoolWidth,
	12: decodeProductionDate,
	14: decodeLength,
	16: decodeExtraColor,
}

// targetBlocks is the fixed read order for a scan session. Blocks sharing
// a sector are adjacent so the reader authenticates each sector once.
var targetBlocks = []int{1, 2, 5, 6, 8, 9, 10, 12, 14, 16}

// TargetBlocks returns the block indices a session reads, in order.
func TargetBlocks() []int {
	out := make([]int, len(targetBlocks))
	copy(out, targetBlocks)
	return out
}

// Decode applies the block's fields to the record and reports whether the
// block index was known. Unknown indices are a no-op, not an error.
func Decode(block int, raw interfaces.Block, rec *interfaces.ScanRecord) bool {
	dec, ok := decoders[block]
	if !ok {
		return false
	}
	dec(rec, raw)
	return true
}

// trimPadded extracts an ASCII string, dropping trailing spaces and NULs.
func trimPadded(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

// truncate caps a string at max characters.
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// reversedHex prints 4 stored bytes most significant byte first.
func reversedHex(b []byte) string {
	return fmt.Sprintf("%02X%02X%02X%02X", b[3], b[2], b[1], b[0])
}

// Block 1: 8 bytes variant id + 8 bytes material id, space-padded ASCII.
func decodeMaterialIDs(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.VariantID = truncate(trimPadded(raw[0:8]), interfaces.MaxVariantLen)
	rec.MaterialID = truncate(trimPadded(raw[8:16]), interfaces.MaxVariantLen)
}

// Block 2: 16 bytes ASCII filament type name.
func decodeFilamentType(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.FilamentType = trimPadded(raw[:])
}

// Block 5: 4-byte color, 2-byte weight in grams, float32 diameter at
// offset 8.
func decodeColorWeightDiameter(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.ColorHex = reversedHex(raw[0:4])
	rec.WeightGrams = binary.LittleEndian.Uint16(raw[4:6])
	rec.DiameterMM = math.Float32frombits(binary.LittleEndian.Uint32(raw[8:12]))
}

// Block 6: drying temperature, drying time, bed temperature, hotend max,
// hotend min. Offset 4 holds a bed-type discriminator the scanner does
// not use.
func decodeTemperatures(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.DryTempC = binary.LittleEndian.Uint16(raw[0:2])
	rec.DryTimeH = binary.LittleEndian.Uint16(raw[2:4])
	rec.BedTempC = binary.LittleEndian.Uint16(raw[6:8])
	rec.HotendMaxC = binary.LittleEndian.Uint16(raw[8:10])
	rec.HotendMinC = binary.LittleEndian.Uint16(raw[10:12])
}

// Block 8: float32 nozzle diameter at offset 12.
func decodeNozzle(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.NozzleMM = math.Float32frombits(binary.LittleEndian.Uint32(raw[12:16]))
}

// Block 9: 16 raw bytes of tray UID, hex-encoded.
func decodeTrayUID(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.TrayUID = truncate(fmt.Sprintf("%X", raw[:]), interfaces.MaxTrayHexLen)
}

// Block 10: spool width at offset 4, hundredths of a millimeter.
func decodeSpoolWidth(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.SpoolWidthMM = float32(binary.LittleEndian.Uint16(raw[4:6])) / 100
}

// Block 12: 16 bytes ASCII production date/time.
func decodeProductionDate(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.ProductionDate = trimPadded(raw[:])
}

// Block 14: filament length in meters at offset 4.
func decodeLength(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.LengthM = binary.LittleEndian.Uint16(raw[4:6])
}

// Block 16: format id, color count and the second color at offset 4.
func decodeExtraColor(rec *interfaces.ScanRecord, raw interfaces.Block) {
	rec.FormatID = binary.LittleEndian.Uint16(raw[0:2])
	rec.ColorCount = binary.LittleEndian.Uint16(raw[2:4])
	rec.SecondColorHex = reversedHex(raw[4:8])
}
