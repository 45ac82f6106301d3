package sim

import (
	"encoding/binary"
	"math"

	"github.com/filatag/spool-scanner/interfaces"
)

// DemoTag returns a fully populated PLA Basic tag image for the
// scanner's --sim smoke mode.
func DemoTag() (interfaces.TagUID, map[int]interfaces.Block) {
	uid := interfaces.TagUID{0x04, 0x91, 0xA2, 0xB3}

	blocks := map[int]interfaces.Block{
		1:  asciiBlock("10100000" + "PLA0000 "),
		2:  asciiBlock("PLA Basic"),
		12: asciiBlock("2024_03_14_08_30"),
	}

	var b5 interfaces.Block
	// Jade white, stored reversed.
	b5[0], b5[1], b5[2], b5[3] = 0xFF, 0xFF, 0xFF, 0xFF
	binary.LittleEndian.PutUint16(b5[4:6], 1000)
	binary.LittleEndian.PutUint32(b5[8:12], math.Float32bits(1.75))
	blocks[5] = b5

	var b6 interfaces.Block
	binary.LittleEndian.PutUint16(b6[0:2], 55)
	binary.LittleEndian.PutUint16(b6[2:4], 8)
	binary.LittleEndian.PutUint16(b6[6:8], 60)
	binary.LittleEndian.PutUint16(b6[8:10], 230)
	binary.LittleEndian.PutUint16(b6[10:12], 190)
	blocks[6] = b6

	var b8 interfaces.Block
	binary.LittleEndian.PutUint32(b8[12:16], math.Float32bits(0.4))
	blocks[8] = b8

	var b9 interfaces.Block
	copy(b9[:], []byte{
		0xA1, 0x04, 0x7C, 0x3E, 0x00, 0x11, 0x22, 0x33,
		0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB,
	})
	blocks[9] = b9

	var b10 interfaces.Block
	binary.LittleEndian.PutUint16(b10[4:6], 6650)
	blocks[10] = b10

	var b14 interfaces.Block
	binary.LittleEndian.PutUint16(b14[4:6], 330)
	blocks[14] = b14

	var b16 interfaces.Block
	binary.LittleEndian.PutUint16(b16[0:2], 2)
	binary.LittleEndian.PutUint16(b16[2:4], 1)
	blocks[16] = b16

	return uid, blocks
}

// asciiBlock space-pads s into one 16-byte block.
func asciiBlock(s string) interfaces.Block {
	var b interfaces.Block
	for i := range b {
		b[i] = ' '
	}
	copy(b[:], s)
	return b
}
