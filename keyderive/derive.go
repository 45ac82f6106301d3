// Package keyderive derives the per-tag sector authentication keys from a
// tag's public UID.
//
// The derivation is HKDF-SHA256 (RFC 5869 extract-then-expand): the fixed
// salt keys an HMAC over the UID to produce a pseudorandom key, which is
// then expanded under the fixed context label into 96 bytes, split into 16
// six-byte sector keys. Both stages must match the tag ecosystem's
// reference derivation bit for bit; neither the salt nor the context label
// is configurable.
//
// Derived key sets are secret material. They live for one scan session and
// must never be logged or persisted.
package keyderive

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/filatag/spool-scanner/interfaces"
)

// masterSalt is the fixed 16-byte extraction salt shared by all tags.
var masterSalt = []byte{
	0x9a, 0x75, 0x9c, 0xf2, 0xc4, 0xf7, 0xca, 0xff,
	0x22, 0x2c, 0xb9, 0x76, 0x9b, 0x41, 0xbc, 0x96,
}

// contextLabel is the fixed 7-byte expansion context, trailing NUL
// included.
var contextLabel = []byte("RFID-A\x00")

const keystreamLen = interfaces.SectorCount * len(interfaces.SectorKey{})

// Derive produces the 16 sector keys for a tag. It is a pure function:
// the same UID always yields the same key set, and a one-bit change in
// the UID changes the keystream throughout.
func Derive(uid interfaces.TagUID) interfaces.SectorKeySet {
	kdf := hkdf.New(sha256.New, uid, masterSalt, contextLabel)

	var stream [keystreamLen]byte
	if _, err := io.ReadFull(kdf, stream[:]); err != nil {
		// hkdf only errors past 255*hashLen bytes; 96 is nowhere near.
		panic(err)
	}

	var keys interfaces.SectorKeySet
	for sector := range keys {
		copy(keys[sector][:], stream[sector*len(interfaces.SectorKey{}):])
	}
	return keys
}
