// Package fingerprint hashes vertex position sequences so unchanged
// geometry can be detected without element-wise comparison.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	gomath "math"

	"lukechampine.com/blake3"

	"github.com/Faultbox/shapebake/pkg/math"
)

// Size is the digest length in bytes.
const Size = 32

// Fingerprint is a BLAKE3 digest of a position sequence.
type Fingerprint [Size]byte

// String returns the digest as hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 hex characters, for logs.
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// Of computes the fingerprint of points. Sequences that compare equal
// element-wise always produce equal fingerprints: negative zero is folded
// into positive zero before hashing. The length is part of the digest.
func Of(points []math.Vec3) Fingerprint {
	h := blake3.New(Size, nil)

	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(points)))
	h.Write(buf[:8])

	for _, p := range points {
		binary.LittleEndian.PutUint32(buf[0:4], bits(p.X))
		binary.LittleEndian.PutUint32(buf[4:8], bits(p.Y))
		binary.LittleEndian.PutUint32(buf[8:12], bits(p.Z))
		h.Write(buf[:])
	}

	var f Fingerprint
	h.Sum(f[:0])
	return f
}

func bits(f float32) uint32 {
	if f == 0 {
		return 0
	}
	return gomath.Float32bits(f)
}
