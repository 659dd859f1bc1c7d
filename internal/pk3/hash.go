package pk3

import (
	"encoding/binary"

	"golang.org/x/crypto/md4"
)

// ArchiveHash computes the 32-bit signed identity hash the game uses to
// recognize a pk3: pack the CRC32 of every non-empty entry as little-endian
// uint32s, MD4 the result, then XOR the four 32-bit words of the digest.
// The game reads this as a signed 32-bit value, so the result is
// reinterpreted accordingly rather than returned as unsigned.
func ArchiveHash(crcs []uint32) int32 {
	buf := make([]byte, len(crcs)*4)
	for i, c := range crcs {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}

	h := md4.New()
	h.Write(buf)
	sum := h.Sum(nil)

	var checksum uint32
	for i := 0; i < 4; i++ {
		checksum ^= binary.LittleEndian.Uint32(sum[i*4 : i*4+4])
	}

	return int32(checksum)
}
