package binfmt

import (
	"encoding/binary"
	"fmt"
)

// skipLumps are the lumps dropped when building the dedicated server bsp
// variant: 11 (draw indexes), 12 (fogs, bspLumpFogs), 14 (lightmaps) and
// 15 (light grid).
var skipLumps = map[int]bool{11: true, 12: true, 14: true, 15: true}

// StripServerBSP rebuilds a bsp file with the client-only lumps zeroed out,
// compacting the remaining lump data. Used to produce the reduced-size bsp
// shipped alongside the server pak.
func StripServerBSP(source []byte) ([]byte, error) {
	if len(source) < bspHeaderSize {
		return nil, fmt.Errorf("source bsp too small: %d bytes", len(source))
	}

	type lumpRange struct {
		ofs, length int64
	}
	ranges := make([]lumpRange, bspNumLumps)
	for i := 0; i < bspNumLumps; i++ {
		ofs := int64(int32(binary.LittleEndian.Uint32(source[8+i*8:])))
		length := int64(int32(binary.LittleEndian.Uint32(source[8+i*8+4:])))
		if skipLumps[i] {
			length = 0
		}
		ranges[i] = lumpRange{ofs, length}
	}

	header := make([]byte, 8, bspHeaderSize)
	copy(header, source[:8])

	var outData []byte
	for i, r := range ranges {
		outOffset := int64(bspHeaderSize) + int64(len(outData))
		if r.length > 0 {
			if r.ofs < 0 || r.ofs+r.length > int64(len(source)) {
				return nil, fmt.Errorf("lump %d out of bounds (ofs=%d len=%d)", i, r.ofs, r.length)
			}
			outData = append(outData, source[r.ofs:r.ofs+r.length]...)
		}

		var offsetBuf, lengthBuf [4]byte
		binary.LittleEndian.PutUint32(offsetBuf[:], uint32(outOffset))
		binary.LittleEndian.PutUint32(lengthBuf[:], uint32(r.length))
		header = append(header, offsetBuf[:]...)
		header = append(header, lengthBuf[:]...)
	}

	out := make([]byte, 0, len(header)+len(outData))
	out = append(out, header...)
	out = append(out, outData...)
	return out, nil
}
