package binfmt

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/chomenor/mapbundle/internal/gametext"
)

const (
	md3HeaderNumSurfacesOfs = 84
	md3HeaderOfsSurfacesOfs = 100

	md3SurfaceNumShadersOfs = 76
	md3SurfaceOfsShadersOfs = 92
	md3SurfaceOfsEndOfs     = 104
	md3ShaderRecordSize     = 68 // 64-byte name + int32 index
)

// Md3Info is the result of analyzing one md3 model's surface shader table.
type Md3Info struct {
	Shaders []string
}

// ParseMD3Shaders walks an IDP3 model's surface list and collects the
// referenced shader names, sorted and de-duplicated.
func ParseMD3Shaders(data []byte) (*Md3Info, error) {
	if len(data) < md3HeaderOfsSurfacesOfs+4 {
		return nil, fmt.Errorf("md3 file too small: %d bytes", len(data))
	}

	numSurfaces := int32(binary.LittleEndian.Uint32(data[md3HeaderNumSurfacesOfs:]))
	ofsSurfaces := int64(int32(binary.LittleEndian.Uint32(data[md3HeaderOfsSurfacesOfs:])))

	shaders := make(map[string]bool)
	ofs := ofsSurfaces
	for i := int32(0); i < numSurfaces; i++ {
		if ofs < 0 || ofs+int64(md3SurfaceOfsEndOfs)+4 > int64(len(data)) {
			return nil, fmt.Errorf("surface %d out of bounds at offset %d", i, ofs)
		}

		numShaders := int32(binary.LittleEndian.Uint32(data[ofs+md3SurfaceNumShadersOfs:]))
		ofsShaders := int64(int32(binary.LittleEndian.Uint32(data[ofs+md3SurfaceOfsShadersOfs:])))
		ofsEnd := int64(int32(binary.LittleEndian.Uint32(data[ofs+md3SurfaceOfsEndOfs:])))

		for j := int32(0); j < numShaders; j++ {
			shaderOfs := ofs + ofsShaders + int64(j)*md3ShaderRecordSize
			if shaderOfs < 0 || shaderOfs+64 > int64(len(data)) {
				return nil, fmt.Errorf("surface %d shader %d out of bounds", i, j)
			}
			shaders[gametext.Escape(data[shaderOfs:shaderOfs+64], true)] = true
		}

		ofs += ofsEnd
	}

	sorted := make([]string, 0, len(shaders))
	for s := range shaders {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	return &Md3Info{Shaders: sorted}, nil
}
