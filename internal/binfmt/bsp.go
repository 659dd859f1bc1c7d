// Package binfmt reads the binary map/model formats the export pipeline
// needs metadata from: IBSP map files and IDP3 (md3) models, plus the
// server-side BSP stripping transform and lightweight TGA validation.
package binfmt

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/chomenor/mapbundle/internal/entity"
	"github.com/chomenor/mapbundle/internal/gametext"
)

const (
	bspNumLumps = 17
	bspHeaderSize = 8 + bspNumLumps*8

	bspLumpEntities = 0
	bspLumpShaders  = 1
	bspLumpFogs     = 12
	bspLumpSurfaces = 13

	bspShaderRecordSize  = 72 // 64-byte name + 2 int32 (contentFlags, surfaceFlags)
	bspFogRecordSize     = 72 // 64-byte name + brush index + visibleSide
	bspSurfaceRecordSize = 104
)

type bspLump struct {
	fileOfs int64
	fileLen int64
}

func readLump(header []byte, index int) bspLump {
	start := 8 + index*8
	return bspLump{
		fileOfs: int64(int32(binary.LittleEndian.Uint32(header[start:]))),
		fileLen: int64(int32(binary.LittleEndian.Uint32(header[start+4:]))),
	}
}

// BspInfo is the result of analyzing one BSP file's metadata: its entity
// lump parsed and re-expressed in case-preserving JSON-friendly form, and
// the sorted set of shader names actually referenced by a visible surface
// or fog volume (as opposed to every shader name merely listed in the
// shader lump, many of which are unused leftovers).
type BspInfo struct {
	Warnings []string
	Entities []entity.SerializedEntity
	Shaders  []string
}

// ParseBSP reads a raw IBSP file and extracts its referenced shader set plus
// entity lump. It does not verify magic/version; callers that need strict
// validation should check data[0:4] == "IBSP" themselves.
func ParseBSP(data []byte) (*BspInfo, error) {
	if len(data) < bspHeaderSize {
		return nil, fmt.Errorf("bsp file too small: %d bytes", len(data))
	}
	header := data[:bspHeaderSize]

	entLump := readLump(header, bspLumpEntities)
	entData, err := sliceLump(data, entLump)
	if err != nil {
		return nil, fmt.Errorf("entities lump: %w", err)
	}

	ents := entity.NewEntities()
	warnings := ents.ImportText(entData)
	taggedWarnings := make([]string, len(warnings))
	for i, w := range warnings {
		taggedWarnings[i] = "entity warning: " + w
	}

	shaderLump := readLump(header, bspLumpShaders)
	shaderData, err := sliceLump(data, shaderLump)
	if err != nil {
		return nil, fmt.Errorf("shaders lump: %w", err)
	}
	shaderNames, err := parseShaderNames(shaderData)
	if err != nil {
		return nil, fmt.Errorf("shaders lump: %w", err)
	}

	surfaceLump := readLump(header, bspLumpSurfaces)
	surfaceData, err := sliceLump(data, surfaceLump)
	if err != nil {
		return nil, fmt.Errorf("surfaces lump: %w", err)
	}
	usedIndices, err := parseSurfaceShaderIndices(surfaceData)
	if err != nil {
		return nil, fmt.Errorf("surfaces lump: %w", err)
	}

	fogLump := readLump(header, bspLumpFogs)
	fogData, err := sliceLump(data, fogLump)
	if err != nil {
		return nil, fmt.Errorf("fogs lump: %w", err)
	}
	fogShaders, err := parseShaderNames(fogData)
	if err != nil {
		return nil, fmt.Errorf("fogs lump: %w", err)
	}

	used := make(map[string]bool)
	for idx := range usedIndices {
		if idx >= 0 && idx < len(shaderNames) {
			used[shaderNames[idx]] = true
		}
	}
	for _, s := range fogShaders {
		used[s] = true
	}

	sorted := make([]string, 0, len(used))
	for s := range used {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	return &BspInfo{
		Warnings: taggedWarnings,
		Entities: ents.ExportSerializable(),
		Shaders:  sorted,
	}, nil
}

func sliceLump(data []byte, lump bspLump) ([]byte, error) {
	if lump.fileOfs < 0 || lump.fileLen < 0 || lump.fileOfs+lump.fileLen > int64(len(data)) {
		return nil, fmt.Errorf("lump out of bounds (ofs=%d len=%d filesize=%d)", lump.fileOfs, lump.fileLen, len(data))
	}
	return data[lump.fileOfs : lump.fileOfs+lump.fileLen], nil
}

func parseShaderNames(data []byte) ([]string, error) {
	count := len(data) / bspShaderRecordSize
	names := make([]string, count)
	for i := 0; i < count; i++ {
		ofs := i * bspShaderRecordSize
		names[i] = gametext.Escape(data[ofs:ofs+64], true)
	}
	return names, nil
}

func parseSurfaceShaderIndices(data []byte) (map[int32]bool, error) {
	count := len(data) / bspSurfaceRecordSize
	out := make(map[int32]bool, count)
	for i := 0; i < count; i++ {
		ofs := i * bspSurfaceRecordSize
		idx := int32(binary.LittleEndian.Uint32(data[ofs : ofs+4]))
		out[idx] = true
	}
	return out, nil
}

func readNullTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
