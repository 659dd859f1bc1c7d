package binfmt

import (
	"encoding/binary"
	"testing"
)

// buildTestBSP assembles a minimal synthetic IBSP buffer with one entity,
// one shader referenced by one surface, and an unreferenced second shader
// that should be excluded from ParseBSP's result.
func buildTestBSP() []byte {
	header := make([]byte, bspHeaderSize)
	copy(header, "IBSP")

	setLump := func(index int, ofs, length int64) {
		start := 8 + index*8
		binary.LittleEndian.PutUint32(header[start:], uint32(ofs))
		binary.LittleEndian.PutUint32(header[start+4:], uint32(length))
	}

	var body []byte
	nextOfs := int64(bspHeaderSize)

	entText := []byte("{\n\"classname\" \"worldspawn\"\n}\n")
	setLump(bspLumpEntities, nextOfs, int64(len(entText)))
	body = append(body, entText...)
	nextOfs += int64(len(entText))

	shaderRecord := func(name string) []byte {
		rec := make([]byte, bspShaderRecordSize)
		copy(rec, name)
		return rec
	}
	shaderLump := append(shaderRecord("textures/base/wall"), shaderRecord("textures/base/unused")...)
	setLump(bspLumpShaders, nextOfs, int64(len(shaderLump)))
	body = append(body, shaderLump...)
	nextOfs += int64(len(shaderLump))

	surfaceRecord := make([]byte, bspSurfaceRecordSize)
	binary.LittleEndian.PutUint32(surfaceRecord[0:], 0) // references shader index 0
	setLump(bspLumpSurfaces, nextOfs, int64(len(surfaceRecord)))
	body = append(body, surfaceRecord...)
	nextOfs += int64(len(surfaceRecord))

	setLump(bspLumpFogs, nextOfs, 0)

	return append(header, body...)
}

func TestParseBSPUsedShaderOnly(t *testing.T) {
	info, err := ParseBSP(buildTestBSP())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.Shaders) != 1 || info.Shaders[0] != "textures/base/wall" {
		t.Fatalf("expected only referenced shader, got %v", info.Shaders)
	}
	if len(info.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(info.Entities))
	}
}

func TestParseBSPTooSmall(t *testing.T) {
	if _, err := ParseBSP([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for undersized bsp")
	}
}

func TestStripServerBSPPreservesEntityLump(t *testing.T) {
	source := buildTestBSP()
	stripped, err := StripServerBSP(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := ParseBSP(stripped)
	if err != nil {
		t.Fatalf("stripped bsp failed to reparse: %v", err)
	}
	if len(info.Entities) != 1 {
		t.Fatalf("expected entity lump preserved through strip, got %d entities", len(info.Entities))
	}
}

func TestParseMD3ShadersTooSmall(t *testing.T) {
	if _, err := ParseMD3Shaders([]byte{0, 1, 2}); err == nil {
		t.Fatal("expected error for undersized md3")
	}
}

func TestValidateTGARejectsGarbage(t *testing.T) {
	if _, _, err := ValidateTGA([]byte("not a tga file")); err == nil {
		t.Fatal("expected error for invalid tga data")
	}
}
