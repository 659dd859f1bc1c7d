package pk3

import (
	"archive/zip"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPk3(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pk3")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pk3: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close pk3 writer: %v", err)
	}
	return path
}

func TestIndexArchiveShaderExtraction(t *testing.T) {
	path := writeTestPk3(t, map[string]string{
		"scripts/base.shader": "textures/base/wall\n{\n\t{\n\t\tmap textures/base/wall.tga\n\t}\n}\n",
	})

	info := IndexArchive(path)
	if info.Error != "" {
		t.Fatalf("unexpected archive error: %s", info.Error)
	}
	if len(info.Subfiles) != 1 {
		t.Fatalf("expected 1 subfile, got %d", len(info.Subfiles))
	}
	sub := info.Subfiles[0]
	if sub.Error != "" {
		t.Fatalf("unexpected subfile error: %s", sub.Error)
	}
	if _, ok := sub.Shaders["textures/base/wall"]; !ok {
		t.Fatalf("expected shader extracted, got %v", sub.Shaders)
	}
}

func TestIndexArchiveAASHashedNotParsed(t *testing.T) {
	path := writeTestPk3(t, map[string]string{
		"maps/q3dm1.aas": "not really aas data but only hashed",
	})

	info := IndexArchive(path)
	sub := info.Subfiles[0]
	if sub.SHA256 == "" {
		t.Fatal("expected aas subfile to be sha256 hashed")
	}
}

func TestIndexArchiveInvalidTGARecordsError(t *testing.T) {
	path := writeTestPk3(t, map[string]string{
		"textures/base/wall.tga": "not a tga file at all",
	})

	info := IndexArchive(path)
	sub := info.Subfiles[0]
	if sub.Error == "" {
		t.Fatal("expected error for invalid tga subfile")
	}
}

func TestIndexArchiveOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pk3")
	info := IndexArchive(path)
	if info.Error == "" {
		t.Fatal("expected error opening a nonexistent archive")
	}
}

func TestArchiveHashDeterministic(t *testing.T) {
	crcs := []uint32{crc32.ChecksumIEEE([]byte("a")), crc32.ChecksumIEEE([]byte("b"))}
	h1 := ArchiveHash(crcs)
	h2 := ArchiveHash(crcs)
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %d vs %d", h1, h2)
	}
}

func TestExtensionOf(t *testing.T) {
	cases := map[string]string{
		"textures/base/wall.tga": "tga",
		"maps/q3dm1.bsp":         "bsp",
		"noextension":            "",
	}
	for in, want := range cases {
		if got := ExtensionOf(in); got != want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", in, got, want)
		}
	}
}
