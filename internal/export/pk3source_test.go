package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/chomenor/mapbundle/internal/cache"
	"github.com/chomenor/mapbundle/internal/manifest"
)

func writeTestArchive(t *testing.T, files map[string]string) string {
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
			t.Fatalf("create entry: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close pk3: %v", err)
	}
	return path
}

func TestNewPk3SourceRejectsMalformedName(t *testing.T) {
	cacheDir := cache.NewDirectoryHandler(t.TempDir())
	if _, err := NewPk3Source("nosplit", "/irrelevant", "hash", nil, cacheDir, nil); err == nil {
		t.Fatal("expected error for pak name without mod_dir/filename split")
	}
}

func TestNewPk3SourceIndexesAndCaches(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"scripts/base.shader": "textures/base/wall\n{\n\t{\n\t\tmap textures/base/wall.tga\n\t}\n}\n",
	})
	cacheDir := cache.NewDirectoryHandler(t.TempDir())

	src, err := NewPk3Source("baseef/pak0.pk3", path, "deadbeef", map[string]interface{}{"sha256": "deadbeef"}, cacheDir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.ModDir != "baseef" || src.Filename != "pak0.pk3" {
		t.Fatalf("unexpected split: mod=%s file=%s", src.ModDir, src.Filename)
	}
	if len(src.DependencyAssets) == 0 {
		t.Fatal("expected dependency assets extracted from shader")
	}

	if _, err := os.Stat(cacheDir.GetReadPath("pk3info/deadbeef.json")); err != nil {
		t.Fatalf("expected pk3info cached to disk: %v", err)
	}
}

func TestNewPk3SourceRecordsAndConsultsPk3InfoIndex(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"scripts/base.shader": "textures/base/wall\n{\n\t{\n\t\tmap textures/base/wall.tga\n\t}\n}\n",
	})
	cacheDir := cache.NewDirectoryHandler(t.TempDir())
	idx, err := cache.OpenCacheIndex(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	if _, err := NewPk3Source("baseef/pak0.pk3", path, "deadbeef", map[string]interface{}{"sha256": "deadbeef"}, cacheDir, idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := idx.LookupPk3Info("deadbeef"); !ok {
		t.Fatal("expected pk3info path recorded in index after fresh indexing")
	}

	// Removing the archive confirms a second load resolves entirely from
	// the cached pk3info JSON via the index, without re-reading the pk3.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove archive: %v", err)
	}
	src, err := NewPk3Source("baseef/pak0.pk3", path, "deadbeef", map[string]interface{}{"sha256": "deadbeef"}, cacheDir, idx)
	if err != nil {
		t.Fatalf("expected cached reload to succeed without the archive present: %v", err)
	}
	if len(src.DependencyAssets) == 0 {
		t.Fatal("expected dependency assets recovered from cached pk3info")
	}
}

func TestLoadFromManifestSkipsAlreadyLoaded(t *testing.T) {
	path := writeTestArchive(t, map[string]string{"readme.txt": "hi"})
	localDir := filepath.Dir(path)
	resHash := "cafef00d"
	if err := os.Rename(path, filepath.Join(localDir, resHash)); err != nil {
		t.Fatalf("rename: %v", err)
	}

	importer := cache.NewFileImporter(cache.NewDirectoryHandler(t.TempDir()), nil)
	importer.LocalDirectories = append(importer.LocalDirectories, cache.NewDirectoryHandler(localDir))

	man := manifest.New()
	man.Paks["baseef/pak0.pk3"] = map[string]interface{}{"sha256": resHash}

	logger := NewLogger(false)
	cacheDir := cache.NewDirectoryHandler(t.TempDir())

	sources := NewPk3Sources()
	sources.LoadFromManifest(man, importer, cacheDir, nil, logger)
	if len(sources.Pk3s) != 1 {
		t.Fatalf("expected 1 pk3 loaded, got %d", len(sources.Pk3s))
	}

	sources.LoadFromManifest(man, importer, cacheDir, nil, logger)
	if len(sources.Pk3s) != 1 {
		t.Fatalf("expected reload to be a no-op, got %d pk3s", len(sources.Pk3s))
	}
}
