package cache

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/chomenor/mapbundle/internal/binfmt"
	"github.com/klauspost/compress/flate"
)

// RegisterDeflate overrides w's Deflate compressor with klauspost/compress's
// implementation at the given level, instead of the stdlib's. Only the bsp
// and aas resource pk3s built by WriteResourcePk3 use this; the per-run
// info/entity/log zips are written uncompressed (zip.Store).
func RegisterDeflate(w *zip.Writer, level int) {
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
}

// WriteResourcePk3 builds (or returns the already-cached) single-entry pk3
// wrapping a bsp or aas resource, stripping client-side lumps from bsp data
// first. Returns the pk3's path and the internal name the resource was
// stored under.
func WriteResourcePk3(read func(resHash string) ([]byte, error), cacheDir *DirectoryHandler,
	resourceHash, resourceType string) (fullPath, internalName string, err error) {

	if resourceType != "bsp" && resourceType != "aas" {
		return "", "", fmt.Errorf("unsupported resource type %q", resourceType)
	}

	cachePath := fmt.Sprintf("pk3resource_%s/%s.pk3", resourceType, resourceHash)
	fullPath = cacheDir.GetReadPath(cachePath)
	internalName = fmt.Sprintf("mapdb_%s/%s.%s", resourceType, resourceHash, resourceType)

	if _, statErr := os.Stat(fullPath); statErr == nil {
		return fullPath, internalName, nil
	}

	data, err := read(resourceHash)
	if err != nil {
		return "", "", err
	}
	if resourceType == "bsp" {
		data, err = binfmt.StripServerBSP(data)
		if err != nil {
			return "", "", fmt.Errorf("strip server bsp: %w", err)
		}
	}

	out, err := os.Create(cacheDir.GetWritePath(cachePath))
	if err != nil {
		return "", "", err
	}
	zw := zip.NewWriter(out)
	RegisterDeflate(zw, 4)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: internalName, Method: zip.Deflate})
	if err != nil {
		zw.Close()
		out.Close()
		return "", "", err
	}
	if _, err := w.Write(data); err != nil {
		zw.Close()
		out.Close()
		return "", "", err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", "", err
	}
	if err := out.Close(); err != nil {
		return "", "", err
	}

	return fullPath, internalName, nil
}
