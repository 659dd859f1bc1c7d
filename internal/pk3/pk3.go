// Package pk3 inspects Quake III pk3 archives (zip files): enumerating
// subfiles, dispatching per-extension metadata extraction, and computing
// the archive identity hash the game uses for pure-server checks.
package pk3

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chomenor/mapbundle/internal/binfmt"
	"github.com/chomenor/mapbundle/internal/gametext"
	"github.com/chomenor/mapbundle/internal/shader"
)

var (
	bspFileReg    = regexp.MustCompile(`(?i)^maps[/\\]([^/\\]+)\.bsp$`)
	aasFileReg    = regexp.MustCompile(`(?i)^maps[/\\]([^/\\]+)\.aas$`)
	shaderFileReg = regexp.MustCompile(`(?i)^scripts[/\\]([^/\\]*)\.shader$`)
	md3FileReg    = regexp.MustCompile(`(?i)\.md3$`)
	tgaFileReg    = regexp.MustCompile(`(?i)\.tga$`)
)

// SubfileInfo is the metadata recorded for one file inside a pk3 archive.
type SubfileInfo struct {
	Filename string
	FileSize int64

	BspInfo    *binfmt.BspInfo
	Md3Info    *binfmt.Md3Info
	Shaders    map[string]ShaderEntry
	SHA256     string
	Error      string
}

// ShaderEntry is one named shader body recovered from a .shader script.
type ShaderEntry struct {
	Text string
}

// ArchiveInfo is the full metadata set extracted from one pk3 file.
type ArchiveInfo struct {
	Subfiles []SubfileInfo
	Hash     int32
	Error    string
}

// IndexArchive opens the pk3 at path and extracts metadata for every
// contained file, plus the archive's identity hash. A per-file error is
// recorded on that file's SubfileInfo.Error rather than aborting the whole
// archive; an error opening the archive itself is returned in
// ArchiveInfo.Error with no subfiles populated.
func IndexArchive(path string) *ArchiveInfo {
	info := &ArchiveInfo{}

	r, err := zip.OpenReader(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer r.Close()

	var crcs []uint32
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.FileInfo().Size() > 0 {
			crcs = append(crcs, f.CRC32)
		}
		info.Subfiles = append(info.Subfiles, indexSubfile(f))
	}

	info.Hash = ArchiveHash(crcs)
	return info
}

func indexSubfile(f *zip.File) SubfileInfo {
	sub := SubfileInfo{
		Filename: gametext.Escape([]byte(f.Name), false),
		FileSize: int64(f.UncompressedSize64),
	}

	needHash := false

	readData := func() ([]byte, error) {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	switch {
	case bspFileReg.MatchString(f.Name):
		data, err := readData()
		if err != nil {
			sub.Error = err.Error()
			return sub
		}
		bi, err := binfmt.ParseBSP(data)
		if err != nil {
			sub.Error = err.Error()
		} else {
			sub.BspInfo = bi
			sub.SHA256 = sha256Hex(data)
		}
		return sub

	case aasFileReg.MatchString(f.Name):
		needHash = true

	case md3FileReg.MatchString(f.Name):
		data, err := readData()
		if err != nil {
			sub.Error = err.Error()
			return sub
		}
		mi, err := binfmt.ParseMD3Shaders(data)
		if err != nil {
			sub.Error = err.Error()
		} else {
			sub.Md3Info = mi
		}

	case tgaFileReg.MatchString(f.Name):
		data, err := readData()
		if err != nil {
			sub.Error = err.Error()
			return sub
		}
		if _, _, err := binfmt.ValidateTGA(data); err != nil {
			sub.Error = err.Error()
		}
	}

	if shaderFileReg.MatchString(f.Name) {
		data, err := readData()
		if err != nil {
			sub.Error = err.Error()
			return sub
		}
		result := shader.Extract(gametext.Escape(data, false))
		sub.Shaders = make(map[string]ShaderEntry, len(result.Shaders))
		for _, sh := range result.Shaders {
			name := strings.ToLower(sh.Name)
			if _, exists := sub.Shaders[name]; !exists {
				sub.Shaders[name] = ShaderEntry{Text: sh.Text}
			}
		}
	}

	if needHash {
		data, err := readData()
		if err != nil {
			sub.Error = err.Error()
			return sub
		}
		sub.SHA256 = sha256Hex(data)
	}

	return sub
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ExtensionOf returns the lowercased file extension (without the dot) of a
// pk3 entry path, for classifying dependency kinds.
func ExtensionOf(name string) string {
	ext := filepath.Ext(name)
	if len(ext) == 0 {
		return ""
	}
	return strings.ToLower(ext[1:])
}
