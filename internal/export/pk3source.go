package export

import (
	"fmt"
	"strings"

	"github.com/chomenor/mapbundle/internal/asset"
	"github.com/chomenor/mapbundle/internal/binfmt"
	"github.com/chomenor/mapbundle/internal/cache"
	"github.com/chomenor/mapbundle/internal/manifest"
	"github.com/chomenor/mapbundle/internal/pk3"
)

// pk3InfoJSON is the cached-to-disk shape of one archive's indexing
// result, keyed in the cache directory by the archive's own sha256.
type pk3InfoJSON struct {
	PK3Hash  int32         `json:"pk3_hash"`
	Subfiles []subfileJSON `json:"pk3_subfiles"`
	Error    string        `json:"error,omitempty"`
}

type subfileJSON struct {
	Filename string            `json:"filename"`
	FileSize int64             `json:"file_size"`
	SHA256   string            `json:"sha256,omitempty"`
	Error    string            `json:"error,omitempty"`
	BspInfo  *binfmt.BspInfo   `json:"bspinfo,omitempty"`
	Md3Info  *binfmt.Md3Info   `json:"md3info,omitempty"`
	Shaders  map[string]string `json:"shaders,omitempty"`
}

func toPk3InfoJSON(info *pk3.ArchiveInfo) pk3InfoJSON {
	out := pk3InfoJSON{PK3Hash: info.Hash, Error: info.Error}
	for _, sub := range info.Subfiles {
		sj := subfileJSON{
			Filename: sub.Filename,
			FileSize: sub.FileSize,
			SHA256:   sub.SHA256,
			Error:    sub.Error,
			BspInfo:  sub.BspInfo,
			Md3Info:  sub.Md3Info,
		}
		if len(sub.Shaders) > 0 {
			sj.Shaders = make(map[string]string, len(sub.Shaders))
			for name, entry := range sub.Shaders {
				sj.Shaders[name] = entry.Text
			}
		}
		out.Subfiles = append(out.Subfiles, sj)
	}
	return out
}

func (info pk3InfoJSON) toAssetSubfiles() []asset.PK3Subfile {
	out := make([]asset.PK3Subfile, 0, len(info.Subfiles))
	for _, sub := range info.Subfiles {
		// A .tga entry that failed validation keeps its error but still
		// contributes its image asset, matched by name and size.
		if sub.Error != "" && !strings.HasSuffix(strings.ToLower(sub.Filename), ".tga") {
			continue
		}
		as := asset.PK3Subfile{Filename: sub.Filename, FileSize: sub.FileSize, Shaders: sub.Shaders}
		if sub.Md3Info != nil {
			as.Md3Info = &asset.Md3Shaders{Shaders: sub.Md3Info.Shaders}
		}
		out = append(out, as)
	}
	return out
}

// Pk3Source is one source pk3 registered from the manifest: its archive
// identity, indexing result, and the assets it contributes to the
// dependency index.
type Pk3Source struct {
	FullName string // "mod_dir/filename"
	ModDir   string
	Filename string
	FullPath string
	ResHash  string

	ManifestInfo     map[string]interface{}
	DependencyAssets map[string][]asset.Asset
	PK3Hash          int32

	cacheDir *cache.DirectoryHandler
	index    *cache.CacheIndex
	info     pk3InfoJSON
}

// GetInfo returns the archive's indexing result, from the pk3info cache
// when present, else by indexing fullPath directly and caching the result.
// The index, when set, is consulted first and updated after a fresh index,
// sparing the cache directory a stat/read on the common repeated-hash case.
func (p *Pk3Source) GetInfo() (pk3InfoJSON, error) {
	sha256, _ := p.ManifestInfo["sha256"].(string)
	cachePath := fmt.Sprintf("pk3info/%s.json", sha256)

	var cached pk3InfoJSON
	found := false
	if p.index != nil {
		if infoPath, ok := p.index.LookupPk3Info(sha256); ok {
			found = p.cacheDir.ReadJSON(infoPath, &cached)
		}
	}
	if !found {
		found = p.cacheDir.ReadJSON(cachePath, &cached)
	}
	if !found {
		archiveInfo := pk3.IndexArchive(p.FullPath)
		cached = toPk3InfoJSON(archiveInfo)
		p.cacheDir.WriteJSON(cachePath, cached)
		if p.index != nil && sha256 != "" {
			p.index.RecordPk3Info(sha256, cachePath)
		}
	}
	if cached.Error != "" {
		return cached, fmt.Errorf("error retrieving info: '%s'", cached.Error)
	}
	return cached, nil
}

// NewPk3Source indexes (or loads from cache) the pk3 at fullPath and
// builds its dependency asset table. index may be nil, in which case every
// lookup falls through to the cache directory directly.
func NewPk3Source(pakName, fullPath, resHash string, manifestInfo map[string]interface{}, cacheDir *cache.DirectoryHandler, index *cache.CacheIndex) (*Pk3Source, error) {
	split := strings.SplitN(pakName, "/", 2)
	if len(split) != 2 {
		return nil, fmt.Errorf("malformed pak name %q, expected mod_dir/filename", pakName)
	}

	p := &Pk3Source{
		FullName:     pakName,
		ModDir:       split[0],
		Filename:     split[1],
		FullPath:     fullPath,
		ResHash:      resHash,
		ManifestInfo: manifestInfo,
		cacheDir:     cacheDir,
		index:        index,
	}

	info, err := p.GetInfo()
	if err != nil {
		return nil, err
	}
	p.info = info
	p.DependencyAssets = asset.AssetsFromPk3(pakName, info.toAssetSubfiles())
	p.PK3Hash = info.PK3Hash
	return p, nil
}

func (p *Pk3Source) String() string {
	return "pk3|" + p.FullName
}

// Pk3Sources is the set of pk3s acquired and indexed for the current run,
// keyed by "mod_dir/filename".
type Pk3Sources struct {
	Pk3s map[string]*Pk3Source
}

// NewPk3Sources returns an empty Pk3Sources.
func NewPk3Sources() *Pk3Sources {
	return &Pk3Sources{Pk3s: make(map[string]*Pk3Source)}
}

// LoadFromManifest acquires and indexes every pak named in manifest.Paks,
// skipping any already loaded. A pak that fails to acquire or index logs
// a warning and is otherwise skipped rather than aborting the run. index
// may be nil.
func (ps *Pk3Sources) LoadFromManifest(man *manifest.Manifest, importer *cache.FileImporter, cacheDir *cache.DirectoryHandler, index *cache.CacheIndex, logger *Logger) {
	for pakName, rawInfo := range man.Paks {
		if _, ok := ps.Pk3s[pakName]; ok {
			continue
		}

		manifestInfo, _ := rawInfo.(map[string]interface{})
		hash, _ := manifestInfo["sha256"].(string)

		fmt.Printf("Loading pk3 '%s'\n", pakName)

		fullPath, err := importer.GetPath(hash)
		if err != nil {
			logger.Warn(fmt.Sprintf("Error loading pk3 '%s' with hash '%s': '%v'", pakName, hash, err))
			continue
		}

		src, err := NewPk3Source(pakName, fullPath, hash, manifestInfo, cacheDir, index)
		if err != nil {
			logger.Warn(fmt.Sprintf("Error loading pk3 '%s' with hash '%s': '%v'", pakName, hash, err))
			continue
		}
		ps.Pk3s[pakName] = src
	}
}
