package asset

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var shaderFileReg = regexp.MustCompile(`(?i)^scripts/([^/]*)\.shader$`)

// IsShaderFilePath reports whether path names a .shader script under
// scripts/, used to decide which pk3 subfiles contribute ShaderAssets.
func IsShaderFilePath(path string) bool {
	return shaderFileReg.MatchString(path)
}

// PK3Subfile is the subset of pk3 indexing metadata AssetsFromPk3 needs.
type PK3Subfile struct {
	Filename string
	FileSize int64
	Shaders  map[string]string // shader name -> body text
	Md3Info  *Md3Shaders
}

// Md3Shaders is the shader-name set recovered from an md3's surface table.
type Md3Shaders struct {
	Shaders []string
}

// AssetsFromPk3 builds the base-name-keyed asset table contributed by one
// pk3 source, from its subfile metadata.
func AssetsFromPk3(source string, subfiles []PK3Subfile) map[string][]Asset {
	out := make(map[string][]Asset)
	add := func(key string, a Asset) {
		out[key] = append(out[key], a)
	}

	for _, sub := range subfiles {
		idx := strings.LastIndex(sub.Filename, ".")
		if idx < 0 {
			continue
		}
		base := strings.ToLower(sub.Filename[:idx])
		ext := strings.ToLower(sub.Filename[idx+1:])
		info := FileInfo{Filename: sub.Filename, FileSize: sub.FileSize}

		switch ext {
		case "tga", "jpg":
			add(base, NewImageAsset(source, info))
		case "wav", "mp3", "ogg":
			add(base, NewSoundAsset(source, info))
		case "md3":
			var shaderNames []string
			if sub.Md3Info != nil {
				shaderNames = sub.Md3Info.Shaders
			}
			add(base, NewMd3Asset(source, info, shaderNames))
		case "roq":
			add(base, NewVideoAsset(source, info))
		}

		if IsShaderFilePath(sub.Filename) {
			for name, text := range sub.Shaders {
				add(name, NewShaderAsset(source, name, sub.Filename, text))
			}
		}
	}

	return out
}

// AssetIndex is the cache of all assets offered by every registered
// source, keyed by lowercased base name.
type AssetIndex struct {
	table   map[string][]Asset
	sources map[string]bool
}

// NewAssetIndex returns an empty AssetIndex.
func NewAssetIndex() *AssetIndex {
	return &AssetIndex{table: make(map[string][]Asset), sources: make(map[string]bool)}
}

// Lookup returns the assets registered under the given lowercased base
// name, or nil.
func (idx *AssetIndex) Lookup(name string) []Asset {
	return idx.table[name]
}

// RegisterAssets adds the base-name-keyed assets contributed by source.
// Panics if source was already registered, matching the Python assertion
// that sources register exactly once.
func (idx *AssetIndex) RegisterAssets(source string, assets map[string][]Asset) {
	if idx.sources[source] {
		panic(fmt.Sprintf("source %q registered twice", source))
	}
	idx.sources[source] = true
	for base, list := range assets {
		idx.table[base] = append(idx.table[base], list...)
	}
}

// RegisterPk3 is a convenience wrapper combining AssetsFromPk3 and
// RegisterAssets.
func (idx *AssetIndex) RegisterPk3(source string, subfiles []PK3Subfile) {
	idx.RegisterAssets(source, AssetsFromPk3(source, subfiles))
}

// SourceCount returns the number of sources registered in the index.
func (idx *AssetIndex) SourceCount() int {
	return len(idx.sources)
}

// AssetCountsString returns a human-readable tally of asset types across
// the whole index, for progress logging.
func (idx *AssetIndex) AssetCountsString() string {
	counts := make(map[string]int)
	for _, list := range idx.table {
		for _, a := range list {
			counts[a.AssetType()]++
		}
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", strings.Title(k), counts[k]))
	}
	return strings.Join(parts, ", ")
}

// SourceList is the ordered, prioritized set of sources to consider during
// resolution. All named sources must already be registered in the
// associated AssetIndex.
type SourceList struct {
	Index    *AssetIndex
	priority map[string]SourcePriority
}

// NewSourceList returns an empty SourceList over index.
func NewSourceList(index *AssetIndex) *SourceList {
	return &SourceList{Index: index, priority: make(map[string]SourcePriority)}
}

// AddSource registers source at category, panicking if source was never
// registered in the index. If source is already present with a higher (or
// equal) category, the call is a no-op; re-adding at a strictly higher
// category than already recorded is a programming error.
func (sl *SourceList) AddSource(source string, category int) {
	if !sl.Index.sources[source] {
		panic(fmt.Sprintf("source %q not registered in asset index", source))
	}
	if existing, ok := sl.priority[source]; ok {
		if existing.Category < category {
			panic(fmt.Sprintf("source %q priority decreased", source))
		}
		return
	}
	sl.priority[source] = SourcePriority{Category: category, Position: len(sl.priority)}
}

// Priority returns the recorded priority for source and whether it is
// present in this SourceList.
func (sl *SourceList) Priority(source string) (SourcePriority, bool) {
	p, ok := sl.priority[source]
	return p, ok
}
