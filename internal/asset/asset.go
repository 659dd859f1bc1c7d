// Package asset defines the tagged Asset and Dependency variants used by
// the dependency resolver: the concrete things a source can provide
// (shaders, images, sounds, videos, models) and the concrete things a map
// can require, along with how each is keyed, sorted, and compared.
package asset

import (
	"fmt"
	"path"
	"strings"

	"github.com/chomenor/mapbundle/internal/shader"
)

// parseShaderDependencies is a thin adapter onto internal/shader so asset
// construction doesn't need to depend on the gametext parser directly.
func parseShaderDependencies(text string) *shader.Dependencies {
	return shader.ParseShaderDependencies(text)
}

// SourcePriority ranks one registered source (pk3 or similar) within a
// SourceList: higher category wins outright; within a category, shader
// assets are preferred over file assets (the lowest-latency path for the
// client, since shaders ship as plain text); position is insertion order,
// used as a final tiebreaker.
type SourcePriority struct {
	Category int
	Position int
}

// SortKey returns a tuple ordered so that, when compared lexicographically
// with *lower* values preferred, higher category wins, then (when
// isShader) shader assets win, then earlier insertion position wins.
// Go has no native tuple ordering, so callers compare the returned slice
// field-by-field; see Less.
func (p SourcePriority) SortKey(isShader bool) SortTuple {
	shaderRank := 1
	if isShader {
		shaderRank = 0
	}
	return SortTuple{-p.Category, shaderRank, p.Position}
}

// SortTuple is a 3-tuple sort key; Less compares lexicographically.
type SortTuple [3]int

func (t SortTuple) Less(o SortTuple) bool {
	for i := 0; i < 3; i++ {
		if t[i] != o[i] {
			return t[i] < o[i]
		}
	}
	return false
}

// Asset represents something — a shader, image, model, sound, or video —
// that can satisfy a Dependency. Assets may themselves pull in further
// Dependencies (a shader references images, an md3 references shaders).
type Asset interface {
	Source() string
	AssetType() string
	SortKey(priority SourcePriority) SortTuple
	Equivalent(other Asset) bool
	SubDependencies() []Dependency
	String() string
}

// FileInfo is the subset of pk3 subfile metadata needed to construct a
// file-backed asset.
type FileInfo struct {
	Filename string
	FileSize int64
}

// ShaderAsset is a single named shader definition extracted from a
// scripts/*.shader file.
type ShaderAsset struct {
	source         string
	Name           string
	Text           string
	SourceFileName string
}

// NewShaderAsset constructs a ShaderAsset.
func NewShaderAsset(source, name, sourceFileName, text string) *ShaderAsset {
	return &ShaderAsset{source: source, Name: name, Text: text, SourceFileName: sourceFileName}
}

func (a *ShaderAsset) Source() string    { return a.source }
func (a *ShaderAsset) AssetType() string { return "shader" }

func (a *ShaderAsset) SortKey(priority SourcePriority) SortTuple {
	return priority.SortKey(true)
}

func (a *ShaderAsset) Equivalent(other Asset) bool {
	o, ok := other.(*ShaderAsset)
	return ok && a.Text == o.Text
}

func (a *ShaderAsset) SubDependencies() []Dependency {
	deps := parseShaderDependencies(a.Text)
	var out []Dependency
	for image := range deps.Images {
		out = append(out, NewImageDependency(image, false))
	}
	for image := range deps.ImagesOptional {
		out = append(out, NewImageDependency(image, true))
	}
	for video := range deps.Videos {
		// For consistency with CIN_PlayCinematic, a bare filename is
		// assumed to live under video/.
		if !strings.ContainsAny(video, "/\\") {
			video = "video/" + video
		}
		out = append(out, NewVideoDependency(video, false))
	}
	return out
}

func (a *ShaderAsset) String() string {
	return fmt.Sprintf("shaderasset|%s:%s:%s", a.source, a.SourceFileName, a.Name)
}

// FileAsset is the common shape of the plain, non-shader asset kinds: a
// single file identified by its source pk3, base name, and size.
type FileAsset struct {
	source    string
	assetType string
	Name      string
	Ext       string
	FileSize  int64
}

func newFileAsset(source, assetType string, info FileInfo) FileAsset {
	ext := ""
	if idx := strings.LastIndex(info.Filename, "."); idx >= 0 {
		ext = strings.ToLower(info.Filename[idx+1:])
	}
	return FileAsset{
		source:    source,
		assetType: assetType,
		Name:      info.Filename,
		Ext:       ext,
		FileSize:  info.FileSize,
	}
}

func (a *FileAsset) Source() string    { return a.source }
func (a *FileAsset) AssetType() string { return a.assetType }

func (a *FileAsset) SortKey(priority SourcePriority) SortTuple {
	return priority.SortKey(false)
}

func (a *FileAsset) String() string {
	return fmt.Sprintf("%sasset|%s:%s", a.assetType, a.source, a.Name)
}

// ImageAsset is a tga/jpg texture file.
type ImageAsset struct{ FileAsset }

// NewImageAsset constructs an ImageAsset.
func NewImageAsset(source string, info FileInfo) *ImageAsset {
	return &ImageAsset{newFileAsset(source, "image", info)}
}

func (a *ImageAsset) Equivalent(other Asset) bool {
	o, ok := other.(*ImageAsset)
	return ok && a.FileSize == o.FileSize
}

func (a *ImageAsset) SubDependencies() []Dependency { return nil }

// SoundAsset is a wav/mp3/ogg audio file.
type SoundAsset struct{ FileAsset }

// NewSoundAsset constructs a SoundAsset.
func NewSoundAsset(source string, info FileInfo) *SoundAsset {
	return &SoundAsset{newFileAsset(source, "sound", info)}
}

func (a *SoundAsset) Equivalent(other Asset) bool {
	o, ok := other.(*SoundAsset)
	return ok && a.FileSize == o.FileSize
}

func (a *SoundAsset) SubDependencies() []Dependency { return nil }

// VideoAsset is a roq cinematic file.
type VideoAsset struct{ FileAsset }

// NewVideoAsset constructs a VideoAsset.
func NewVideoAsset(source string, info FileInfo) *VideoAsset {
	return &VideoAsset{newFileAsset(source, "video", info)}
}

func (a *VideoAsset) Equivalent(other Asset) bool {
	o, ok := other.(*VideoAsset)
	return ok && a.FileSize == o.FileSize
}

func (a *VideoAsset) SubDependencies() []Dependency { return nil }

// Md3Asset is a model file, tracking the shader names its surfaces
// reference so those can be expanded as sub-dependencies.
type Md3Asset struct {
	FileAsset
	ShaderDependencies map[string]bool
}

// NewMd3Asset constructs a Md3Asset from pk3 subfile metadata plus the
// shader names recovered from its surface table.
func NewMd3Asset(source string, info FileInfo, shaderNames []string) *Md3Asset {
	deps := make(map[string]bool, len(shaderNames))
	for _, s := range shaderNames {
		deps[s] = true
	}
	return &Md3Asset{FileAsset: newFileAsset(source, "md3", info), ShaderDependencies: deps}
}

func (a *Md3Asset) Equivalent(other Asset) bool {
	o, ok := other.(*Md3Asset)
	return ok && a.FileSize == o.FileSize
}

func (a *Md3Asset) SubDependencies() []Dependency {
	out := make([]Dependency, 0, len(a.ShaderDependencies))
	for name := range a.ShaderDependencies {
		out = append(out, NewShaderDependency(name, false))
	}
	return out
}

// baseName mirrors COM_StripExtension: strip the final extension, if any.
func baseName(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
