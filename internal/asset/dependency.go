package asset

import "fmt"

// Dependency represents a resource requirement that some asset can
// satisfy. Equality and hashing are by (kind, name) so a Dependency can be
// used directly as a map key once paired with Key().
type Dependency interface {
	Kind() string
	Name() string
	Optional() bool
	Key() DependencyKey
	Assets(index *AssetIndex) []Asset
	String() string
}

// DependencyKey is the comparable identity of a Dependency, usable as a Go
// map key (Dependency implementations are not map-key-safe on their own
// since they may embed slices).
type DependencyKey struct {
	Kind string
	Name string
}

type baseDependency struct {
	kind     string
	name     string
	optional bool
}

func newBaseDependency(kind, name string, optional bool) baseDependency {
	return baseDependency{kind: kind, name: baseName2(name), optional: optional}
}

// baseName2 mirrors misc.strip_ext + lower(), applied to dependency names
// (as opposed to baseName, applied to asset filenames, which has the same
// behavior but is kept distinct for readability at call sites).
func baseName2(name string) string {
	return toLowerASCIIDep(baseName(name))
}

func toLowerASCIIDep(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (d baseDependency) Kind() string     { return d.kind }
func (d baseDependency) Name() string     { return d.name }
func (d baseDependency) Optional() bool   { return d.optional }
func (d baseDependency) Key() DependencyKey {
	return DependencyKey{Kind: d.kind, Name: d.name}
}

func (d baseDependency) String() string {
	suffix := ""
	if d.optional {
		suffix = "_optional"
	}
	return fmt.Sprintf("%sdep%s|%s", d.kind, suffix, d.name)
}

// ShaderDependency requires a shader or image usable in its place.
type ShaderDependency struct{ baseDependency }

// NewShaderDependency constructs a ShaderDependency.
func NewShaderDependency(name string, optional bool) *ShaderDependency {
	return &ShaderDependency{newBaseDependency("shader", name, optional)}
}

func (d *ShaderDependency) Assets(index *AssetIndex) []Asset {
	var out []Asset
	for _, a := range index.Lookup(d.name) {
		switch a.(type) {
		case *ImageAsset, *ShaderAsset:
			out = append(out, a)
		}
	}
	return out
}

// ImageDependency requires a texture file.
type ImageDependency struct{ baseDependency }

// NewImageDependency constructs an ImageDependency.
func NewImageDependency(name string, optional bool) *ImageDependency {
	return &ImageDependency{newBaseDependency("image", name, optional)}
}

func (d *ImageDependency) Assets(index *AssetIndex) []Asset {
	var out []Asset
	for _, a := range index.Lookup(d.name) {
		if _, ok := a.(*ImageAsset); ok {
			out = append(out, a)
		}
	}
	return out
}

// SoundDependency requires an audio file.
type SoundDependency struct{ baseDependency }

// NewSoundDependency constructs a SoundDependency.
func NewSoundDependency(name string, optional bool) *SoundDependency {
	return &SoundDependency{newBaseDependency("sound", name, optional)}
}

func (d *SoundDependency) Assets(index *AssetIndex) []Asset {
	var out []Asset
	for _, a := range index.Lookup(d.name) {
		if _, ok := a.(*SoundAsset); ok {
			out = append(out, a)
		}
	}
	return out
}

// ModelDependency requires an md3 model file.
type ModelDependency struct{ baseDependency }

// NewModelDependency constructs a ModelDependency.
func NewModelDependency(name string, optional bool) *ModelDependency {
	return &ModelDependency{newBaseDependency("model", name, optional)}
}

func (d *ModelDependency) Assets(index *AssetIndex) []Asset {
	var out []Asset
	for _, a := range index.Lookup(d.name) {
		if _, ok := a.(*Md3Asset); ok {
			out = append(out, a)
		}
	}
	return out
}

// VideoDependency requires a roq cinematic file.
type VideoDependency struct{ baseDependency }

// NewVideoDependency constructs a VideoDependency.
func NewVideoDependency(name string, optional bool) *VideoDependency {
	return &VideoDependency{newBaseDependency("video", name, optional)}
}

func (d *VideoDependency) Assets(index *AssetIndex) []Asset {
	var out []Asset
	for _, a := range index.Lookup(d.name) {
		if _, ok := a.(*VideoAsset); ok {
			out = append(out, a)
		}
	}
	return out
}
