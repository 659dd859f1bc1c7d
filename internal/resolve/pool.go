// Package resolve implements dependency resolution over the asset model in
// internal/asset: given a pool of map-level dependencies and a prioritized
// list of candidate sources, it determines the complete transitive set of
// assets needed and the minimum set of sources required to provide them.
package resolve

import (
	"github.com/chomenor/mapbundle/internal/asset"
	"github.com/chomenor/mapbundle/internal/binfmt"
	"github.com/chomenor/mapbundle/internal/entity"
)

// DependencyPool accumulates the dependencies a map needs before
// resolution, along with human-readable descriptions of where each came
// from (for diagnostics) and any warnings produced while scanning sources
// of dependencies (e.g. malformed entity lumps).
type DependencyPool struct {
	dependencies map[asset.DependencyKey]*poolEntry
	order        []asset.DependencyKey
	Warnings     map[string]bool
}

type poolEntry struct {
	dependency   asset.Dependency
	descriptions map[string]bool
}

// NewDependencyPool returns an empty DependencyPool.
func NewDependencyPool() *DependencyPool {
	return &DependencyPool{
		dependencies: make(map[asset.DependencyKey]*poolEntry),
		Warnings:     make(map[string]bool),
	}
}

// AddDependency records dependency as required, tagging it with
// description (e.g. "bspshaders", "entities").
func (p *DependencyPool) AddDependency(dep asset.Dependency, description string) {
	key := dep.Key()
	entry, ok := p.dependencies[key]
	if !ok {
		entry = &poolEntry{dependency: dep, descriptions: make(map[string]bool)}
		p.dependencies[key] = entry
		p.order = append(p.order, key)
	}
	entry.descriptions[description] = true
}

// AddBspDependencies records the shader dependencies implied by a bsp's
// referenced shader list, plus the sound/model dependencies implied by its
// entity lump.
func (p *DependencyPool) AddBspDependencies(bspInfo *binfmt.BspInfo) {
	for _, shaderName := range bspInfo.Shaders {
		p.AddDependency(asset.NewShaderDependency(shaderName, false), "bspshaders")
	}

	ents := entity.NewEntities()
	ents.ImportSerializable(bspInfo.Entities)
	entDeps := ExtractEntityDependencies(ents)
	for w := range entDeps.Errors {
		p.Warnings[w] = true
	}
	for soundName := range entDeps.Sounds {
		p.AddDependency(asset.NewSoundDependency(soundName, false), "entities")
	}
	for modelName := range entDeps.Models {
		p.AddDependency(asset.NewModelDependency(modelName, false), "entities")
	}
}

// Each iterates the pool's dependencies in registration order along with
// their accumulated descriptions.
func (p *DependencyPool) Each(fn func(dep asset.Dependency, descriptions map[string]bool)) {
	for _, key := range p.order {
		entry := p.dependencies[key]
		fn(entry.dependency, entry.descriptions)
	}
}
