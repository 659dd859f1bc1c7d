package resolve

import (
	"sort"

	"github.com/chomenor/mapbundle/internal/asset"
)

// DependencyResult is the set of equivalent assets that satisfy one
// dependency, plus the descriptions of why that dependency was needed.
type DependencyResult struct {
	Assets       []asset.Asset
	Descriptions map[string]bool
}

// Sources returns the distinct sources among the result's assets.
func (r *DependencyResult) Sources() map[string]bool {
	out := make(map[string]bool)
	for _, a := range r.Assets {
		out[a.Source()] = true
	}
	return out
}

// ResolvedDependencies maps each encountered dependency (by key) to its
// result, remembering the dependency value itself for display purposes.
type ResolvedDependencies struct {
	order   []asset.DependencyKey
	deps    map[asset.DependencyKey]asset.Dependency
	results map[asset.DependencyKey]*DependencyResult
}

func newResolvedDependencies() *ResolvedDependencies {
	return &ResolvedDependencies{
		deps:    make(map[asset.DependencyKey]asset.Dependency),
		results: make(map[asset.DependencyKey]*DependencyResult),
	}
}

// Get returns the result for dep's key, if resolution reached it.
func (r *ResolvedDependencies) Get(dep asset.Dependency) (*DependencyResult, bool) {
	res, ok := r.results[dep.Key()]
	return res, ok
}

// Each iterates resolved dependencies in the order first encountered.
func (r *ResolvedDependencies) Each(fn func(dep asset.Dependency, result *DependencyResult)) {
	for _, key := range r.order {
		fn(r.deps[key], r.results[key])
	}
}

func (r *ResolvedDependencies) entry(dep asset.Dependency) *DependencyResult {
	key := dep.Key()
	res, ok := r.results[key]
	if !ok {
		res = &DependencyResult{Descriptions: make(map[string]bool)}
		r.results[key] = res
		r.deps[key] = dep
		r.order = append(r.order, key)
	}
	return res
}

// satisfiers computes, for one dependency against one source list, the
// sorted candidate assets and the subset equivalent to the
// highest-precedence match (the set actually used to satisfy it).
type satisfiers struct {
	assets           []asset.Asset
	equivalentAssets []asset.Asset
}

func computeSatisfiers(dep asset.Dependency, sl *asset.SourceList) satisfiers {
	candidates := dep.Assets(sl.Index)

	var eligible []asset.Asset
	for _, a := range candidates {
		if _, ok := sl.Priority(a.Source()); ok {
			eligible = append(eligible, a)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		pi, _ := sl.Priority(eligible[i].Source())
		pj, _ := sl.Priority(eligible[j].Source())
		return eligible[i].SortKey(pi).Less(eligible[j].SortKey(pj))
	})

	var equivalent []asset.Asset
	if len(eligible) > 0 {
		equivalent = append(equivalent, eligible[0])
		for _, a := range eligible[1:] {
			if a.Equivalent(eligible[0]) {
				equivalent = append(equivalent, a)
			}
		}
	}

	return satisfiers{assets: eligible, equivalentAssets: equivalent}
}

// ResolveDependencies resolves every dependency in pool, and transitively
// every sub-dependency of every asset used to satisfy one, to the assets
// that satisfy them. Resolution is memoized per dependency key within one
// call, so a dependency reachable by multiple paths (e.g. a texture used by
// several shaders of the map) is only resolved once.
func ResolveDependencies(pool *DependencyPool, sl *asset.SourceList) *ResolvedDependencies {
	result := newResolvedDependencies()
	visited := make(map[asset.DependencyKey]bool)

	var resolveOne func(dep asset.Dependency, descriptions map[string]bool)
	resolveOne = func(dep asset.Dependency, descriptions map[string]bool) {
		entry := result.entry(dep)
		for desc := range descriptions {
			entry.Descriptions[desc] = true
		}

		if visited[dep.Key()] {
			return
		}
		visited[dep.Key()] = true

		sat := computeSatisfiers(dep, sl)
		entry.Assets = append(entry.Assets, sat.equivalentAssets...)

		if len(sat.equivalentAssets) > 0 {
			subDescriptions := make(map[string]bool)
			for desc := range descriptions {
				subDescriptions[desc+"=>"+sat.equivalentAssets[0].String()] = true
			}
			for _, subDep := range sat.equivalentAssets[0].SubDependencies() {
				resolveOne(subDep, subDescriptions)
			}
		}
	}

	pool.Each(resolveOne)
	return result
}
