package resolve

import (
	"sort"

	"github.com/chomenor/mapbundle/internal/asset"
)

// MinimumSources determines the minimum set of sources needed to satisfy
// every dependency in res, returned highest priority first. Sources are
// considered for removal starting with the lowest priority one: a source
// is dropped unless it is, at the time it's considered, the sole
// remaining satisfier of some dependency — so a lower-priority duplicate
// of a higher-priority source's assets is dropped in favor of the
// higher-priority one.
//
// Per the resolver's own rules (§9 open question), the sort key used here
// deliberately ignores the shader-first tiebreak: unlike asset selection,
// where shaders beat file assets of equal category, minimum-source
// selection only cares about category and insertion order.
func MinimumSources(res *ResolvedDependencies, sl *asset.SourceList) []string {
	sourceSet := make(map[string]bool)
	current := make(map[asset.DependencyKey]map[string]bool)

	res.Each(func(dep asset.Dependency, result *DependencyResult) {
		srcs := result.Sources()
		for s := range srcs {
			sourceSet[s] = true
		}
		copySet := make(map[string]bool, len(srcs))
		for s := range srcs {
			copySet[s] = true
		}
		current[dep.Key()] = copySet
	})

	sorted := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sorted = append(sorted, s)
	}
	// Sorted descending by sort key, which puts lowest-priority sources
	// first: processing them first lets a redundant low-priority source
	// be dropped before a higher-priority alternative is considered.
	sort.Slice(sorted, func(i, j int) bool {
		pi, _ := sl.Priority(sorted[i])
		pj, _ := sl.Priority(sorted[j])
		return pj.SortKey(false).Less(pi.SortKey(false))
	})

	neededBy := func(source string) bool {
		for _, srcs := range current {
			if len(srcs) == 1 && srcs[source] {
				return true
			}
		}
		return false
	}
	removeSource := func(source string) {
		for _, srcs := range current {
			delete(srcs, source)
		}
	}

	var needed []string
	for _, source := range sorted {
		if neededBy(source) {
			needed = append(needed, source)
		} else {
			removeSource(source)
		}
	}

	// needed was built lowest-to-highest priority; reversing it (as the
	// Python's final .reverse() does) returns it highest priority first.
	for i, j := 0, len(needed)-1; i < j; i, j = i+1, j-1 {
		needed[i], needed[j] = needed[j], needed[i]
	}
	return needed
}
