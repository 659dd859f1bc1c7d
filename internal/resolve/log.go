package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chomenor/mapbundle/internal/asset"
)

// Unsatisfied returns the subset of res whose dependencies have no
// satisfying asset, filtered to required or optional dependencies
// according to optional.
func Unsatisfied(res *ResolvedDependencies, optional bool) []asset.Dependency {
	var out []asset.Dependency
	res.Each(func(dep asset.Dependency, result *DependencyResult) {
		if len(result.Sources()) == 0 && dep.Optional() == optional {
			out = append(out, dep)
		}
	})
	return out
}

// Logger is the minimal sink LogDependencies writes diagnostic lines to;
// satisfied by *internal/export.Logger and test doubles alike.
type Logger interface {
	Info(msg string)
}

// LogDependencies writes a human-readable resolution report: the chosen
// minimum sources, unresolved dependency counts and their referrers, and
// for each chosen source, the dependencies and assets it satisfies.
func LogDependencies(res *ResolvedDependencies, minSources []string, logger Logger) {
	unsatisfied := Unsatisfied(res, false)
	unsatisfiedOptional := Unsatisfied(res, true)

	logger.Info("needed sources: " + strings.Join(minSources, " "))
	logger.Info(fmt.Sprintf("unresolved: %d", len(unsatisfied)))
	logger.Info(fmt.Sprintf("unresolved optional: %d", len(unsatisfiedOptional)))
	logger.Info("")

	for _, dep := range append(append([]asset.Dependency{}, unsatisfied...), unsatisfiedOptional...) {
		logger.Info("unresolved dependency: " + dep.String())
		result, _ := res.Get(dep)
		for _, ref := range sortedKeys(result.Descriptions) {
			logger.Info("  referenced by: " + ref)
		}
	}
	if len(unsatisfied) > 0 {
		logger.Info("")
	}

	sourceIndex := make(map[string][]asset.Dependency)
	res.Each(func(dep asset.Dependency, result *DependencyResult) {
		for source := range result.Sources() {
			sourceIndex[source] = append(sourceIndex[source], dep)
		}
	})

	for _, source := range minSources {
		logger.Info("source: " + source)
		for _, dep := range sourceIndex[source] {
			logger.Info("  satisfies dependency: " + dep.String())
			result, _ := res.Get(dep)
			for _, a := range result.Assets {
				if a.Source() == source {
					logger.Info("    with: " + a.String())
				}
			}
			for _, ref := range sortedKeys(result.Descriptions) {
				logger.Info("    referenced by: " + ref)
			}
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
