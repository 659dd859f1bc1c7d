// Package entityedit implements the map-load entity transforms applied
// during export: music-extension substitution, Q3-to-EF key case
// normalization, profile-driven rule edits, and a classname histogram for
// reporting.
package entityedit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chomenor/mapbundle/internal/entity"
	"github.com/chomenor/mapbundle/internal/gametext"
)

// Logger receives warnings and info lines from the patchers; satisfied by
// *export.Logger and test doubles alike.
type Logger interface {
	Warn(msg string)
	Info(msg string)
}

// convertFSPath normalizes a filesystem-style path the way the game
// client does: backslashes to forward slashes, lowercased, leading slash
// dropped.
func convertFSPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ToLower(path)
	return strings.TrimPrefix(path, "/")
}

func stripExt(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[:idx]
	}
	return path
}

func stripPath(path string) string {
	return stripExt(convertFSPath(path))
}

// PatchMusicExtensions rewrites the worldspawn music field's track names
// to match whichever extension a profile's music_extension_patch map
// marks enabled for that track (by extension-stripped, path-normalized
// name). Only enabled patch entries participate; a disabled entry is
// skipped as though it were never listed, including for collision
// detection against other entries mapping to the same stripped name.
func PatchMusicExtensions(ents *entity.Entities, patches map[string]bool, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn(fmt.Sprintf("Exception patching music entities: '%v'", r))
			}
		}
	}()

	if len(ents.List) == 0 {
		return
	}

	// Iterate patch entries in sorted order so a collision between two
	// differently-spelled patches that strip to the same path resolves
	// deterministically (last-sorted wins), since Go map iteration order
	// is not the manifest's original insertion order.
	patchKeys := make([]string, 0, len(patches))
	for patch := range patches {
		patchKeys = append(patchKeys, patch)
	}
	sort.Strings(patchKeys)

	subst := make(map[string]string)
	for _, patch := range patchKeys {
		if !patches[patch] {
			continue
		}
		subst[stripPath(patch)] = patch
	}

	patchPath := func(path string) string {
		if p, ok := subst[stripPath(path)]; ok {
			return p
		}
		return path
	}

	worldspawn := ents.List[0]
	musicStr := worldspawn.GetOr("music", "")
	if musicStr == "" {
		return
	}

	p := gametext.NewParser(musicStr)
	musicStart := p.ParseExt(true)
	musicLoop := p.ParseExt(true)

	if patchPath(musicStart) != musicStart || (musicLoop != "" && patchPath(musicLoop) != musicLoop) {
		newStr := patchPath(musicStart)
		if musicLoop != "" {
			newStr += " " + patchPath(musicLoop)
		}
		worldspawn.Set("music", newStr, true)
	}
}
