package entityedit

import (
	"fmt"

	"github.com/chomenor/mapbundle/internal/entity"
)

// timelimitwinningteam is exempt from case normalization: EF reads it with
// its original mixed case preserved for an unrelated reason upstream.
const timelimitwinningteamKey = "timelimitwinningteam"

// PatchKeyCase converts entity keys from Q3's case-insensitive convention
// (any key spelling accepted) to EF's, which expects a lowercased key
// whenever a field carries more than one case variant or its sole variant
// isn't already lowercase.
func PatchKeyCase(ents *entity.Entities, logger Logger) {
	for _, ent := range ents.List {
		updates := make(map[string]string)
		for _, lowerKey := range ent.Keys() {
			if lowerKey == timelimitwinningteamKey {
				continue
			}
			caseValues := ent.CaseValues(lowerKey)
			if len(caseValues) != 1 || caseValues[0].Key != lowerKey {
				if logger != nil {
					logger.Info(fmt.Sprintf("patching entity key case: '%s' => '%s'", caseValues[0].Key, lowerKey))
				}
				updates[lowerKey] = caseValues[0].Value
			}
		}
		for key, value := range updates {
			ent.Set(key, value, true)
		}
	}
}
