package entityedit

import "github.com/chomenor/mapbundle/internal/entity"

// Edit is one profile-driven entity modification rule: Match selects which
// entities the rule applies to (all key/value pairs must match, by
// case-insensitive Get); Set is applied to every matching entity. An empty
// Match rule (used with a non-empty Set) instead describes a brand-new
// entity to add. A non-empty Match paired with an empty Set deletes every
// matching entity.
type Edit struct {
	Match map[string]string
	Set   map[string]string
}

func matchRule(rule map[string]string, ent *entity.Entity) bool {
	for key, value := range rule {
		if ent.GetOr(key, "") != value {
			return false
		}
	}
	return true
}

// RunEntityEdits rewrites ents in place by applying edits in order: for
// each existing entity, the first matching rule with a non-empty Set
// patches its fields (subsequent rules still get a chance to match and
// apply further patches); the first matching rule with an empty Set
// deletes the entity outright and skips the rest. After existing entities
// are processed, each rule with a nil Match and a non-empty Set adds one
// brand-new entity.
func RunEntityEdits(ents *entity.Entities, edits []Edit) {
	convert := func(ent *entity.Entity) *entity.Entity {
		for _, edit := range edits {
			if len(edit.Match) == 0 || !matchRule(edit.Match, ent) {
				continue
			}
			if len(edit.Set) == 0 {
				return nil
			}
			for key, value := range edit.Set {
				ent.Set(key, value, true)
			}
		}
		return ent
	}

	var newList []*entity.Entity
	for _, ent := range ents.List {
		if converted := convert(ent); converted != nil {
			newList = append(newList, converted)
		}
	}

	for _, edit := range edits {
		if len(edit.Match) == 0 && len(edit.Set) > 0 {
			ent := entity.New()
			for key, value := range edit.Set {
				ent.Set(key, value, true)
			}
			newList = append(newList, ent)
		}
	}

	ents.List = newList
}

// EntityInfo summarizes the classname distribution of an entity set, for
// inclusion in per-map server-side reporting.
type EntityInfo struct {
	Classnames map[string]int
}

// BuildEntityInfo tallies classnames across ents.
func BuildEntityInfo(ents *entity.Entities) EntityInfo {
	counts := make(map[string]int)
	for _, ent := range ents.List {
		if classname, ok := ent.Get("classname", "", false); ok && classname != "" {
			counts[classname]++
		}
	}
	return EntityInfo{Classnames: counts}
}
