package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chomenor/mapbundle/internal/entity"
	"github.com/chomenor/mapbundle/internal/gametext"
)

// EntityDependencies is the sound/model dependency set implied by an
// entity lump: background music, breakable-model debris, func_* movers'
// secondary models, and speaker sound effects.
type EntityDependencies struct {
	Errors map[string]bool
	Sounds map[string]bool
	Models map[string]bool
}

var movingModel2Classnames = map[string]bool{
	"func_plat": true, "func_button": true, "func_door": true,
	"func_forcefield": true, "func_static": true, "func_rotating": true,
	"func_bobbing": true, "func_pendulum": true, "func_train": true,
	"func_usable": true, "func_breakable": true, "func_door_rotating": true,
}

// ExtractEntityDependencies walks an Entities set and extracts its sound
// and model dependencies. Per-entity failures are recorded as errors and
// do not stop the scan of remaining entities.
func ExtractEntityDependencies(ents *entity.Entities) *EntityDependencies {
	d := &EntityDependencies{
		Errors: make(map[string]bool),
		Sounds: make(map[string]bool),
		Models: make(map[string]bool),
	}

	if len(ents.List) > 0 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.Errors[fmt.Sprintf("exception getting music dependencies: %v", r)] = true
				}
			}()
			musicStr := ents.List[0].GetOr("music", "")
			if musicStr != "" {
				p := gametext.NewParser(musicStr)
				musicStart := p.ParseExt(true)
				musicLoop := p.ParseExt(true)
				if musicStart != "" {
					d.Sounds[musicStart] = true
				}
				if musicLoop != "" {
					d.Sounds[musicLoop] = true
				}
			}
		}()
	}

	for _, ent := range ents.List {
		classname := ent.GetOr("classname", "")
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.Errors[fmt.Sprintf("exception on '%s': %v", classname, r)] = true
				}
			}()

			if classname == "misc_model_breakable" {
				model := ent.GetOr("model", "")
				if model != "" {
					d.Models[model] = true

					health := parseIntOr(ent.GetOr("health", "0"), 0)
					spawnflags := parseIntOr(ent.GetOr("spawnflags", "0"), 0)
					if health != 0 && spawnflags&8 == 0 && len(model) >= 4 {
						damagedModel := model[:len(model)-4] + "_d1.md3"
						d.Models[damagedModel] = true
					}
				}
			}

			if movingModel2Classnames[classname] {
				model2 := ent.GetOr("model2", "")
				if model2 != "" {
					d.Models[model2] = true
				}
			}

			if classname == "target_speaker" {
				noise, ok := ent.Get("noise", "", false)
				if ok && noise != "" && !strings.HasPrefix(noise, "*") {
					d.Sounds[noise] = true
				}
			}
		}()
	}

	return d
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}
