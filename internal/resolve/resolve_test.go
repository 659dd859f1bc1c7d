package resolve

import (
	"testing"

	"github.com/chomenor/mapbundle/internal/asset"
	"github.com/chomenor/mapbundle/internal/entity"
)

func importTestEntities(t *testing.T, text []byte) *entity.Entities {
	t.Helper()
	ents := entity.NewEntities()
	if warnings := ents.ImportText(text); len(warnings) != 0 {
		t.Fatalf("unexpected warnings importing test entities: %v", warnings)
	}
	return ents
}

func buildIndexAndSources(t *testing.T) (*asset.AssetIndex, *asset.SourceList) {
	t.Helper()
	idx := asset.NewAssetIndex()
	idx.RegisterPk3("base", []asset.PK3Subfile{
		{Filename: "textures/base/wall.tga", FileSize: 100},
	})
	idx.RegisterPk3("override", []asset.PK3Subfile{
		{Filename: "textures/base/wall.tga", FileSize: 100},
	})
	idx.RegisterPk3("unrelated", nil)

	sl := asset.NewSourceList(idx)
	sl.AddSource("base", 1)
	sl.AddSource("override", 2)
	return idx, sl
}

func TestResolveDependenciesPicksHighestPrioritySource(t *testing.T) {
	_, sl := buildIndexAndSources(t)
	pool := NewDependencyPool()
	pool.AddDependency(asset.NewImageDependency("textures/base/wall", false), "test")

	resolved := ResolveDependencies(pool, sl)
	result, ok := resolved.Get(asset.NewImageDependency("textures/base/wall", false))
	if !ok {
		t.Fatal("expected dependency to be resolved")
	}
	if len(result.Assets) != 1 {
		t.Fatalf("expected 1 equivalent winning asset, got %d", len(result.Assets))
	}
	if result.Assets[0].Source() != "override" {
		t.Fatalf("expected higher-category source to win, got %s", result.Assets[0].Source())
	}
}

func TestMinimumSourcesDropsRedundantLowerPriority(t *testing.T) {
	_, sl := buildIndexAndSources(t)
	pool := NewDependencyPool()
	pool.AddDependency(asset.NewImageDependency("textures/base/wall", false), "test")

	resolved := ResolveDependencies(pool, sl)
	needed := MinimumSources(resolved, sl)

	if len(needed) != 1 || needed[0] != "override" {
		t.Fatalf("expected only the higher-priority source to be needed, got %v", needed)
	}
}

func TestDependencyPoolAddBspDependenciesCollectsSoundFromSpeaker(t *testing.T) {
	pool := NewDependencyPool()

	idx := asset.NewAssetIndex()
	idx.RegisterPk3("base", nil)
	sl := asset.NewSourceList(idx)
	sl.AddSource("base", 1)

	entText := []byte("{\n\"classname\" \"target_speaker\"\n\"noise\" \"sound/fx/buzz.wav\"\n}\n")
	ents := importTestEntities(t, entText)
	deps := ExtractEntityDependencies(ents)
	if !deps.Sounds["sound/fx/buzz.wav"] {
		t.Fatalf("expected speaker sound extracted, got %v", deps.Sounds)
	}

	_ = pool
}

func TestExtractEntityDependenciesSkipsLeadingStarNoise(t *testing.T) {
	entText := []byte("{\n\"classname\" \"target_speaker\"\n\"noise\" \"*falling1.wav\"\n}\n")
	ents := importTestEntities(t, entText)
	deps := ExtractEntityDependencies(ents)
	if len(deps.Sounds) != 0 {
		t.Fatalf("expected no sound dependency for '*' noise, got %v", deps.Sounds)
	}
}

func TestExtractEntityDependenciesBreakableModelDamagedVariant(t *testing.T) {
	entText := []byte("{\n\"classname\" \"misc_model_breakable\"\n\"model\" \"models/map_objects/crate.md3\"\n\"health\" \"50\"\n}\n")
	ents := importTestEntities(t, entText)
	deps := ExtractEntityDependencies(ents)

	if !deps.Models["models/map_objects/crate.md3"] {
		t.Fatalf("expected base model dependency, got %v", deps.Models)
	}
	if !deps.Models["models/map_objects/crate_d1.md3"] {
		t.Fatalf("expected damaged model variant dependency, got %v", deps.Models)
	}
}
