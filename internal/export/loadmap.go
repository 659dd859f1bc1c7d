package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chomenor/mapbundle/internal/asset"
	"github.com/chomenor/mapbundle/internal/binfmt"
	"github.com/chomenor/mapbundle/internal/cache"
	"github.com/chomenor/mapbundle/internal/entity"
	"github.com/chomenor/mapbundle/internal/entityedit"
	"github.com/chomenor/mapbundle/internal/progress"
	"github.com/chomenor/mapbundle/internal/resolve"
)

// publishProgress sends a "load_map" Event for mapName with status and
// elapsed to the optional progress hub; a nil hub (no --watch listener
// configured) makes this a no-op.
func (rc *runContext) publishProgress(mapName, status string, elapsed time.Duration) {
	if rc.progressHub == nil {
		return
	}
	rc.progressHub.Publish(progress.Event{
		MapName:   mapName,
		Stage:     "load_map",
		Status:    status,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case []interface{}:
		return len(x) > 0
	case map[string]interface{}:
		return len(x) > 0
	default:
		return true
	}
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// parseEntityEdits converts mapcfg["entity_edit"], a list of [match, set]
// two-element pairs, into entityedit.Edit values.
func parseEntityEdits(v interface{}) []entityedit.Edit {
	list, _ := v.([]interface{})
	out := make([]entityedit.Edit, 0, len(list))
	for _, raw := range list {
		pair, _ := raw.([]interface{})
		if len(pair) != 2 {
			continue
		}
		out = append(out, entityedit.Edit{
			Match: toStringMap(pair[0]),
			Set:   toStringMap(pair[1]),
		})
	}
	return out
}

func toStringMap(v interface{}) map[string]string {
	m := asMap(v)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		switch x := raw.(type) {
		case string:
			out[k] = x
		default:
			out[k] = fmt.Sprintf("%v", x)
		}
	}
	return out
}

func toBoolMap(m map[string]interface{}) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = truthy(v)
	}
	return out
}

func writeZipEntry(w *zip.Writer, name string, data []byte) error {
	fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

type clientPakEntry struct {
	PakName     string
	Priority    float64
	Download    string
	Pure        string
	HasDepGroup bool
	DepGroup    int
	HasSort     bool
	PureSort    string
}

func parseClientPaks(v interface{}) []clientPakEntry {
	m := asMap(v)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]clientPakEntry, 0, len(m))
	for _, name := range names {
		info := asMap(m[name])
		entry := clientPakEntry{PakName: name}
		if p, ok := info["priority"].(float64); ok {
			entry.Priority = p
		}
		entry.Download, _ = info["download"].(string)
		entry.Pure, _ = info["pure"].(string)
		if dg, ok := info["dep_group"].(float64); ok {
			entry.HasDepGroup = true
			entry.DepGroup = int(dg)
		}
		if ps, ok := info["pure_sort"].(string); ok {
			entry.HasSort = true
			entry.PureSort = ps
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// loadMap processes one bsp: entity patching, dependency resolution,
// client-pak selection, and the per-map output records. Any error aborts
// just this map's processing, logged as a warning rather than failing the
// run (matching the original's per-map try/except).
func (rc *runContext) loadMap(mapName string, mapcfg map[string]interface{}, mapPk3 *Pk3Source,
	sourceBspName string, subfile subfileJSON, aasTable map[string]string) {

	if truthy(mapcfg["skip"]) {
		rc.mapUnreplacedCheck[mapName] = mapPk3.FullName
		return
	}

	if rename, ok := asString(mapcfg["rename"]); ok {
		rc.mapUnreplacedCheck[mapName] = mapPk3.FullName
		mapName = rename
	}

	if existing, ok := rc.mapDuplicateCheck[mapName]; ok {
		rc.indexLogger.Warn(fmt.Sprintf("duplicate map '%s': skipping version from pk3 '%s'; keeping '%s'",
			mapName, mapPk3.FullName, existing))
		return
	}
	rc.mapDuplicateCheck[mapName] = mapPk3.FullName

	fmt.Printf("Processing map '%s' from '%s'\n", mapName, mapPk3.FullName)

	start := time.Now()
	mapLogger := NewLogger(false)
	err := rc.loadMapBody(mapName, mapcfg, mapPk3, sourceBspName, subfile, aasTable, mapLogger)
	if err != nil {
		mapLogger.Warn(fmt.Sprintf("Error processing map '%s': %v", mapName, err))
	}

	writeZipEntry(rc.logZip, fmt.Sprintf("maps/%s.txt", mapName), []byte(strings.Join(mapLogger.Messages(LevelInfo), "\n")))
	warnings := mapLogger.Messages(LevelWarning)
	for _, line := range warnings {
		rc.warningsOut = append(rc.warningsOut, fmt.Sprintf("MAP '%s': %s", mapName, line))
	}

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case len(warnings) > 0:
		status = "warning"
	}
	rc.publishProgress(mapName, status, time.Since(start))
}

func (rc *runContext) loadMapBody(mapName string, mapcfg map[string]interface{}, mapPk3 *Pk3Source,
	sourceBspName string, subfile subfileJSON, aasTable map[string]string, mapLogger *Logger) error {

	var bspHash string
	var bspInfo *binfmt.BspInfo

	if h, ok := asString(mapcfg["bsp"]); ok {
		bspHash = h
		if err := rc.fileExporter.WriteMirrorResource(bspHash, rc.fileImporter, "custom bsp"); err != nil {
			return err
		}
		data, err := rc.fileImporter.GetData(bspHash)
		if err != nil {
			return err
		}
		bspInfo, err = binfmt.ParseBSP(data)
		if err != nil {
			return err
		}
	} else {
		bspHash = subfile.SHA256
		bspInfo = subfile.BspInfo
	}
	if bspInfo == nil {
		return fmt.Errorf("no usable bsp info for '%s'", mapName)
	}
	for _, w := range bspInfo.Warnings {
		mapLogger.Info("bsp warning: " + w)
	}

	var aasHash string
	if h, ok := asString(mapcfg["aas"]); ok {
		aasHash = h
		if err := rc.fileExporter.WriteMirrorResource(aasHash, rc.fileImporter, "custom aas"); err != nil {
			return err
		}
	} else if h, ok := aasTable[sourceBspName]; ok {
		aasHash = h
	}

	ents := entity.NewEntities()
	if h, ok := asString(mapcfg["ent"]); ok {
		entityText, err := rc.fileImporter.GetData(h)
		if err != nil {
			return err
		}
		if err := rc.fileExporter.WriteMirrorResource(h, rc.fileImporter, "custom entities"); err != nil {
			return err
		}
		ents.ImportText(entityText)
	} else {
		ents.ImportSerializable(bspInfo.Entities)
	}

	mapcfgJSON, err := json.MarshalIndent(mapcfg, "", "  ")
	if err != nil {
		return err
	}
	if err := writeZipEntry(rc.logZip, fmt.Sprintf("mapcfg/%s.json", mapName), mapcfgJSON); err != nil {
		return err
	}

	infoOut := map[string]interface{}{"client_bsp": sourceBspName}
	for k, v := range asMap(mapcfg["server_fields"]) {
		infoOut[k] = v
	}

	mapLogger.Info("processing entities")
	if truthy(mapcfg["patch_q3_entity_key_case"]) {
		entityedit.PatchKeyCase(ents, mapLogger)
	}
	entityedit.PatchMusicExtensions(ents, toBoolMap(asMap(mapcfg["music_extension_patch"])), mapLogger)
	entityedit.RunEntityEdits(ents, parseEntityEdits(mapcfg["entity_edit"]))
	mapLogger.Info("")

	entityPath := fmt.Sprintf("mapdb_ent/%s.ent", mapName)
	if err := writeZipEntry(rc.entityZip, entityPath, ents.ExportText()); err != nil {
		return err
	}
	infoOut["ent_file"] = entityPath

	entInfo := entityedit.BuildEntityInfo(ents)
	infoOut["classnames"] = entInfo.Classnames

	if _, ok := rc.bspResourcesWritten[bspHash]; !ok {
		resourcePk3, internalName, err := cache.WriteResourcePk3(rc.readExternalOrPk3Resource, rc.cacheDir, bspHash, "bsp")
		if err != nil {
			return err
		}
		if err := cache.Link(resourcePk3, rc.dataOutDir.GetWritePath(fmt.Sprintf("serverdata/servercfg/bsp_%s.pk3", bspHash))); err != nil {
			return err
		}
		rc.bspResourcesWritten[bspHash] = internalName
	}
	infoOut["bsp_file"] = rc.bspResourcesWritten[bspHash]

	if aasHash != "" {
		if _, ok := rc.aasResourcesWritten[aasHash]; !ok {
			resourcePk3, internalName, err := cache.WriteResourcePk3(rc.readExternalOrPk3Resource, rc.cacheDir, aasHash, "aas")
			if err != nil {
				return err
			}
			if err := cache.Link(resourcePk3, rc.dataOutDir.GetWritePath(fmt.Sprintf("serverdata/servercfg/aas_%s.pk3", aasHash))); err != nil {
				return err
			}
			rc.aasResourcesWritten[aasHash] = internalName
		}
		infoOut["aas_file"] = rc.aasResourcesWritten[aasHash]
		infoOut["botsupport"] = true
	} else {
		infoOut["botsupport"] = false
	}

	manifestPaks := parseClientPaks(mapcfg["client_paks"])

	clientPaksTemp := make([]clientPakEntry, 0, len(manifestPaks))
	added := make(map[string]bool)
	for _, cp := range manifestPaks {
		if cp.PakName == "*map_pak" {
			cp.PakName = mapPk3.FullName
		}
		if added[cp.PakName] {
			continue
		}
		added[cp.PakName] = true
		if _, ok := rc.pk3Sources.Pk3s[cp.PakName]; !ok {
			mapLogger.Warn(fmt.Sprintf("referenced unindexed pk3 '%s'", cp.PakName))
			continue
		}
		clientPaksTemp = append(clientPaksTemp, cp)
	}

	sourceList := asset.NewSourceList(rc.dependencyIndex)
	for _, cp := range clientPaksTemp {
		if cp.HasDepGroup {
			sourceList.AddSource(cp.PakName, cp.DepGroup)
		}
	}

	dependencyPool := resolve.NewDependencyPool()
	dependencyPool.AddBspDependencies(bspInfo)
	for w := range dependencyPool.Warnings {
		mapLogger.Warn("dependency warning: " + w)
	}
	res := resolve.ResolveDependencies(dependencyPool, sourceList)
	neededSources := resolve.MinimumSources(res, sourceList)

	resolve.LogDependencies(res, neededSources, mapLogger)
	unsatisfied := resolve.Unsatisfied(res, false)
	for _, dep := range unsatisfied {
		rc.unresolvedInfoOut = append(rc.unresolvedInfoOut, fmt.Sprintf("%s: %s", mapName, dep.String()))
	}
	if len(unsatisfied) > 0 {
		mapLogger.Info(fmt.Sprintf("%d unresolved dependencies", len(unsatisfied)))
	}

	neededSet := make(map[string]bool, len(neededSources))
	for _, s := range neededSources {
		neededSet[s] = true
	}

	var clientPaksOut []map[string]interface{}
	for _, cp := range clientPaksTemp {
		clientPk3Source := rc.pk3Sources.Pk3s[cp.PakName]
		referenced := neededSet[cp.PakName]
		download := cp.Download == "yes" || (cp.Download == "auto" && referenced)
		pure := cp.Pure == "yes" || (cp.Pure == "auto" && referenced)
		if !download && !pure {
			continue
		}

		result := map[string]interface{}{
			"pk3_name":        cp.PakName,
			"pk3_hash":        clientPk3Source.PK3Hash,
			"pk3_source_path": fmt.Sprintf("%s/refonly/%s.pk3", clientPk3Source.ModDir, clientPk3Source.Filename),
			"download":        download,
		}
		if cp.HasSort {
			result["pure_sort"] = cp.PureSort
		}
		clientPaksOut = append(clientPaksOut, result)

		if download {
			if err := rc.fileExporter.WriteHTTP(clientPk3Source); err != nil {
				return err
			}
		}
	}
	infoOut["client_paks"] = clientPaksOut

	infoJSON, err := json.Marshal(infoOut)
	if err != nil {
		return err
	}
	return writeZipEntry(rc.infoZip, fmt.Sprintf("mapdb_info/%s.json", mapName), infoJSON)
}
