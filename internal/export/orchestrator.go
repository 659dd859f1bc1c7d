package export

import (
	"archive/zip"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/chomenor/mapbundle/internal/asset"
	"github.com/chomenor/mapbundle/internal/cache"
	"github.com/chomenor/mapbundle/internal/manifest"
	"github.com/chomenor/mapbundle/internal/progress"
	"golang.org/x/exp/maps"
)

var (
	bspFileReg = regexp.MustCompile(`(?i)^maps[/\\]([^/\\]+)\.bsp$`)
	aasFileReg = regexp.MustCompile(`(?i)^maps[/\\]([^/\\]+)\.aas$`)
)

// runContext holds the state threaded through one export run: every field
// here corresponds to a local variable or closure in the original
// run_export, gathered into a struct so loadMap can be a method instead of
// a nested closure.
type runContext struct {
	cacheDir   *cache.DirectoryHandler
	dataOutDir *cache.DirectoryHandler

	logZip    *zip.Writer
	infoZip   *zip.Writer
	entityZip *zip.Writer

	indexLogger    *Logger
	downloadLogger *Logger

	warningsOut       []string
	unresolvedInfoOut []string

	fileImporter      *cache.FileImporter
	fileFromPk3Loader *FileFromPk3Loader
	fileExporter      *FileExporter

	pk3Sources      *Pk3Sources
	dependencyIndex *asset.AssetIndex

	bspResourcesWritten map[string]string
	aasResourcesWritten map[string]string
	mapDuplicateCheck   map[string]string
	mapUnreplacedCheck  map[string]string

	progressHub *progress.Hub
}

func (rc *runContext) readExternalOrPk3Resource(resHash string) ([]byte, error) {
	if data, ok := rc.fileFromPk3Loader.Read(resHash); ok {
		return data, nil
	}
	return rc.fileImporter.GetData(resHash)
}

func (rc *runContext) registerReadableFileFromPk3(pk3 *Pk3Source, sub subfileJSON) {
	rc.fileFromPk3Loader.AddResource(sub.SHA256, FileFromPk3{Pk3Path: pk3.FullPath, InternalName: sub.Filename})
}

// RunExport performs one complete export: acquiring and indexing every pak
// named in man, resolving dependencies and patching entities per map, and
// writing the resulting serverdata/httpshare tree plus logs.zip under
// outputPath/data. localDirs are searched (in order, before the cache and
// any configured downloader) when acquiring a resource by hash.
func RunExport(man *manifest.Manifest, outputPath string, localDirs []string, hub *progress.Hub) error {
	baseDir := cache.NewDirectoryHandler(outputPath)
	cacheDir := baseDir.GetSubdir("cache")
	dataOutDir := baseDir.GetSubdir("data_new")

	if _, err := os.Stat(dataOutDir.Path); err == nil {
		fmt.Println("Clearing new directory...")
		if err := os.RemoveAll(dataOutDir.Path); err != nil {
			return fmt.Errorf("clear data_new: %w", err)
		}
	}

	logZipFile, err := os.Create(dataOutDir.GetWritePath("logs.zip"))
	if err != nil {
		return err
	}
	logZip := zip.NewWriter(logZipFile)

	indexLogger := NewLogger(false)
	downloadLogger := NewLogger(false)

	resourceURLs := maps.Keys(man.ResourceURLs)
	sort.Strings(resourceURLs)

	cacheIndex, err := cache.OpenCacheIndex(cacheDir.GetWritePath("index.db"))
	if err != nil {
		indexLogger.Warn(fmt.Sprintf("Cache index unavailable, falling back to disk stats: %v", err))
		cacheIndex = nil
	} else {
		defer cacheIndex.Close()
	}

	downloader := cache.NewResourceDownloader(resourceURLs, downloadLogger)
	fileImporter := cache.NewFileImporter(cacheDir.GetSubdir("resources"), downloader)
	fileImporter.Index = cacheIndex
	for _, dir := range localDirs {
		fileImporter.LocalDirectories = append(fileImporter.LocalDirectories, cache.NewDirectoryHandler(dir))
	}
	fileFromPk3Loader := NewFileFromPk3Loader()
	fileExporter := NewFileExporter(dataOutDir)

	pk3Sources := NewPk3Sources()
	pk3Sources.LoadFromManifest(man, fileImporter, cacheDir, cacheIndex, indexLogger)
	indexLogger.Force(fmt.Sprintf("Indexed %d pk3s", len(pk3Sources.Pk3s)))

	dependencyIndex := asset.NewAssetIndex()
	for name, p3 := range pk3Sources.Pk3s {
		dependencyIndex.RegisterAssets(name, p3.DependencyAssets)
		p3.DependencyAssets = nil
	}
	indexLogger.Force(fmt.Sprintf("Initialized pk3 dependency index with %d pk3s", dependencyIndex.SourceCount()))
	indexLogger.Force("Dependency asset types: " + dependencyIndex.AssetCountsString())

	infoZipFile, err := os.Create(dataOutDir.GetWritePath("serverdata/servercfg/mapinfo.pk3"))
	if err != nil {
		return err
	}
	infoZip := zip.NewWriter(infoZipFile)

	entityZipFile, err := os.Create(dataOutDir.GetWritePath("serverdata/servercfg/mapentities.pk3"))
	if err != nil {
		return err
	}
	entityZip := zip.NewWriter(entityZipFile)

	rc := &runContext{
		cacheDir:            cacheDir,
		dataOutDir:          dataOutDir,
		logZip:              logZip,
		infoZip:             infoZip,
		entityZip:           entityZip,
		indexLogger:         indexLogger,
		downloadLogger:      downloadLogger,
		fileImporter:        fileImporter,
		fileFromPk3Loader:   fileFromPk3Loader,
		fileExporter:        fileExporter,
		pk3Sources:          pk3Sources,
		dependencyIndex:     dependencyIndex,
		bspResourcesWritten: make(map[string]string),
		aasResourcesWritten: make(map[string]string),
		mapDuplicateCheck:   make(map[string]string),
		mapUnreplacedCheck:  make(map[string]string),
		progressHub:         hub,
	}

	if err := rc.processPk3s(man); err != nil {
		return err
	}

	rc.indexLogger.Force(fmt.Sprintf("Written %d maps", len(rc.mapDuplicateCheck)))

	for mapName, srcPk3Name := range rc.mapUnreplacedCheck {
		if _, ok := rc.mapDuplicateCheck[mapName]; !ok {
			rc.indexLogger.Info(fmt.Sprintf("Unreplaced skip/rename: %s - %s", mapName, srcPk3Name))
		}
	}

	for path, rawEntry := range man.ServerResources {
		entry := asMap(rawEntry)
		hash, _ := entry["sha256"].(string)
		srcPath, err := fileImporter.GetPath(hash)
		if err != nil {
			rc.indexLogger.Info(fmt.Sprintf("Failed to load server resource %s", path))
			continue
		}
		if err := cache.Link(srcPath, dataOutDir.GetWritePath("serverdata/"+path)); err != nil {
			rc.indexLogger.Info(fmt.Sprintf("Failed to load server resource %s", path))
			continue
		}
		if err := fileExporter.WriteMirrorResource(hash, fileImporter, "server resource - "+path); err != nil {
			rc.indexLogger.Info(fmt.Sprintf("Failed to load server resource %s", path))
		}
	}

	rc.warningsOut = append(rc.warningsOut, rc.indexLogger.Messages(LevelWarning)...)
	writeZipEntry(logZip, "index.txt", []byte(strings.Join(indexLogger.Messages(LevelInfo), "\n")))
	writeZipEntry(logZip, "download.txt", []byte(strings.Join(downloadLogger.Messages(LevelInfo), "\n")))
	writeZipEntry(logZip, "mirror_resources.txt", []byte(fileExporter.MirrorResourceLog()))
	writeZipEntry(logZip, "warnings.txt", []byte(strings.Join(rc.warningsOut, "\n")))
	writeZipEntry(logZip, "unresolved.txt", []byte(strings.Join(rc.unresolvedInfoOut, "\n")))

	if err := infoZip.Close(); err != nil {
		return err
	}
	if err := infoZipFile.Close(); err != nil {
		return err
	}
	if err := entityZip.Close(); err != nil {
		return err
	}
	if err := entityZipFile.Close(); err != nil {
		return err
	}
	if err := logZip.Close(); err != nil {
		return err
	}
	if err := logZipFile.Close(); err != nil {
		return err
	}

	return cycleOutputDirectories(baseDir)
}

func cycleOutputDirectories(baseDir *cache.DirectoryHandler) error {
	dataOld := baseDir.GetSubdir("data_old")
	if _, err := os.Stat(dataOld.Path); err == nil {
		fmt.Println("Clearing old directory...")
		if err := os.RemoveAll(dataOld.Path); err != nil {
			return err
		}
	}

	fmt.Println("Cycling directories...")
	dataDir := baseDir.GetSubdir("data")
	dataOutDir := baseDir.GetSubdir("data_new")
	if _, err := os.Stat(dataDir.Path); err == nil {
		if err := os.Rename(dataDir.Path, dataOld.Path); err != nil {
			return err
		}
	}
	return os.Rename(dataOutDir.Path, dataDir.Path)
}

// processPk3s registers each loaded pk3's bsp/aas entries for direct
// re-reading, writes it to its output locations, and scans its bsp files
// to drive per-map processing.
func (rc *runContext) processPk3s(man *manifest.Manifest) error {
	names := maps.Keys(rc.pk3Sources.Pk3s)
	sort.Strings(names)

	for _, name := range names {
		p3 := rc.pk3Sources.Pk3s[name]

		pk3Mapcfg := man.MergeMapInfo(asMap(man.Profiles[stringOr(p3.ManifestInfo["profile"], "")]), nil)
		pk3Mapcfg = man.MergeMapInfo(asMap(p3.ManifestInfo["mapcfg"]), pk3Mapcfg)

		if err := rc.fileExporter.WriteMirrorResource(p3.ResHash, rc.fileImporter, "source pk3 - "+p3.FullName); err != nil {
			return err
		}
		if err := rc.fileExporter.WriteServer(p3); err != nil {
			return err
		}
		if force, _ := p3.ManifestInfo["force_http_share"].(bool); force {
			if err := rc.fileExporter.WriteHTTP(p3); err != nil {
				return err
			}
		}

		aasTable := make(map[string]string)
		for _, sub := range p3.info.Subfiles {
			match := aasFileReg.FindStringSubmatch(sub.Filename)
			if match == nil {
				continue
			}
			if sub.Error != "" {
				rc.indexLogger.Info(fmt.Sprintf("aas file error: %s - %s - %s", p3.String(), sub.Filename, sub.Error))
				continue
			}
			rc.registerReadableFileFromPk3(p3, sub)
			aasTable[strings.ToLower(match[1])] = sub.SHA256
		}

		for _, sub := range p3.info.Subfiles {
			match := bspFileReg.FindStringSubmatch(sub.Filename)
			if match == nil {
				continue
			}
			if sub.Error != "" {
				rc.indexLogger.Info(fmt.Sprintf("bsp file error: %s - %s - %s", p3.String(), sub.Filename, sub.Error))
			} else {
				rc.registerReadableFileFromPk3(p3, sub)
			}

			sourceBspName := strings.ToLower(match[1])
			mapcfg := asMap(p3.ManifestInfo["mapcfg_"+sourceBspName])
			mapcfgCopy := make(map[string]interface{}, len(mapcfg))
			for k, v := range mapcfg {
				mapcfgCopy[k] = v
			}
			versions, hasVersions := mapcfgCopy["versions"].([]interface{})
			delete(mapcfgCopy, "versions")
			if !hasVersions {
				versions = []interface{}{map[string]interface{}{}}
			}

			mergedBase := man.MergeMapInfo(mapcfgCopy, pk3Mapcfg)

			for _, rawVersion := range versions {
				versionConfig := man.MergeMapInfo(asMap(rawVersion), mergedBase)
				rc.loadMap(sourceBspName, versionConfig, p3, sourceBspName, sub, aasTable)
			}
		}
	}

	return nil
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
