package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chomenor/mapbundle/internal/cache"
)

// FileExporter hardlinks acquired resources and source pk3s into the
// output tree, deduplicating repeated requests for the same target.
type FileExporter struct {
	OutputDir *cache.DirectoryHandler

	serverWritten map[string]bool
	httpWritten   map[string]bool
	mirrorWritten map[string]map[string]bool // res hash -> descriptions
}

// NewFileExporter returns an exporter writing under outputDir.
func NewFileExporter(outputDir *cache.DirectoryHandler) *FileExporter {
	return &FileExporter{
		OutputDir:     outputDir,
		serverWritten: make(map[string]bool),
		httpWritten:   make(map[string]bool),
		mirrorWritten: make(map[string]map[string]bool),
	}
}

// WriteServer links pk3 into serverdata/<mod_dir>/refonly, once per
// distinct pk3 full name.
func (e *FileExporter) WriteServer(pk3 *Pk3Source) error {
	if e.serverWritten[pk3.FullName] {
		return nil
	}
	dst := e.OutputDir.GetWritePath(fmt.Sprintf("serverdata/%s/refonly/%s.pk3", pk3.ModDir, pk3.Filename))
	if err := cache.Link(pk3.FullPath, dst); err != nil {
		return err
	}
	e.serverWritten[pk3.FullName] = true
	return nil
}

// WriteHTTP links pk3 into httpshare/paks, once per distinct pk3 full name.
func (e *FileExporter) WriteHTTP(pk3 *Pk3Source) error {
	if e.httpWritten[pk3.FullName] {
		return nil
	}
	dst := e.OutputDir.GetWritePath(fmt.Sprintf("httpshare/paks/%s/%s.pk3", pk3.ModDir, pk3.Filename))
	if err := cache.Link(pk3.FullPath, dst); err != nil {
		return err
	}
	e.httpWritten[pk3.FullName] = true
	return nil
}

// WriteMirrorResource links a hash-addressed resource into
// httpshare/resources, once per hash, recording description for the
// mirror resource log each time it's requested (even on repeat calls, so
// the log lists every reason a resource was mirrored).
func (e *FileExporter) WriteMirrorResource(resHash string, importer *cache.FileImporter, description string) error {
	if _, ok := e.mirrorWritten[resHash]; !ok {
		srcPath, err := importer.GetPath(resHash)
		if err != nil {
			return err
		}
		dst := e.OutputDir.GetWritePath("httpshare/resources/" + resHash)
		if err := cache.Link(srcPath, dst); err != nil {
			return err
		}
		e.mirrorWritten[resHash] = make(map[string]bool)
	}
	e.mirrorWritten[resHash][description] = true
	return nil
}

// MirrorResourceLog renders one "<hash> - [descriptions]" line per mirrored
// resource, in hash order.
func (e *FileExporter) MirrorResourceLog() string {
	hashes := make([]string, 0, len(e.mirrorWritten))
	for h := range e.mirrorWritten {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	lines := make([]string, 0, len(hashes))
	for _, h := range hashes {
		descs := make([]string, 0, len(e.mirrorWritten[h]))
		for d := range e.mirrorWritten[h] {
			descs = append(descs, d)
		}
		sort.Strings(descs)
		lines = append(lines, fmt.Sprintf("%s - %s", h, formatList(descs)))
	}
	return strings.Join(lines, "\n")
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
