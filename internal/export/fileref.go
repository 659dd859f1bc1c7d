package export

import (
	"archive/zip"
	"io"
)

// FileFromPk3 identifies a resource as a named entry inside an already
// indexed pk3, letting a bsp or aas be re-read without going back through
// the importer's hash-addressed lookup.
type FileFromPk3 struct {
	Pk3Path      string
	InternalName string
}

// Read extracts the referenced entry's bytes.
func (f FileFromPk3) Read() ([]byte, error) {
	r, err := zip.OpenReader(f.Pk3Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rc, err := r.Open(f.InternalName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// FileFromPk3Loader remembers where already-processed pk3s' bsp/aas
// entries live, so the orchestrator can re-read one without re-acquiring
// it by hash through the FileImporter.
type FileFromPk3Loader struct {
	entries map[string]FileFromPk3
}

// NewFileFromPk3Loader returns an empty loader.
func NewFileFromPk3Loader() *FileFromPk3Loader {
	return &FileFromPk3Loader{entries: make(map[string]FileFromPk3)}
}

// AddResource registers resHash as readable from resource.
func (l *FileFromPk3Loader) AddResource(resHash string, resource FileFromPk3) {
	l.entries[resHash] = resource
}

// Read returns resHash's bytes if a pk3 entry was registered for it.
func (l *FileFromPk3Loader) Read(resHash string) ([]byte, bool) {
	resource, ok := l.entries[resHash]
	if !ok {
		return nil, false
	}
	data, err := resource.Read()
	if err != nil {
		return nil, false
	}
	return data, true
}
