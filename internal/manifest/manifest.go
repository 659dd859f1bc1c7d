// Package manifest implements the server-side export profile format: a
// set of resource URLs, named profiles, known pak metadata, and
// server-resource declarations, merged from one or more manifest
// fragments (JSON or YAML) with last-loaded-wins precedence.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// mergedDictFields are the profile fields merged key-by-key across
// fragments rather than replaced wholesale.
var mergedDictFields = map[string]bool{
	"client_paks":           true,
	"server_fields":         true,
	"music_extension_patch": true,
}

// Manifest accumulates resource URLs, profiles, and pak/server-resource
// metadata across every fragment imported into it.
type Manifest struct {
	ResourceURLs    map[string]bool
	Profiles        map[string]map[string]interface{}
	Paks            map[string]interface{}
	ServerResources map[string]interface{}
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{
		ResourceURLs:    make(map[string]bool),
		Profiles:        make(map[string]map[string]interface{}),
		Paks:            make(map[string]interface{}),
		ServerResources: make(map[string]interface{}),
	}
}

// LoadFragment reads a manifest fragment from path, decoding as YAML for
// a .yml/.yaml extension and JSON otherwise, and imports it.
func (m *Manifest) LoadFragment(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest fragment %s: %w", path, err)
	}

	fragment, err := decodeFragment(path, data)
	if err != nil {
		return fmt.Errorf("parse manifest fragment %s: %w", path, err)
	}

	m.ImportManifest(fragment)
	return nil
}

// ImportFragmentData decodes data (JSON unless ext is ".yml"/".yaml") and
// imports it, for fragments acquired by means other than LoadFragment (for
// instance internal/remote's HTTP fetch, which has no file extension of
// its own to key off).
func (m *Manifest) ImportFragmentData(ext string, data []byte) error {
	fragment, err := decodeFragment("fragment"+ext, data)
	if err != nil {
		return fmt.Errorf("parse manifest fragment: %w", err)
	}
	m.ImportManifest(fragment)
	return nil
}

func decodeFragment(path string, data []byte) (map[string]interface{}, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var out map[string]interface{}
	if ext == ".yml" || ext == ".yaml" {
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return normalizeYAML(out), nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeYAML converts yaml.v3's map[string]interface{} (which actually
// decodes nested maps as map[string]interface{} already in v3, but nested
// sequences may hold map[string]interface{} elements too) so downstream
// code can treat a fragment uniformly regardless of its source encoding.
// yaml.v3 itself already produces map[string]interface{} for mappings, so
// this is mostly a defensive pass-through retained for clarity at call
// sites that assume JSON-shaped data.
func normalizeYAML(v interface{}) map[string]interface{} {
	out, _ := v.(map[string]interface{})
	return out
}

// ImportManifest loads data into the manifest; when the same profile or
// pak name is loaded from multiple fragments, the most recently imported
// fragment's scalar fields take precedence, while client_paks,
// server_fields, and music_extension_patch are merged key by key (a later
// fragment's value for a key simply replaces the earlier one, with no
// delete-on-null). paks and server_resources are merged with
// updateDeleteNull: a null value removes the key.
func (m *Manifest) ImportManifest(data map[string]interface{}) {
	for _, url := range toStringSlice(data["resource_urls"]) {
		m.ResourceURLs[url] = true
	}

	updateDeleteNull(toMap(data["paks"]), m.Paks)
	updateDeleteNull(toMap(data["server_resources"]), m.ServerResources)

	for profileName, rawProfile := range toMap(data["profiles"]) {
		profile := toMap(rawProfile)
		out, ok := m.Profiles[profileName]
		if !ok {
			out = make(map[string]interface{})
			m.Profiles[profileName] = out
		}
		for key, value := range profile {
			if mergedDictFields[key] {
				sub, ok := out[key].(map[string]interface{})
				if !ok {
					sub = make(map[string]interface{})
					out[key] = sub
				}
				for k, v := range toMap(value) {
					sub[k] = v
				}
			} else {
				out[key] = value
			}
		}
	}
}

// updateDeleteNull copies keys from src into tgt, except a null (nil) src
// value deletes the corresponding key from tgt instead of being copied in.
func updateDeleteNull(src, tgt map[string]interface{}) {
	for key, value := range src {
		if value == nil {
			delete(tgt, key)
		} else {
			tgt[key] = value
		}
	}
}

func isFalsy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0
	case int:
		return x == 0
	case []interface{}:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	default:
		return false
	}
}

func toMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func toStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
