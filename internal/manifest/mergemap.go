package manifest

// MergeMapInfo merges newInfo on top of oldInfo, applying the per-map
// info-merging rules: a "purge_all" key wipes oldInfo entirely before
// anything else is applied; an "import" key pulls in a named profile as
// the effective base (recursively merged the same way) before newInfo's
// own fields apply on top of it; "purge_<field>" keys drop an entire
// merged-dict field outright; and client_paks/server_fields/
// music_extension_patch merge key by key via updateDeleteNull rather than
// replacing wholesale. Remaining keys in newInfo simply overwrite oldInfo.
func (m *Manifest) MergeMapInfo(newInfo, oldInfo map[string]interface{}) map[string]interface{} {
	if oldInfo == nil {
		oldInfo = make(map[string]interface{})
	}
	output := deepCopyMap(oldInfo)
	newInfo = deepCopyMap(newInfo)

	if popBool(newInfo, "purge_all") {
		output = make(map[string]interface{})
	}

	if profileName, ok := popString(newInfo, "import"); ok && profileName != "" {
		profile := m.Profiles[profileName]
		output = m.MergeMapInfo(profile, output)
	}

	for field := range mergedDictFields {
		if popBool(newInfo, "purge_"+field) {
			delete(output, field)
		}
		if data, ok := newInfo[field]; ok {
			delete(newInfo, field)
			if dataMap := toMap(data); dataMap != nil && !isFalsy(dataMap) {
				sub, ok := output[field].(map[string]interface{})
				if !ok {
					sub = make(map[string]interface{})
					output[field] = sub
				}
				updateDeleteNull(dataMap, sub)
			}
		}
	}

	for key, value := range newInfo {
		output[key] = value
	}

	return output
}

func popBool(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	delete(m, key)
	b, _ := v.(bool)
	return b
}

func popString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	delete(m, key)
	s, ok := v.(string)
	return s, ok
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
