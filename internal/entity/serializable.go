package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SerializedEntity is the JSON-friendly form of an Entity: { lowerkey: value }
// when the sole pair's original-case key equals the lowercased key, or
// { lowerkey: [[case, value], ...] } otherwise. Key order is preserved
// through marshal/unmarshal to keep round trips stable.
type SerializedEntity struct {
	Keys   []string
	Values map[string]interface{} // string or [][2]string
}

// ExportSerializable converts an Entity into its JSON-friendly form.
func (e *Entity) ExportSerializable() SerializedEntity {
	out := SerializedEntity{Values: make(map[string]interface{})}
	for _, lower := range e.order {
		pairs := e.fields[lower]
		if len(pairs) == 0 {
			continue
		}
		out.Keys = append(out.Keys, lower)
		if len(pairs) == 1 && pairs[0].Key == lower {
			out.Values[lower] = pairs[0].Value
		} else {
			caseList := make([][2]string, len(pairs))
			for i, cp := range pairs {
				caseList[i] = [2]string{cp.Key, cp.Value}
			}
			out.Values[lower] = caseList
		}
	}
	return out
}

// ImportSerializable populates an Entity from its JSON-friendly form.
func (e *Entity) ImportSerializable(data SerializedEntity) {
	for _, key := range data.Keys {
		lower := toLowerASCII(key)
		switch v := data.Values[key].(type) {
		case string:
			e.fields[lower] = []CasePair{{Key: key, Value: v}}
		case [][2]string:
			pairs := make([]CasePair, len(v))
			for i, pair := range v {
				pairs[i] = CasePair{Key: pair[0], Value: pair[1]}
			}
			e.fields[lower] = pairs
		case []interface{}:
			pairs := make([]CasePair, 0, len(v))
			for _, elem := range v {
				pair, ok := elem.([]interface{})
				if !ok || len(pair) != 2 {
					continue
				}
				k, _ := pair[0].(string)
				val, _ := pair[1].(string)
				pairs = append(pairs, CasePair{Key: k, Value: val})
			}
			e.fields[lower] = pairs
		}
		if !containsStr(e.order, lower) {
			e.order = append(e.order, lower)
		}
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// MarshalJSON preserves key insertion order.
func (s SerializedEntity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(s.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON preserves key order as encountered in the input object.
func (s *SerializedEntity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	s.Values = make(map[string]interface{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			s.Values[key] = asString
		} else {
			var asList [][2]string
			if err := json.Unmarshal(raw, &asList); err == nil {
				s.Values[key] = asList
			} else {
				var generic interface{}
				if err := json.Unmarshal(raw, &generic); err != nil {
					return err
				}
				s.Values[key] = generic
			}
		}
		s.Keys = append(s.Keys, key)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ExportSerializable converts all entities into their JSON-friendly form.
func (es *Entities) ExportSerializable() []SerializedEntity {
	out := make([]SerializedEntity, len(es.List))
	for i, ent := range es.List {
		out[i] = ent.ExportSerializable()
	}
	return out
}

// ImportSerializable populates entities from their JSON-friendly form.
func (es *Entities) ImportSerializable(data []SerializedEntity) {
	for _, entData := range data {
		ent := New()
		ent.ImportSerializable(entData)
		es.List = append(es.List, ent)
	}
}
