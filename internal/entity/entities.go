package entity

import (
	"fmt"
	"strings"

	"github.com/chomenor/mapbundle/internal/gametext"
)

// Entities is an ordered sequence of Entity; index 0 is conventionally the
// worldspawn entity.
type Entities struct {
	List []*Entity
}

// NewEntities returns an empty Entities.
func NewEntities() *Entities {
	return &Entities{}
}

// ImportText parses entities from the game wire format: a tokenized
// sequence of "{ key value ... }" blocks. Returns warnings for malformed
// input; on a fatal parse error (missing opening brace, unterminated
// block), it returns the warnings together with whatever entities were
// completed so far.
func (es *Entities) ImportText(data []byte) []string {
	var warnings []string
	p := gametext.NewParser(gametext.Escape(data, true))

	nextToken := func() (string, bool) {
		tok := p.ParseExt(true)
		completed := tok == "" && p.Completed()
		return tok, completed
	}

	for {
		tok, completed := nextToken()
		if completed {
			break
		}
		if !strings.HasPrefix(tok, "{") {
			warnings = append(warnings, fmt.Sprintf("found '%s' when expecting {", tok))
			return warnings
		}

		ent := New()
		for {
			keyTok, completed := nextToken()
			if completed {
				warnings = append(warnings, "EOF without closing brace 1")
				return warnings
			}
			if strings.HasPrefix(keyTok, "}") {
				break
			}

			valTok, completed := nextToken()
			if completed {
				warnings = append(warnings, "EOF without closing brace 2")
				return warnings
			}
			if strings.HasPrefix(valTok, "}") {
				warnings = append(warnings, "closing brace without data")
				return warnings
			}

			if strings.Contains(keyTok, "\"") || strings.Contains(valTok, "\"") {
				warnings = append(warnings, fmt.Sprintf("field '%s' - '%s' contains quote character", keyTok, valTok))
				keyTok = strings.ReplaceAll(keyTok, "\"", "")
				valTok = strings.ReplaceAll(valTok, "\"", "")
			}

			ent.Set(keyTok, valTok, false)
		}

		es.List = append(es.List, ent)
	}

	return warnings
}

// ExportText renders entities back into the game wire format.
func (es *Entities) ExportText() []byte {
	var lines []string
	for _, ent := range es.List {
		lines = append(lines, "{")
		for _, lower := range ent.order {
			for _, cp := range ent.fields[lower] {
				lines = append(lines, fmt.Sprintf("\"%s\" \"%s\"", cp.Key, cp.Value))
			}
		}
		lines = append(lines, "}")
	}
	return gametext.Unescape(strings.Join(lines, "\n"))
}
