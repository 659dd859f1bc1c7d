package shader

import (
	"regexp"

	"github.com/chomenor/mapbundle/internal/gametext"
)

// Shader is one named shader definition extracted from a .shader script
// file, with its body re-serialized in canonical whitespace/quoting form.
type Shader struct {
	Name string
	Text string
}

var quotedTokenReg = regexp.MustCompile(`[ \n\t\r]|//|/\*|\*/|#[0-1][0-9a-f]`)

// ExtractResult is what Extract returns for the already-escaped text of a
// .shader script file: its constituent named shader bodies, plus the
// errors met along the way. Errors are non-fatal and accumulate while
// extraction continues on a best-effort basis.
type ExtractResult struct {
	Shaders []Shader
	Errors  map[string]bool
}

// Extract parses text (already run through gametext.Escape) into its
// shader definitions.
func Extract(text string) *ExtractResult {
	r := &ExtractResult{Errors: make(map[string]bool)}
	p := gametext.NewParser(text)

	for {
		// Normally a single token precedes the opening brace, the shader
		// name, but the engine tolerates extra tokens, in which case the
		// last one wins as the name.
		prefixTokens := 0
		name := ""

		for {
			token := p.LParseExt(true)
			if token == "" {
				if prefixTokens > 0 {
					r.Errors["shader file has extra tokens at end"] = true
				}
				return r
			}
			if token == "{" {
				break
			}
			name = token
			prefixTokens++
		}

		if prefixTokens == 0 {
			r.Errors["shader with no name"] = true
			continue
		}
		if prefixTokens > 1 {
			r.Errors["shader with extra preceding tokens"] = true
		}

		var buf []byte
		buf = append(buf, '{')
		depth := 1
		for {
			token, hasNewLine := p.ParseExtN(true)
			if token == "" {
				r.Errors["shader with no closing brace"] = true
				return r
			}
			if hasNewLine {
				buf = append(buf, '\n')
			} else {
				buf = append(buf, ' ')
			}
			if quotedTokenReg.MatchString(token) {
				buf = append(buf, '"')
				buf = append(buf, token...)
				buf = append(buf, '"')
			} else {
				buf = append(buf, token...)
			}
			if token == "{" {
				depth++
			}
			if token == "}" {
				depth--
			}
			if depth == 0 {
				break
			}
		}

		r.Shaders = append(r.Shaders, Shader{Name: name, Text: string(buf)})
	}
}
