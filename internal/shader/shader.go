// Package shader implements a structural simulation of the engine's shader
// script parser: enough of the stage/general-parameter grammar to discover
// every image, video, and skybox dependency a shader references, without
// building a full renderable shader representation.
package shader

import (
	"fmt"
	"strings"

	"github.com/chomenor/mapbundle/internal/gametext"
)

var skyboxSuffixes = [...]string{"_rt.tga", "_bk.tga", "_lf.tga", "_ft.tga", "_up.tga", "_dn.tga"}

// Dependencies holds the result of walking one shader body: the accumulated
// asset references plus any grammar errors encountered along the way.
// Errors are non-fatal; parsing continues on a best-effort basis.
type Dependencies struct {
	Images         map[string]bool
	ImagesOptional map[string]bool
	Videos         map[string]bool
	Errors         map[string]bool

	p *gametext.Parser
}

// ParseShaderDependencies walks the already-escaped text of a single shader
// body (starting at its opening brace) and returns its dependency set.
func ParseShaderDependencies(text string) *Dependencies {
	d := &Dependencies{
		Images:         make(map[string]bool),
		ImagesOptional: make(map[string]bool),
		Videos:         make(map[string]bool),
		Errors:         make(map[string]bool),
		p:              gametext.NewParser(text),
	}
	d.run()
	return d
}

func (d *Dependencies) addError(msg string) {
	d.Errors[msg] = true
}

func (d *Dependencies) registerImage(name string) {
	d.Images[name] = true
}

func (d *Dependencies) registerVideo(name string) {
	d.Videos[name] = true
}

func (d *Dependencies) registerSky(name string) {
	for _, suffix := range skyboxSuffixes {
		d.ImagesOptional[name+suffix] = true
	}
}

// skipTokens discards count tokens, recording errMsg (if non-empty) on
// premature end of input.
func (d *Dependencies) skipTokens(count int, errMsg string) {
	for i := 0; i < count; i++ {
		if d.p.LParseExt(false) == "" {
			if errMsg != "" {
				d.addError(errMsg)
			}
			return
		}
	}
}

func (d *Dependencies) parseSkyParms() {
	token := d.p.LParseExt(false)
	if token == "" {
		d.addError("'skyParms' missing parameter")
		return
	}
	if token != "-" {
		d.registerSky(token)
	}
	for i := 0; i < 2; i++ {
		token = d.p.LParseExt(false)
		if token == "" {
			d.addError("'skyParms' missing parameter")
			return
		}
	}
	if token != "-" {
		d.registerSky(token)
	}
}

func (d *Dependencies) parseVector() {
	token := d.p.LParseExt(false)
	if token != "(" {
		d.addError("vector missing opening paren")
		return
	}
	for i := 0; i < 4; i++ {
		token = d.p.LParseExt(false)
	}
	if token != ")" {
		d.addError("vector missing closing paren")
	}
}

func (d *Dependencies) parseWaveform() {
	for i := 0; i < 5; i++ {
		if d.p.LParseExt(false) == "" {
			d.addError("missing waveform parm")
			return
		}
	}
}

func (d *Dependencies) parseDeformVertexes() {
	token := d.p.LParseExt(false)
	switch {
	case token == "projectionshadow" || token == "autosprite" || token == "autosprite2":
	case strings.HasPrefix(token, "text"):
	case token == "bulge":
		for i := 0; i < 3; i++ {
			d.p.LParseExt(false)
		}
	case token == "wave":
		d.p.LParseExt(false)
		d.parseWaveform()
	case token == "normal":
		for i := 0; i < 2; i++ {
			d.p.LParseExt(false)
		}
	case token == "move":
		for i := 0; i < 3; i++ {
			d.p.LParseExt(false)
		}
		d.parseWaveform()
	default:
		d.addError(fmt.Sprintf("unknown deformVertexes subtype: %s", token))
	}
}

func (d *Dependencies) parseStage() {
	for {
		token := d.p.LParseExt(true)
		if token == "" {
			d.addError("unexpected end of stage without closing brace")
			return
		}
		if token == "}" {
			return
		}

		switch token {
		case "map":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing parameter for 'map' keyword")
			} else if t != "$whiteimage" && t != "$lightmap" {
				d.registerImage(t)
			}

		case "clampmap":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing parameter for 'clampmap' keyword")
			} else {
				d.registerImage(t)
			}

		case "animmap":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing parameter for 'animMap' keyword")
				continue
			}
			for i := 0; i < 8; i++ {
				t = d.p.LParseExt(false)
				if t == "" {
					break
				}
				d.registerImage(t)
			}

		case "videomap":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing parameter for 'videoMap' keyword")
				continue
			}
			d.registerVideo(t)

		case "alphafunc":
			d.skipTokens(1, "missing parameter for 'alphaFunc' keyword")

		case "depthfunc":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing parameter for 'depthFunc' keyword")
			} else if t != "lequal" && t != "disable" && t != "equal" {
				d.addError(fmt.Sprintf("unknown depthFunc parameter: %s", t))
			}

		case "detail":

		case "blendfunc":
			t := d.p.LParseExt(false)
			if t == "" {
				d.addError("missing first parameter for 'blendFunc' keyword")
				continue
			}
			if t == "add" || t == "filter" || t == "blend" {
				continue
			}
			t = d.p.LParseExt(false)
			if t == "" {
				d.addError("missing second parameter for 'blendFunc' keyword")
			}

		case "rgbgen":
			t := d.p.LParseExt(false)
			switch {
			case t == "":
				d.addError("missing parameter for 'rgbGen' keyword")
			case t == "wave":
				d.parseWaveform()
			case t == "const":
				d.parseVector()
			case t == "identity" || t == "identitylighting" || t == "entity" || t == "oneminusentity" ||
				t == "vertex" || t == "exactvertex" || t == "lightingdiffuse" || t == "oneminusvertex":
			default:
				d.addError(fmt.Sprintf("unknown rgbGen parameter: %s", t))
			}

		case "alphagen":
			t := d.p.LParseExt(false)
			switch {
			case t == "":
				d.addError("missing parameter for 'alphaGen' keyword")
			case t == "wave":
				d.parseWaveform()
			case t == "const":
				d.p.LParseExt(false)
			case t == "identity" || t == "entity" || t == "oneminusentity" || t == "vertex" ||
				t == "lightingspecular" || t == "oneminusvertex":
			case t == "portal":
				if d.p.LParseExt(false) == "" {
					d.addError("missing range parameter for alphaGen portal")
				}
			default:
				d.addError(fmt.Sprintf("unknown alphaGen parameter: %s", t))
			}

		case "texgen", "tcgen":
			t := d.p.LParseExt(false)
			switch {
			case t == "":
				d.addError("missing parameter for 'texgen' keyword")
			case t == "environment" || t == "lightmap" || t == "texture":
			case t == "vector":
				d.parseVector()
				d.parseVector()
			default:
				d.addError(fmt.Sprintf("unknown texgen parameter: %s", t))
			}

		case "tcmod":
			t := d.p.LParseExt(false)
			switch {
			case t == "":
				d.addError("missing parameter for 'tcMod' keyword")
			case t == "turb":
				d.skipTokens(4, "missing tcMod turb parameters")
			case t == "scale":
				d.skipTokens(2, "missing tcMod scale parameters")
			case t == "scroll":
				d.skipTokens(2, "missing tcMod scroll parameters")
			case t == "stretch":
				d.skipTokens(5, "missing tcMod stretch parameters")
			case t == "transform":
				d.skipTokens(6, "missing tcMod transform parameters")
			case t == "rotate":
				d.skipTokens(1, "missing tcMod rotate parameter")
			case t == "entitytranslate":
			default:
				d.addError(fmt.Sprintf("unknown tcMod: %s", t))
				d.p.SkipRestOfLine()
			}

		case "depthwrite":

		default:
			d.addError(fmt.Sprintf("unknown stage parameter: %s", token))
		}
	}
}

func (d *Dependencies) run() {
	token := d.p.LParseExt(true)
	if token != "{" {
		d.addError("shader missing opening brace")
		return
	}

	for {
		token = d.p.LParseExt(true)
		if token == "" {
			d.addError("unexpected end of shader without closing brace")
			return
		}

		switch {
		case token == "}":
			return
		case token == "{":
			d.parseStage()
		case strings.HasPrefix(token, "qer"):
			d.p.SkipRestOfLine()
		case token == "q3map_sun":
			d.skipTokens(6, "")
		case token == "deformvertexes":
			d.parseDeformVertexes()
		case token == "tesssize":
			d.p.SkipRestOfLine()
		case token == "clamptime":
			d.skipTokens(1, "")
		case strings.HasPrefix(token, "q3map"):
			d.p.SkipRestOfLine()
		case token == "surfaceparm":
			d.skipTokens(1, "")
		case token == "nomipmaps" || token == "nopicmip" || token == "polygonoffset" || token == "entitymergable":
		case token == "fogparms":
			d.parseVector()
			d.skipTokens(1, "missing parm for 'fogParms' keyword")
			d.p.SkipRestOfLine()
		case token == "portal":
		case token == "skyparms":
			d.parseSkyParms()
		case token == "light":
			d.skipTokens(1, "")
		case token == "cull":
			t := d.p.LParseExt(false)
			switch {
			case t == "":
				d.addError("missing cull parms")
			case t == "none" || t == "twosided" || t == "disable" || t == "back" ||
				t == "backside" || t == "backsided" || t == "bulge":
			default:
				d.addError(fmt.Sprintf("invalid cull parm: %s", t))
			}
		case token == "sort":
			d.skipTokens(1, "missing sort parameter")
		default:
			d.addError(fmt.Sprintf("unknown general parameter: %s", token))
			d.p.SkipRestOfLine()
		}
	}
}
