package gametext

import (
	"bytes"
	"testing"
)

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("hello world"),
		[]byte("textures/a/b.tga"),
		{0x00, 0x01, 0xff, 'a', 'b', 0x7f},
		[]byte(`"quoted" // not a comment literally`),
		{},
	}
	for _, b := range cases {
		escaped := Escape(b, false)
		got := Unescape(escaped)
		if !bytes.Equal(got, b) {
			t.Errorf("round trip mismatch: in=%v escaped=%q out=%v", b, escaped, got)
		}
	}
}

func TestEscapeNullTerminate(t *testing.T) {
	in := []byte("abc\x00def")
	got := Escape(in, true)
	if got != "abc" {
		t.Errorf("expected truncation at null, got %q", got)
	}
}

func TestParserUnquotedToken(t *testing.T) {
	p := NewParser(Escape([]byte("map textures/a/b.tga"), false))
	if tok := p.ParseExt(false); tok != "map" {
		t.Fatalf("expected 'map', got %q", tok)
	}
	if tok := p.ParseExt(false); tok != "textures/a/b.tga" {
		t.Fatalf("expected texture path, got %q", tok)
	}
}

func TestParserQuotedTokenPreservesWhitespace(t *testing.T) {
	p := NewParser(Escape([]byte(`"hello   world"`), false))
	if tok := p.ParseExt(false); tok != "hello   world" {
		t.Fatalf("expected inner whitespace preserved, got %q", tok)
	}
}

func TestParserLineComment(t *testing.T) {
	p := NewParser(Escape([]byte("foo // bar baz\nqux"), false))
	if tok := p.ParseExt(true); tok != "foo" {
		t.Fatalf("expected 'foo', got %q", tok)
	}
	if tok := p.ParseExt(true); tok != "qux" {
		t.Fatalf("expected 'qux' after comment skip, got %q", tok)
	}
}

func TestParserBlockComment(t *testing.T) {
	p := NewParser(Escape([]byte("foo /* bar\nbaz */ qux"), false))
	if tok := p.ParseExt(true); tok != "foo" {
		t.Fatalf("expected 'foo', got %q", tok)
	}
	if tok := p.ParseExt(true); tok != "qux" {
		t.Fatalf("expected 'qux' after block comment skip, got %q", tok)
	}
}

func TestParserLineBreakDisallowed(t *testing.T) {
	p := NewParser(Escape([]byte("foo\nbar"), false))
	if tok := p.ParseExt(false); tok != "foo" {
		t.Fatalf("expected 'foo', got %q", tok)
	}
	tok, hasNewLine := p.ParseExtN(false)
	if tok != "" || !hasNewLine {
		t.Fatalf("expected empty token with newline flag, got %q %v", tok, hasNewLine)
	}
}

func TestParserCompleted(t *testing.T) {
	p := NewParser("")
	if !p.Completed() {
		t.Fatal("expected empty parser to report completed")
	}
}
