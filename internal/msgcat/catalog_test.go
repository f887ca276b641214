package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/cheese-viewer/internal/domain"
)

func TestDefaultGlyphs(t *testing.T) {
	c := Default()
	g := c.Glyphs(GlyphsUnicode)
	if g.Glyph(domain.WhiteRook) != "♖" { t.Fatalf("white rook glyph: %q", g.Glyph(domain.WhiteRook)) }
	if g.Glyph(domain.BlackKnight) != "♞" { t.Fatalf("black knight glyph: %q", g.Glyph(domain.BlackKnight)) }
	if g.Glyph(domain.Empty) != "" { t.Fatalf("empty glyph should be blank") }

	a := c.Glyphs("ASCII")
	if a.Glyph(domain.BlackQueen) != "q" { t.Fatalf("ascii black queen: %q", a.Glyph(domain.BlackQueen)) }
}

func TestMoveLabel(t *testing.T) {
	c := Default()
	if got := c.MoveLabel(0, 1); got != "Move: 0 / 0" { t.Fatalf("label: %q", got) }
	if got := c.MoveLabel(4, 10); got != "Move: 4 / 9" { t.Fatalf("label: %q", got) }
	if got := c.MoveLabel(0, 0); got != "" { t.Fatalf("label without data: %q", got) }
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "label:\n  move: \"Ply {{.Index}} of {{.Total}}\"\nglyphs:\n  ascii:\n    \"K\": \"@\"\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil { t.Fatalf("New: %v", err) }
	if got := c.MoveLabel(2, 5); got != "Ply 2 of 5" { t.Fatalf("override label: %q", got) }
	if got := c.Glyphs(GlyphsASCII).Glyph(domain.WhiteKing); got != "@" { t.Fatalf("override glyph: %q", got) }
	if got := c.Glyphs(GlyphsASCII).Glyph(domain.WhiteQueen); got != "Q" { t.Fatalf("untouched glyph: %q", got) }
}

func TestDuplicateOverrideKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("label:\n  move: \"x\"\n")
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestRenderMissingKey(t *testing.T) {
	c := Default()
	if _, err := c.Render("label.nope", nil); err == nil { t.Fatalf("expected missing template error") }
	if _, err := c.Render(KeyWaiting, map[string]string{}); err == nil { t.Fatalf("expected missing data key error") }
}
