package render

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/park285/cheese-viewer/internal/domain"
	"github.com/park285/cheese-viewer/internal/msgcat"
)

func rookOnA1() domain.Position {
	p := domain.EmptyPosition()
	p[0] = domain.WhiteRook
	return p
}

func TestProject_RookOnA1(t *testing.T) {
	glyphs := msgcat.Default().Glyphs(msgcat.GlyphsUnicode)
	g := Project(rookOnA1(), glyphs)
	if len(g.Cells) != 64 { t.Fatalf("expected 64 cells, got %d", len(g.Cells)) }

	// rank 8 first, a1 is first cell of the last row
	a1 := g.Cells[56]
	if a1.Square != "a1" { t.Fatalf("expected a1 at display index 56, got %s", a1.Square) }
	if a1.Glyph != "♖" { t.Fatalf("a1 glyph: %q", a1.Glyph) }
	if !a1.Dark { t.Fatalf("a1 should be dark") }
	if g.Cells[0].Square != "a8" || g.Cells[63].Square != "h1" {
		t.Fatalf("unexpected order: first=%s last=%s", g.Cells[0].Square, g.Cells[63].Square)
	}
	for i, c := range g.Cells {
		if i != 56 && c.Glyph != "" { t.Fatalf("square %s should be blank, got %q", c.Square, c.Glyph) }
	}
}

func TestProject_EmptyBoardAlternates(t *testing.T) {
	g := Project(domain.EmptyPosition(), msgcat.Default().Glyphs(msgcat.GlyphsASCII))
	for _, c := range g.Cells {
		if c.Glyph != "" { t.Fatalf("square %s should be blank", c.Square) }
		if c.Dark != ((c.Rank+c.File)%2 == 0) { t.Fatalf("square %s has wrong shade", c.Square) }
	}
	rows := g.Rows()
	if len(rows) != 8 { t.Fatalf("expected 8 rows, got %d", len(rows)) }
	for _, row := range rows {
		for i := 1; i < len(row); i++ {
			if row[i].Dark == row[i-1].Dark { t.Fatalf("adjacent squares %s/%s share a shade", row[i-1].Square, row[i].Square) }
		}
	}
}

func TestProjectCurrent_NoData(t *testing.T) {
	g := ProjectCurrent(domain.Position{}, false, nil)
	if len(g.Cells) != 0 || g.Rows() != nil { t.Fatalf("expected no cells without data") }
	if out := Text(g, "", PlainTextTheme()); strings.TrimSpace(out) != "" {
		t.Fatalf("expected blank text render, got %q", out)
	}
}

func TestText_ContainsLabelAndPieces(t *testing.T) {
	glyphs := msgcat.Default().Glyphs(msgcat.GlyphsASCII)
	out := Text(Project(domain.StartPosition(), glyphs), "Move: 0 / 0", PlainTextTheme())
	if !strings.Contains(out, "Move: 0 / 0") { t.Fatalf("label missing:\n%s", out) }
	if !strings.Contains(out, " R ") || !strings.Contains(out, " k ") { t.Fatalf("pieces missing:\n%s", out) }
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "8") { t.Fatalf("first line should be rank 8: %q", lines[0]) }
}

func TestFEN(t *testing.T) {
	if got := FEN(domain.StartPosition()); got != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR" {
		t.Fatalf("start FEN: %s", got)
	}
	if got := FEN(rookOnA1()); got != "8/8/8/8/8/8/8/R7" { t.Fatalf("rook FEN: %s", got) }
}

func TestRenderPNG(t *testing.T) {
	r := NewPNGRenderer()
	raw, err := r.RenderPNG(context.Background(), domain.StartPosition(), PNGOptions{SquareSize: 32, Label: "Move: 0 / 0"})
	if err != nil { t.Fatalf("RenderPNG: %v", err) }
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil { t.Fatalf("decode png: %v", err) }
	if img.Bounds().Dx() != 32*8+28*2 { t.Fatalf("unexpected width %d", img.Bounds().Dx()) }

	other, err := r.RenderPNG(context.Background(), domain.EmptyPosition(), PNGOptions{SquareSize: 32, Label: "Move: 0 / 0"})
	if err != nil { t.Fatalf("RenderPNG empty: %v", err) }
	if bytes.Equal(raw, other) { t.Fatalf("expected different images for different positions") }
}

func TestRenderPNG_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPNGRenderer().RenderPNG(ctx, domain.StartPosition(), PNGOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}
