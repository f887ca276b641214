package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

const pieceSVGTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">
<circle cx="22.5" cy="23.5" r="17" fill="#000000" fill-opacity="0.25"/>
<circle cx="22.5" cy="22.5" r="17" fill="%s" stroke="%s" stroke-width="2"/>
</svg>`

// pieceSVG is a token disc; the piece letter is drawn over it.
func pieceSVG(piece nchess.Piece) string {
	if piece.Color() == nchess.White {
		return fmt.Sprintf(pieceSVGTemplate, "#F8F8F8", "#1C1F2E")
	}
	return fmt.Sprintf(pieceSVGTemplate, "#1C1F2E", "#F8F8F8")
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(pieceSVG(piece)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	letterColor := color.Color(color.RGBA{28, 31, 46, 255})
	if piece.Color() == nchess.Black {
		letterColor = color.RGBA{248, 248, 248, 255}
	}
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(letterColor), Face: basicfont.Face7x13}
	letter := pieceLetter(piece)
	width := drawer.MeasureString(letter).Round()
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	drawer.Dot = fixed.P(size/2-width/2, size/2+ascent/2)
	drawer.DrawString(letter)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

func pieceLetter(piece nchess.Piece) string {
	switch piece.Type() {
	case nchess.King:
		return "K"
	case nchess.Queen:
		return "Q"
	case nchess.Rook:
		return "R"
	case nchess.Bishop:
		return "B"
	case nchess.Knight:
		return "N"
	case nchess.Pawn:
		return "P"
	}
	return ""
}
