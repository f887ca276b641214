package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-viewer/internal/domain"
)

type PNGOptions struct {
	SquareSize int
	Label      string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, pos domain.Position, opts PNGOptions) ([]byte, error)
}

type pngBoardRenderer struct{}

func NewPNGRenderer() BoardRenderer {
	return &pngBoardRenderer{}
}

const defaultSquareSize = 64

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{20, 22, 33, 255}
	hudPanelColor       = color.RGBA{28, 31, 46, 255}
	hudTextPrimary      = color.RGBA{236, 239, 255, 255}
	coordinateTextColor = color.RGBA{8, 214, 120, 255}
)

func (r *pngBoardRenderer) RenderPNG(ctx context.Context, pos domain.Position, opts PNGOptions) ([]byte, error) {
	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = defaultSquareSize
	}
	if squareSize < 16 {
		return nil, fmt.Errorf("square size %d too small", squareSize)
	}

	const (
		sideMargin   = 28
		headerHeight = 40
		gapToBoard   = 12
		bottomMargin = 28
	)
	boardSize := squareSize * domain.BoardFiles
	topMargin := headerHeight + gapToBoard
	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawHeader(img, opts.Label, image.Rect(sideMargin, 0, sideMargin+boardSize, headerHeight))
	drawSquares(img, squareSize, origin)
	if err := drawPieces(img, Board(pos), squareSize, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, squareSize, origin, sideMargin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawHeader(img *image.RGBA, label string, rect image.Rectangle) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	imagedraw.Draw(img, rect, image.NewUniform(hudPanelColor), image.Point{}, imagedraw.Src)
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(hudTextPrimary), Face: basicfont.Face7x13}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	drawCenteredText(drawer, label, rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2+ascent/2)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 0; row < domain.BoardRanks; row++ {
		rank := domain.BoardRanks - 1 - row
		for file := 0; file < domain.BoardFiles; file++ {
			x := origin.X + file*squareSize
			y := origin.Y + row*squareSize
			clr := lightSquare
			if IsDark(rank, file) {
				clr = darkSquare
			}
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, squareSize int, origin image.Point) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		rect := squareRect(sq, squareSize, origin)
		imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(coordinateTextColor),
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + domain.BoardRanks*squareSize

	for row := 0; row < domain.BoardRanks; row++ {
		rank := domain.BoardRanks - 1 - row
		rankCenter := origin.Y + row*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('1'+rank)), origin.X-margin/2, rankCenter+ascent/2)
	}
	for file := 0; file < domain.BoardFiles; file++ {
		fileCenter := origin.X + file*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('a'+file)), fileCenter, boardEndY+ascent+4)
	}
}

func squareRect(sq nchess.Square, squareSize int, origin image.Point) image.Rectangle {
	file := int(sq.File())
	rank := int(sq.Rank())
	row := 7 - rank
	x := origin.X + file*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
