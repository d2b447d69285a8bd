package board

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	lightSquare     = color.NRGBA{R: 240, G: 217, B: 181, A: 255}
	darkSquare      = color.NRGBA{R: 181, G: 136, B: 99, A: 255}
	backgroundColor = color.NRGBA{R: 38, G: 36, B: 33, A: 255}
	coordinateColor = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	turnWhiteColor  = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	turnBlackColor  = color.NRGBA{R: 10, G: 10, B: 10, A: 255}
)

// RenderOptions tunes RenderPNG; zero values fall back to defaults.
type RenderOptions struct {
	SquareSize int
	// Flipped draws the board from black's side.
	Flipped bool
}

const (
	defaultSquareSize = 48
	minSquareSize     = 16
	maxSquareSize     = 128
)

// RenderPNG draws a thumbnail of the position with coordinates and a
// side-to-move marker.
func (s *State) RenderPNG(ctx context.Context, opts RenderOptions) ([]byte, error) {
	size := opts.SquareSize
	if size == 0 {
		size = defaultSquareSize
	}
	size = min(max(size, minSquareSize), maxSquareSize)
	margin := size / 2
	boardPx := size * 8
	img := image.NewRGBA(image.Rect(0, 0, boardPx+2*margin, boardPx+2*margin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	origin := image.Point{X: margin, Y: margin}
	for row := range 8 {
		for col := range 8 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			x, y := screenPos(row, col, opts.Flipped, size, origin)
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			rect := image.Rect(x, y, x+size, y+size)
			imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)

			p := s.squares[index(row, col)]
			if p == Empty {
				continue
			}
			pieceImg, err := renderPieceImage(p, size)
			if err != nil {
				return nil, err
			}
			imagedraw.Draw(img, rect, pieceImg, image.Point{}, imagedraw.Over)
		}
	}
	drawCoordinates(img, size, origin, margin, opts.Flipped)
	drawTurnMarker(img, s.side, size, origin, margin, opts.Flipped)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func screenPos(row, col int, flipped bool, size int, origin image.Point) (int, int) {
	if flipped {
		row, col = 7-row, 7-col
	}
	return origin.X + col*size, origin.Y + row*size
}

func drawCoordinates(dst imagedraw.Image, size int, origin image.Point, margin int, flipped bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateColor)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := range 8 {
		rank, file := 8-i, 'a'+rune(i)
		if flipped {
			rank, file = i+1, 'h'-rune(i)
		}
		rowCenter := origin.Y + i*size + size/2
		drawCenteredText(drawer, fmt.Sprint(rank), origin.X-margin/2, rowCenter+ascent/2)
		colCenter := origin.X + i*size + size/2
		drawCenteredText(drawer, string(file), colCenter, origin.Y+8*size+margin/2+ascent/2)
	}
}

// drawTurnMarker puts a disc next to the edge of the side to move.
func drawTurnMarker(img *image.RGBA, side Side, size int, origin image.Point, margin int, flipped bool) {
	clr := turnWhiteColor
	bottom := !flipped
	if side == Black {
		clr = turnBlackColor
		bottom = flipped
	}
	cx := origin.X + 8*size + margin/2
	cy := origin.Y + margin/2
	if bottom {
		cy = origin.Y + 8*size - margin/2
	}
	r := max(2, margin/4)
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.Set(cx+x, cy+y, clr)
			}
		}
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
