package board

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Silhouettes on a 45x45 canvas; %[1]s is the fill and %[2]s the outline.
var pieceShapes = map[Piece]string{
	WhitePawn: `<circle cx="22.5" cy="15" r="5.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 16 38 L 18 24 Q 22.5 20 27 24 L 29 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="12" y="36" width="21" height="4" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	WhiteKnight: `<path d="M 14 39 L 31 39 L 30 22 Q 28 10 18 9 L 17 13 L 12 19 L 13 23 L 19 21 L 15 31 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="19" cy="14" r="1.2" fill="%[2]s"/>`,
	WhiteBishop: `<circle cx="22.5" cy="9" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 22.5 11 Q 31 18 28 29 L 17 29 Q 14 18 22.5 11 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="11" y="33" width="23" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 17 29 L 28 29 L 30 33 L 15 33 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	WhiteRook: `<path d="M 12 10 L 16 10 L 16 13 L 20.5 13 L 20.5 10 L 24.5 10 L 24.5 13 L 29 13 L 29 10 L 33 10 L 33 16 L 30 18 L 30 31 L 33 34 L 12 34 L 15 31 L 15 18 L 12 16 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="10" y="34" width="25" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	WhiteQueen: `<path d="M 9 14 L 14 28 L 16 12 L 20 27 L 22.5 10 L 25 27 L 29 12 L 31 28 L 36 14 L 32 33 L 13 33 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="11" y="33" width="23" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	WhiteKing: `<path d="M 22.5 5 L 22.5 13 M 19 8.5 L 26 8.5" fill="none" stroke="%[2]s" stroke-width="1.8"/>
<path d="M 22.5 14 Q 34 14 33 24 L 30 33 L 15 33 L 12 24 Q 11 14 22.5 14 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="11" y="33" width="23" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

const (
	lightFill    = "#FFFFFF"
	lightOutline = "#000000"
	darkFill     = "#1A1A1A"
	darkOutline  = "#D8D8D8"
)

func pieceSVG(p Piece) ([]byte, error) {
	shape, fill, outline := "", lightFill, lightOutline
	switch {
	case p.IsWhite():
		shape = pieceShapes[p]
	case p.IsBlack():
		shape = pieceShapes[p-BlackPawn+WhitePawn]
		fill, outline = darkFill, darkOutline
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPiece, p)
	}
	body := fmt.Sprintf(shape, fill, outline)
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">` + body + `</svg>`), nil
}

type pieceCacheKey struct {
	piece Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", p, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
