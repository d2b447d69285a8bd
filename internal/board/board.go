package board

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidTile  = errors.New("invalid tile")
	ErrInvalidPiece = errors.New("invalid piece type")
)

// Piece is a square code: 0 empty, 1-6 white pawn..king, 7-12 black pawn..king.
type Piece uint8

const (
	Empty Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

var pieceNames = [...]string{
	Empty:       "empty",
	WhitePawn:   "light_pawn",
	WhiteKnight: "light_knight",
	WhiteBishop: "light_bishop",
	WhiteRook:   "light_rook",
	WhiteQueen:  "light_queen",
	WhiteKing:   "light_king",
	BlackPawn:   "dark_pawn",
	BlackKnight: "dark_knight",
	BlackBishop: "dark_bishop",
	BlackRook:   "dark_rook",
	BlackQueen:  "dark_queen",
	BlackKing:   "dark_king",
}

func (p Piece) Valid() bool { return p <= BlackKing }

func (p Piece) String() string {
	if p.Valid() {
		return pieceNames[p]
	}
	return "piece(" + strconv.Itoa(int(p)) + ")"
}

// IsWhite reports whether p is one of the light pieces.
func (p Piece) IsWhite() bool { return p >= WhitePawn && p <= WhiteKing }
func (p Piece) IsBlack() bool { return p >= BlackPawn && p <= BlackKing }

// Side is the player to move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Valid() bool { return s == White || s == Black }

// Tile addresses a square; row 0 is rank 8 and col 0 is file a.
type Tile struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (t Tile) Valid() bool { return t.Row >= 0 && t.Row < 8 && t.Col >= 0 && t.Col < 8 }

// PlacedPiece is the editor-facing view of one occupied square.
type PlacedPiece struct {
	ID   string `json:"id,omitempty"`
	Type Piece  `json:"type"`
	Tile Tile   `json:"tile"`
}

// State is a 64-square placement plus the side to move. It records no
// history and checks no chess rules.
type State struct {
	squares [64]Piece
	side    Side
}

func index(row, col int) int { return row*8 + col }

// New returns a board with the given pieces placed; an invalid piece or tile
// fails the whole load.
func New(side Side, pieces ...PlacedPiece) (*State, error) {
	if !side.Valid() {
		side = White
	}
	s := &State{side: side}
	if err := s.LoadPlacedPieces(pieces); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) SideToMove() Side { return s.side }

func (s *State) SetSideToMove(side Side) {
	if side.Valid() {
		s.side = side
	}
}

func (s *State) Clear() { s.squares = [64]Piece{} }

func (s *State) Piece(row, col int) (Piece, error) {
	if !(Tile{Row: row, Col: col}).Valid() {
		return Empty, fmt.Errorf("%w: %d,%d", ErrInvalidTile, row, col)
	}
	return s.squares[index(row, col)], nil
}

func (s *State) SetPiece(row, col int, p Piece) error {
	if !(Tile{Row: row, Col: col}).Valid() {
		return fmt.Errorf("%w: %d,%d", ErrInvalidTile, row, col)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPiece, p)
	}
	s.squares[index(row, col)] = p
	return nil
}

func (s *State) RemovePiece(row, col int) error {
	return s.SetPiece(row, col, Empty)
}

// LoadPlacedPieces replaces the placement. Nothing changes if any entry is invalid.
func (s *State) LoadPlacedPieces(pieces []PlacedPiece) error {
	next := State{side: s.side}
	for _, p := range pieces {
		if err := next.SetPiece(p.Tile.Row, p.Tile.Col, p.Type); err != nil {
			return err
		}
	}
	s.squares = next.squares
	return nil
}

// PlacedPieces lists occupied squares in row-major order.
func (s *State) PlacedPieces() []PlacedPiece {
	out := make([]PlacedPiece, 0, 32)
	for i, p := range s.squares {
		if p == Empty {
			continue
		}
		row, col := i/8, i%8
		out = append(out, PlacedPiece{
			ID:   fmt.Sprintf("%d-%d-%d", row, col, p),
			Type: p,
			Tile: Tile{Row: row, Col: col},
		})
	}
	return out
}

// Equal compares placement and side to move.
func (s *State) Equal(o *State) bool {
	return s.side == o.side && s.squares == o.squares
}
