package board

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

var (
	fenRanks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	fenFiles = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}

	pieceTypes = [...]nchess.PieceType{nchess.Pawn, nchess.Knight, nchess.Bishop, nchess.Rook, nchess.Queen, nchess.King}
)

func toEngine(p Piece) nchess.Piece {
	switch {
	case p.IsWhite():
		return nchess.NewPiece(pieceTypes[p-WhitePawn], nchess.White)
	case p.IsBlack():
		return nchess.NewPiece(pieceTypes[p-BlackPawn], nchess.Black)
	default:
		return nchess.NoPiece
	}
}

func fromEngine(p nchess.Piece) Piece {
	if p == nchess.NoPiece {
		return Empty
	}
	offset := WhitePawn
	if p.Color() == nchess.Black {
		offset = BlackPawn
	}
	for i, t := range pieceTypes {
		if p.Type() == t {
			return offset + Piece(i)
		}
	}
	return Empty
}

// EngineBoard converts the placement into a chess library board, e.g. for rendering.
func (s *State) EngineBoard() *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, 32)
	for row, rank := range fenRanks {
		for col, file := range fenFiles {
			if p := s.squares[index(row, col)]; p != Empty {
				m[nchess.NewSquare(file, rank)] = toEngine(p)
			}
		}
	}
	return nchess.NewBoard(m)
}

// FEN renders the position with no castling or en passant rights, since the
// board does not track history.
func (s *State) FEN() string {
	turn := "w"
	if s.side == Black {
		turn = "b"
	}
	return s.EngineBoard().String() + " " + turn + " - - 0 1"
}

// FromFEN loads the placement and side to move of a FEN string.
func FromFEN(fen string) (*State, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	pos := nchess.NewGame(opt).Position()
	s := &State{side: White}
	if pos.Turn() == nchess.Black {
		s.side = Black
	}
	squares := pos.Board().SquareMap()
	for row, rank := range fenRanks {
		for col, file := range fenFiles {
			s.squares[index(row, col)] = fromEngine(squares[nchess.NewSquare(file, rank)])
		}
	}
	return s, nil
}
