package board

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"testing"
)

func startingPosition(t *testing.T) *State {
	t.Helper()
	s, err := FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	return s
}

func TestSetPieceValidation(t *testing.T) {
	s, _ := New(White)
	if err := s.SetPiece(8, 0, WhitePawn); !errors.Is(err, ErrInvalidTile) {
		t.Fatalf("expected ErrInvalidTile, got %v", err)
	}
	if err := s.SetPiece(0, 0, Piece(13)); !errors.Is(err, ErrInvalidPiece) {
		t.Fatalf("expected ErrInvalidPiece, got %v", err)
	}
	if err := s.SetPiece(7, 4, WhiteKing); err != nil {
		t.Fatalf("SetPiece: %v", err)
	}
	if p, _ := s.Piece(7, 4); p != WhiteKing {
		t.Fatalf("Piece = %v", p)
	}
	if err := s.RemovePiece(7, 4); err != nil {
		t.Fatalf("RemovePiece: %v", err)
	}
	if len(s.PlacedPieces()) != 0 {
		t.Fatalf("expected empty board")
	}
}

func TestLoadPlacedPiecesIsAtomic(t *testing.T) {
	s, _ := New(White, PlacedPiece{Type: BlackQueen, Tile: Tile{Row: 0, Col: 3}})
	err := s.LoadPlacedPieces([]PlacedPiece{
		{Type: WhiteKing, Tile: Tile{Row: 7, Col: 4}},
		{Type: WhitePawn, Tile: Tile{Row: 9, Col: 0}},
	})
	if !errors.Is(err, ErrInvalidTile) {
		t.Fatalf("expected ErrInvalidTile, got %v", err)
	}
	if p, _ := s.Piece(0, 3); p != BlackQueen {
		t.Fatalf("board changed on failed load")
	}
}

func TestPlacedPiecesIDs(t *testing.T) {
	s, _ := New(Black, PlacedPiece{Type: BlackKnight, Tile: Tile{Row: 2, Col: 5}})
	got := s.PlacedPieces()
	if len(got) != 1 || got[0].ID != "2-5-8" || got[0].Type != BlackKnight {
		t.Fatalf("PlacedPieces = %+v", got)
	}
}

func TestSerializeLayout(t *testing.T) {
	s, _ := New(Black,
		PlacedPiece{Type: BlackRook, Tile: Tile{Row: 0, Col: 0}},
		PlacedPiece{Type: BlackKnight, Tile: Tile{Row: 0, Col: 1}},
		PlacedPiece{Type: WhiteKing, Tile: Tile{Row: 7, Col: 7}},
	)
	raw, err := base64.StdEncoding.DecodeString(s.Serialize())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 33 {
		t.Fatalf("payload is %d bytes", len(raw))
	}
	if raw[0] != 0x01 {
		t.Fatalf("header = %#x", raw[0])
	}
	if raw[1] != 0xA8 {
		t.Fatalf("first body byte = %#x, want 0xa8", raw[1])
	}
	if raw[32] != 0x06 {
		t.Fatalf("last body byte = %#x, want 0x06", raw[32])
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	s := startingPosition(t)
	s.SetSideToMove(Black)
	back, err := Deserialize(s.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("round trip mismatch")
	}
	empty, _ := New(White)
	back, err = Deserialize(empty.Serialize())
	if err != nil || !back.Equal(empty) {
		t.Fatalf("empty round trip: %v", err)
	}
}

func TestDeserializeRejects(t *testing.T) {
	short := base64.StdEncoding.EncodeToString(make([]byte, 20))
	if _, err := Deserialize(short); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for short body, got %v", err)
	}
	if _, err := Deserialize("not base64!"); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for bad base64, got %v", err)
	}
	versioned := make([]byte, 33)
	versioned[0] = 1 << 1
	if _, err := Deserialize(base64.StdEncoding.EncodeToString(versioned)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	badPiece := make([]byte, 33)
	badPiece[5] = 0xF0
	if _, err := Deserialize(base64.StdEncoding.EncodeToString(badPiece)); !errors.Is(err, ErrInvalidPiece) {
		t.Fatalf("expected ErrInvalidPiece, got %v", err)
	}
}

func TestFENRoundTrip(t *testing.T) {
	s := startingPosition(t)
	if p, _ := s.Piece(0, 4); p != BlackKing {
		t.Fatalf("e8 = %v", p)
	}
	if p, _ := s.Piece(6, 0); p != WhitePawn {
		t.Fatalf("a2 = %v", p)
	}
	want := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"
	if got := s.FEN(); got != want {
		t.Fatalf("FEN = %q, want %q", got, want)
	}
	if _, err := FromFEN("garbage"); err == nil {
		t.Fatalf("expected error for invalid FEN")
	}
}

func TestRenderPNG(t *testing.T) {
	s := startingPosition(t)
	data, err := s.RenderPNG(context.Background(), RenderOptions{SquareSize: 24})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24*9 || b.Dy() != 24*9 {
		t.Fatalf("bounds = %v", b)
	}
}
