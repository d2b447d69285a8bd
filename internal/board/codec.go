package board

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// Version is the only payload layout understood by Deserialize.
	Version = 0

	payloadSize = 33
	bodySize    = 32
)

var (
	ErrCorruptPayload     = errors.New("corrupt board payload")
	ErrUnsupportedVersion = errors.New("unsupported board payload version")
)

// Serialize packs the board into 33 bytes and base64-encodes it. Byte 0 holds
// the side to move in bit 0 and the version in bits 1-7; bytes 1-32 carry two
// squares each, the even square in the high nibble.
func (s *State) Serialize() string {
	var buf [payloadSize]byte
	header := byte(Version << 1)
	if s.side == Black {
		header |= 1
	}
	buf[0] = header
	for i := 0; i < 64; i += 2 {
		buf[1+i/2] = byte(s.squares[i]&0x0f)<<4 | byte(s.squares[i+1]&0x0f)
	}
	return base64.StdEncoding.EncodeToString(buf[:])
}

// Deserialize is the inverse of Serialize.
func Deserialize(data string) (*State, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorruptPayload)
	}
	if version := raw[0] >> 1; version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if len(raw)-1 != bodySize {
		return nil, fmt.Errorf("%w: body is %d bytes", ErrCorruptPayload, len(raw)-1)
	}

	s := &State{side: White}
	if raw[0]&0x01 == 1 {
		s.side = Black
	}
	for i, b := range raw[1:] {
		hi, lo := Piece(b>>4), Piece(b&0x0f)
		if !hi.Valid() || !lo.Valid() {
			return nil, fmt.Errorf("%w: byte %d", ErrInvalidPiece, i+1)
		}
		s.squares[2*i] = hi
		s.squares[2*i+1] = lo
	}
	return s, nil
}
