package hash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

type Hash32 [32]byte

var (
	ErrInvalidHex   = errors.New("invalid hex")
	ErrInvalidLen   = errors.New("invalid hash length")
	ErrEmptyHashStr = errors.New("empty hash string")
)

// Hex returns the 0x-prefixed lower-case form.
func (h Hash32) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash32) Bytes() []byte {
	return append([]byte(nil), h[:]...)
}

func (h Hash32) IsZero() bool {
	var z Hash32
	return h == z
}

func String2Hash32(s string) (Hash32, error) {
	var h Hash32

	s = strings.TrimSpace(s)
	if s == "" {
		return h, ErrEmptyHashStr
	}
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")

	if len(s) != 64 {
		return h, fmt.Errorf("%w: want 64 hex chars, got %d", ErrInvalidLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	copy(h[:], b)
	return h, nil
}
