package wallet

import (
	"encoding/hex"
	"errors"
	"strings"
)

var ErrBadAddress = errors.New("wallet: bad address")

// Normalize lowercases and trims an address. Addresses are hex tokens,
// so case carries no meaning; every map key and comparison in the
// search core uses this form, computed once at the boundary.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse validates that s is a 20-byte hex address ("0x" prefix
// optional) and returns the canonical 0x-prefixed lower-case form.
func Parse(s string) (string, error) {
	s = Normalize(s)
	t := strings.TrimPrefix(s, "0x")
	if len(t) != 40 {
		return "", ErrBadAddress
	}
	var b [20]byte
	if _, err := hex.Decode(b[:], []byte(t)); err != nil {
		return "", ErrBadAddress
	}
	return "0x" + t, nil
}
