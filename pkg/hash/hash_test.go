package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDeterministic(t *testing.T) {
	sum := func() Hash32 {
		return NewBuilder().PutString("0xaa").PutString("0xbb").PutU64(7).Sum32()
	}
	assert.Equal(t, sum(), sum())
	assert.False(t, sum().IsZero())
}

func TestBuilderLengthPrefixDisambiguates(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must hash differently
	a := NewBuilder().PutString("ab").PutString("c").Sum32()
	b := NewBuilder().PutString("a").PutString("bc").Sum32()
	assert.NotEqual(t, a, b)
}

func TestBuilderReset(t *testing.T) {
	b := NewBuilder().PutU64(1)
	first := b.Sum32()
	b.Reset()
	b.PutU64(1)
	assert.Equal(t, first, b.Sum32())
}

func TestHexRoundTrip(t *testing.T) {
	h := NewBuilder().PutString("x").Sum32()

	parsed, err := String2Hash32(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	// 0X prefix and surrounding space tolerated
	parsed, err = String2Hash32("  0X" + h.Hex()[2:] + " ")
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestString2Hash32Rejects(t *testing.T) {
	_, err := String2Hash32("")
	assert.ErrorIs(t, err, ErrEmptyHashStr)

	_, err = String2Hash32("0x1234")
	assert.ErrorIs(t, err, ErrInvalidLen)

	_, err = String2Hash32("0x" + string(make([]byte, 64)))
	assert.ErrorIs(t, err, ErrInvalidHex)
}
