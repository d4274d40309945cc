package keydecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAllZeros(t *testing.T) {
	key := Decode("00" + repeat("00", 31))
	for _, b := range key {
		require.Zero(t, b)
	}
}

func TestDecodeShortStringZeroPads(t *testing.T) {
	key := Decode("ff")
	require.Equal(t, byte(0xff), key[0])
	for _, b := range key[1:] {
		require.Zero(t, b)
	}
}

func TestDecodeMalformedCharactersContributeZero(t *testing.T) {
	key := Decode("zz" + repeat("00", 31))
	require.Equal(t, byte(0x00), key[0])
}

func TestDecodeFullKey(t *testing.T) {
	hex := repeat("ab", 32)
	key := Decode(hex)
	for _, b := range key {
		require.Equal(t, byte(0xab), b)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
