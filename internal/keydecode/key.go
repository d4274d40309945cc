// Package keydecode parses the 64-hex-digit script encryption key stored in
// a preset into the 32 raw bytes the AES-256 primitive needs.
package keydecode

// Size is the length in bytes of a decoded key.
const Size = 32

// Decode parses a (possibly malformed or short) 64-character hex string
// into a 32-byte key. This is a defined parsing choice, not an error path:
// any character outside 0-9a-f contributes a zero nibble, and input
// shorter than 64 characters yields trailing zero bytes. Builds never abort
// because of a corrupt preset key.
func Decode(hexKey string) [Size]byte {
	var key [Size]byte
	for i := 0; i < Size; i++ {
		hi := nibbleAt(hexKey, 2*i)
		lo := nibbleAt(hexKey, 2*i+1)
		key[i] = hi<<4 | lo
	}
	return key
}

// nibbleAt returns the hex value of the character at index idx in s, or 0
// if idx is out of range or the character isn't a hex digit.
func nibbleAt(s string, idx int) byte {
	if idx >= len(s) {
		return 0
	}
	c := s[idx]
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}
