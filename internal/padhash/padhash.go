// Package padhash provides the alignment-padding arithmetic and body
// hashing shared by the pack and zip emitters.
package padhash

import (
	"crypto/md5"
	cryptorand "crypto/rand"
	"io"
)

// Align values used across the PCK format.
const (
	BodyAlign = 16 // body slot alignment
	PathAlign = 4  // directory entry path-length alignment
)

// Pad returns the number of bytes needed to bring n up to the next
// multiple of align. Pad(align, n) == 0 when n is already aligned.
func Pad(align, n int) int {
	if align <= 0 {
		return 0
	}
	return (align - n%align) % align
}

// Pad64 is the uint64 offset variant of Pad, used against file positions.
func Pad64(align int, n int64) int64 {
	if align <= 0 {
		return 0
	}
	a := int64(align)
	return (a - n%a) % a
}

// MD5 returns the MD5 digest of the plaintext body. Hashing always runs
// over plaintext, before any encryption is applied, per the format spec.
func MD5(body []byte) [16]byte {
	return md5.Sum(body)
}

// PaddingSource supplies the random bytes used for slot padding. Tests that
// need byte-identical output swap this for a deterministic source
// (e.g. a zero-filled reader) instead of patching call sites.
var PaddingSource io.Reader = cryptorand.Reader

// WriteRandomPadding writes n bytes read from PaddingSource to w. The PCK
// format deliberately pads body and directory slots with random noise
// rather than zeros so that an encrypted body's exact length isn't visible
// as a run of zero bytes at slot boundaries.
func WriteRandomPadding(w io.Writer, n int) error {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(PaddingSource, buf); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}
