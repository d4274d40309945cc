// Package aescrypt is the encryption primitive treated as a black box by
// the rest of the packaging pipeline: an AES-256 CFB stream writer/reader
// over a small on-disk frame (magic + IV, then ciphertext). Callers never
// see key material or cipher state; they get an io.WriteCloser (or Reader)
// that composes around an existing file handle the way any other stream
// filter would.
package aescrypt

import (
	"crypto/aes"
	"crypto/cipher"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Magic identifies a gdpack-encrypted stream frame.
var Magic = [4]byte{'G', 'D', 'A', 'E'}

// KeySize is the required AES-256 key length in bytes.
const KeySize = 32

// ErrBadKeySize is returned when constructing a Writer/Reader with a key
// that isn't exactly KeySize bytes long.
var ErrBadKeySize = errors.New("aescrypt: key must be 32 bytes for AES-256")

// Writer streams plaintext through AES-256 CFB into an underlying sink,
// after writing the frame header (magic + random IV) once.
type Writer struct {
	underlying io.Writer
	stream     cipher.Stream
}

// NewWriter constructs a Writer around underlying using key. It writes the
// frame header immediately, so construction itself is fallible: a bad key
// length or a failed header write surfaces here rather than on first
// Write.
func NewWriter(underlying io.Writer, key []byte) (*Writer, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescrypt: init cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := cryptorand.Read(iv); err != nil {
		return nil, fmt.Errorf("aescrypt: generate iv: %w", err)
	}

	if _, err := underlying.Write(Magic[:]); err != nil {
		return nil, fmt.Errorf("aescrypt: write magic: %w", err)
	}
	if _, err := underlying.Write(iv); err != nil {
		return nil, fmt.Errorf("aescrypt: write iv: %w", err)
	}

	return &Writer{
		underlying: underlying,
		stream:     cipher.NewCFBEncrypter(block, iv),
	}, nil
}

// Write encrypts p and forwards it to the underlying sink.
func (w *Writer) Write(p []byte) (int, error) {
	out := make([]byte, len(p))
	w.stream.XORKeyStream(out, p)
	return w.underlying.Write(out)
}

// Close is a no-op; CFB mode needs no trailer, and the underlying sink's
// lifetime is owned by the caller.
func (w *Writer) Close() error {
	return nil
}

// Reader decrypts a stream previously produced by Writer.
type Reader struct {
	stream cipher.StreamReader
}

// NewReader reads the frame header from underlying and returns a Reader
// that decrypts everything after it.
func NewReader(underlying io.Reader, key []byte) (*Reader, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescrypt: init cipher: %w", err)
	}

	var magic [4]byte
	if _, err := io.ReadFull(underlying, magic[:]); err != nil {
		return nil, fmt.Errorf("aescrypt: read magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("aescrypt: bad frame magic %x", magic)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(underlying, iv); err != nil {
		return nil, fmt.Errorf("aescrypt: read iv: %w", err)
	}

	return &Reader{
		stream: cipher.StreamReader{S: cipher.NewCFBDecrypter(block, iv), R: underlying},
	}, nil
}

// Read decrypts from the underlying stream.
func (r *Reader) Read(p []byte) (int, error) {
	return r.stream.Read(p)
}

// FrameOverhead is the number of bytes NewWriter prepends before any
// ciphertext: 4-byte magic plus one AES block IV.
const FrameOverhead = 4 + aes.BlockSize
