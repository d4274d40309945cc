// Package pckformat implements the PCK archive format: the two-pass writer
// that stages bodies to a temp file before emitting the final header and
// directory, and the reader half used for inspection and round-trip tests.
package pckformat

import (
	"encoding/binary"
	"io"
)

// Magic identifies a PCK header and its embedded-PCK trailer: the ASCII
// bytes "GDPC" read as a little-endian u32.
const Magic = uint32(0x43504447)

// FormatVersion is the on-disk format revision this package reads/writes.
const FormatVersion = uint32(2)

const (
	// PackFlagDirEncrypted marks the directory block as AES-256 wrapped.
	PackFlagDirEncrypted = uint32(1 << 0)
	// FileFlagEncrypted marks one descriptor's body as AES-256 wrapped.
	FileFlagEncrypted = uint32(1 << 0)

	headerReservedWords = 16
	trailerSize         = 8 + 4 // pck_size u64 + magic u32
)

// EngineVersion is stamped into the header for the loader's compatibility
// check; the packaging pipeline never interprets it itself.
type EngineVersion struct {
	Major, Minor, Patch uint32
}

// Descriptor is one PCK directory entry. Offset is loader-relative: it is
// the temp-file offset recorded during staging, and a loader is expected to
// add the header's FilesBase to it to get an absolute file position.
type Descriptor struct {
	Path   string
	Offset uint64
	Size   uint64
	MD5    [16]byte
	Flags  uint32
}

// Encrypted reports whether this descriptor's body is AES-wrapped.
func (d Descriptor) Encrypted() bool {
	return d.Flags&FileFlagEncrypted != 0
}

func pathPad(n int) int {
	return (4 - n%4) % 4
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeDescriptor(w io.Writer, d Descriptor) error {
	pathBytes := []byte(d.Path)
	pad := pathPad(len(pathBytes))
	if err := writeU32(w, uint32(len(pathBytes)+pad)); err != nil {
		return err
	}
	if _, err := w.Write(pathBytes); err != nil {
		return err
	}
	if pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	if err := writeU64(w, d.Offset); err != nil {
		return err
	}
	if err := writeU64(w, d.Size); err != nil {
		return err
	}
	if _, err := w.Write(d.MD5[:]); err != nil {
		return err
	}
	return writeU32(w, d.Flags)
}

func readDescriptor(r io.Reader) (Descriptor, error) {
	pathLen, err := readU32(r)
	if err != nil {
		return Descriptor{}, err
	}
	pathBuf := make([]byte, pathLen)
	if _, err := io.ReadFull(r, pathBuf); err != nil {
		return Descriptor{}, err
	}
	offset, err := readU64(r)
	if err != nil {
		return Descriptor{}, err
	}
	size, err := readU64(r)
	if err != nil {
		return Descriptor{}, err
	}
	var md5 [16]byte
	if _, err := io.ReadFull(r, md5[:]); err != nil {
		return Descriptor{}, err
	}
	flags, err := readU32(r)
	if err != nil {
		return Descriptor{}, err
	}

	trimmed := pathBuf
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return Descriptor{Path: string(trimmed), Offset: offset, Size: size, MD5: md5, Flags: flags}, nil
}
