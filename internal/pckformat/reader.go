package pckformat

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"gdpack/internal/aescrypt"
)

// Header is the parsed fixed-size prefix of a PCK, before the directory.
type Header struct {
	FormatVersion uint32
	Engine        EngineVersion
	PackFlags     uint32
	FilesBase     uint64
	FileCount     uint32
}

func (h Header) DirEncrypted() bool {
	return h.PackFlags&PackFlagDirEncrypted != 0
}

// Archive is a fully parsed PCK: header plus directory, bound to the
// underlying file so bodies can be read on demand.
type Archive struct {
	Header  Header
	Entries []Descriptor
	file    *os.File
	pckBase int64
}

// Open parses the PCK header and directory starting at byte offset
// pckStart within path (0 for a standalone PCK file; a nonzero embed_pos
// for one appended to an executable).
func Open(path string, pckStart int64, key []byte) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(pckStart, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	magic, err := readU32(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if magic != Magic {
		f.Close()
		return nil, fmt.Errorf("pckformat: bad magic %x at offset %d", magic, pckStart)
	}

	h := Header{}
	if h.FormatVersion, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}
	if h.Engine.Major, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}
	if h.Engine.Minor, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}
	if h.Engine.Patch, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}
	if h.PackFlags, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}
	if h.FilesBase, err = readU64(f); err != nil {
		f.Close()
		return nil, err
	}
	for i := 0; i < headerReservedWords; i++ {
		if _, err := readU32(f); err != nil {
			f.Close()
			return nil, err
		}
	}
	if h.FileCount, err = readU32(f); err != nil {
		f.Close()
		return nil, err
	}

	var dirReader io.Reader = f
	if h.DirEncrypted() {
		dec, err := aescrypt.NewReader(f, key)
		if err != nil {
			f.Close()
			return nil, err
		}
		dirReader = dec
	}

	entries := make([]Descriptor, 0, h.FileCount)
	for i := uint32(0); i < h.FileCount; i++ {
		d, err := readDescriptor(dirReader)
		if err != nil {
			f.Close()
			return nil, err
		}
		entries = append(entries, d)
	}

	return &Archive{Header: h, Entries: entries, file: f, pckBase: pckStart}, nil
}

// Close releases the underlying file handle.
func (a *Archive) Close() error {
	return a.file.Close()
}

// ReadBody returns d's plaintext body, decrypting it first if its ENCRYPTED
// flag is set, and verifies the result against the stored MD5.
func (a *Archive) ReadBody(d Descriptor, key []byte) ([]byte, error) {
	abs := int64(a.Header.FilesBase) + int64(d.Offset)
	if _, err := a.file.Seek(abs, io.SeekStart); err != nil {
		return nil, err
	}

	var body []byte
	if d.Encrypted() {
		dec, err := aescrypt.NewReader(a.file, key)
		if err != nil {
			return nil, err
		}
		body = make([]byte, d.Size)
		if _, err := io.ReadFull(dec, body); err != nil {
			return nil, err
		}
	} else {
		body = make([]byte, d.Size)
		if _, err := io.ReadFull(a.file, body); err != nil {
			return nil, err
		}
	}

	got := md5.Sum(body)
	if !bytes.Equal(got[:], d.MD5[:]) {
		return nil, fmt.Errorf("pckformat: md5 mismatch for %q", d.Path)
	}
	return body, nil
}

// FindEntry returns the directory entry for path, if present. Entries are
// sorted, so a real loader would binary-search; a linear scan is adequate
// here since this reader only serves inspection and tests.
func (a *Archive) FindEntry(path string) (Descriptor, bool) {
	for _, d := range a.Entries {
		if d.Path == path {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ReadTrailer reads the last 12 bytes of path and returns (pck_size,
// magic), matching the embedded-PCK loader convention.
func ReadTrailer(path string) (pckSize uint64, magic uint32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if _, err := f.Seek(-trailerSize, io.SeekEnd); err != nil {
		return 0, 0, err
	}
	if pckSize, err = readU64(f); err != nil {
		return 0, 0, err
	}
	if magic, err = readU32(f); err != nil {
		return 0, 0, err
	}
	return pckSize, magic, nil
}
