package pckformat

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/aescrypt"
	"gdpack/internal/globfilter"
	"gdpack/internal/padhash"
	"gdpack/internal/respack/errs"
)

// EncryptionPolicy decides, per archive path, whether a body is AES-256
// encrypted, and whether the directory block as a whole is.
type EncryptionPolicy struct {
	Key          []byte
	EncPCK       bool
	EncDirectory bool
	IncludeGlob  string
	ExcludeGlob  string
}

// Encrypts reports whether a path matching the given prefixed/unprefixed
// forms should have its body encrypted. Includes are evaluated first, then
// excludes, so an exclude match always wins over an include match for the
// same path.
func (p EncryptionPolicy) Encrypts(prefixed, unprefixed string) bool {
	if !p.EncPCK {
		return false
	}
	encrypted := false
	for _, pat := range splitGlobs(p.IncludeGlob) {
		if globfilter.MatchesAny(pat, prefixed, unprefixed) {
			encrypted = true
			break
		}
	}
	for _, pat := range splitGlobs(p.ExcludeGlob) {
		if globfilter.MatchesAny(pat, prefixed, unprefixed) {
			encrypted = false
			break
		}
	}
	return encrypted
}

func splitGlobs(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Writer stages PCK bodies to a temp file (pass 1) and later emits the
// final header, directory, and body region (pass 2) via Finalize.
type Writer struct {
	logger hclog.Logger
	engine EngineVersion
	policy EncryptionPolicy

	tmp          *os.File
	tmpPath      string
	pos          int64
	dir          []Descriptor
	encryptedCnt int
}

// NewWriter opens a temp staging file and returns a Writer ready for
// AddFile calls.
func NewWriter(engine EngineVersion, policy EncryptionPolicy, logger hclog.Logger) (*Writer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	tmp, err := os.CreateTemp("", "gdpack-body-*.tmp")
	if err != nil {
		return nil, &errs.IOError{Op: "create body staging file", Err: err}
	}
	return &Writer{logger: logger, engine: engine, policy: policy, tmp: tmp, tmpPath: tmp.Name()}, nil
}

// Close removes the temp staging file. Safe to call more than once; callers
// should defer it immediately after NewWriter succeeds so the staging file
// is removed on every exit path, matching I7.
func (w *Writer) Close() error {
	if w.tmp == nil {
		return nil
	}
	name := w.tmpPath
	closeErr := w.tmp.Close()
	w.tmp = nil
	if rmErr := os.Remove(name); rmErr != nil && closeErr == nil && !os.IsNotExist(rmErr) {
		closeErr = rmErr
	}
	return closeErr
}

// AddFile stages one payload into the temp file: it records the body's
// plaintext MD5, optionally encrypts it per the encryption policy, and pads
// the slot to the next 16-byte boundary with random bytes.
func (w *Writer) AddFile(archivePath, prefixed, unprefixed string, data []byte) error {
	offset := w.pos
	digest := padhash.MD5(data)
	encrypted := w.policy.Encrypts(prefixed, unprefixed)

	var flags uint32
	if encrypted {
		flags = FileFlagEncrypted
		w.encryptedCnt++
		enc, err := aescrypt.NewWriter(w.tmp, w.policy.Key)
		if err != nil {
			return &errs.EncryptionSetupError{Err: err}
		}
		n, err := enc.Write(data)
		if err != nil {
			return &errs.IOError{Op: "write encrypted body", Err: err}
		}
		enc.Close()
		w.pos += int64(aescrypt.FrameOverhead + n)
	} else {
		n, err := w.tmp.Write(data)
		if err != nil {
			return &errs.IOError{Op: "write body", Err: err}
		}
		w.pos += int64(n)
	}

	pad := padhash.Pad64(padhash.BodyAlign, w.pos)
	if pad > 0 {
		if err := padhash.WriteRandomPadding(w.tmp, int(pad)); err != nil {
			return &errs.IOError{Op: "pad body slot", Err: err}
		}
		w.pos += pad
	}

	w.dir = append(w.dir, Descriptor{
		Path:   archivePath,
		Offset: uint64(offset),
		Size:   uint64(len(data)),
		MD5:    digest,
		Flags:  flags,
	})
	return nil
}

// Result reports the offsets a caller needs after a successful Finalize.
type Result struct {
	PCKStart       int64
	FilesBase      uint64
	EmbeddedStart  int64
	EmbeddedSize   int64
	EncryptedFiles int
}

// max32BitEmbedSize is the largest embedded PCK a 32-bit host executable can
// address once appended to its own image.
const max32BitEmbedSize = 1 << 32

// Finalize writes the header and directory to f, then streams the staged
// body region from the temp file. When embed is true, f is treated as an
// existing executable: writing starts at its current end of file, padded to
// an 8-byte boundary, and a 12-byte trailer is appended so a loader can find
// the pack by scanning backward from the new end of file. is32Bit rejects an
// embed when the staged body region alone has reached 4 GiB; the header and
// directory bytes are not counted toward that limit.
func (w *Writer) Finalize(f *os.File, embed bool, is32Bit bool) (Result, error) {
	if embed && is32Bit && w.pos >= max32BitEmbedSize {
		return Result{}, errs.ErrParameterRange
	}

	sort.Slice(w.dir, func(i, j int) bool { return w.dir[i].Path < w.dir[j].Path })

	var embedPos int64
	if embed {
		pos, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return Result{}, &errs.IOError{Op: "seek to eof for embedding", Err: err}
		}
		embedPos = pos
		if pad := padhash.Pad64(8, pos); pad > 0 {
			if _, err := f.Write(make([]byte, pad)); err != nil {
				return Result{}, &errs.IOError{Op: "pad before embed", Err: err}
			}
		}
	}

	pckStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{}, &errs.IOError{Op: "locate pack start", Err: err}
	}

	if err := writeU32(f, Magic); err != nil {
		return Result{}, &errs.IOError{Op: "write magic", Err: err}
	}
	if err := writeU32(f, FormatVersion); err != nil {
		return Result{}, &errs.IOError{Op: "write format version", Err: err}
	}
	if err := writeU32(f, w.engine.Major); err != nil {
		return Result{}, &errs.IOError{Op: "write engine major", Err: err}
	}
	if err := writeU32(f, w.engine.Minor); err != nil {
		return Result{}, &errs.IOError{Op: "write engine minor", Err: err}
	}
	if err := writeU32(f, w.engine.Patch); err != nil {
		return Result{}, &errs.IOError{Op: "write engine patch", Err: err}
	}

	dirEncrypted := w.policy.EncPCK && w.policy.EncDirectory
	var packFlags uint32
	if dirEncrypted {
		packFlags |= PackFlagDirEncrypted
	}
	if err := writeU32(f, packFlags); err != nil {
		return Result{}, &errs.IOError{Op: "write pack flags", Err: err}
	}

	fileBaseOfs, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{}, &errs.IOError{Op: "locate files_base field", Err: err}
	}
	if err := writeU64(f, 0); err != nil {
		return Result{}, &errs.IOError{Op: "write files_base placeholder", Err: err}
	}

	for i := 0; i < headerReservedWords; i++ {
		if err := writeU32(f, 0); err != nil {
			return Result{}, &errs.IOError{Op: "write reserved header word", Err: err}
		}
	}

	if err := writeU32(f, uint32(len(w.dir))); err != nil {
		return Result{}, &errs.IOError{Op: "write file count", Err: err}
	}

	var dirWriter io.Writer = f
	var dirEnc *aescrypt.Writer
	if dirEncrypted {
		dirEnc, err = aescrypt.NewWriter(f, w.policy.Key)
		if err != nil {
			return Result{}, &errs.EncryptionSetupError{Err: err}
		}
		dirWriter = dirEnc
	}
	for _, d := range w.dir {
		if err := writeDescriptor(dirWriter, d); err != nil {
			return Result{}, &errs.IOError{Op: "write directory entry", Err: err}
		}
	}
	if dirEnc != nil {
		dirEnc.Close()
	}

	dirEnd, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{}, &errs.IOError{Op: "locate directory end", Err: err}
	}
	if pad := padhash.Pad64(padhash.BodyAlign, dirEnd); pad > 0 {
		if err := padhash.WriteRandomPadding(f, int(pad)); err != nil {
			return Result{}, &errs.IOError{Op: "pad directory", Err: err}
		}
	}

	filesBase, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{}, &errs.IOError{Op: "locate files_base", Err: err}
	}

	if _, err := f.Seek(fileBaseOfs, io.SeekStart); err != nil {
		return Result{}, &errs.IOError{Op: "seek to files_base field", Err: err}
	}
	if err := writeU64(f, uint64(filesBase)); err != nil {
		return Result{}, &errs.IOError{Op: "rewrite files_base", Err: err}
	}
	if _, err := f.Seek(filesBase, io.SeekStart); err != nil {
		return Result{}, &errs.IOError{Op: "seek to files_base", Err: err}
	}

	if _, err := w.tmp.Seek(0, io.SeekStart); err != nil {
		return Result{}, &errs.IOError{Op: "rewind body staging file", Err: err}
	}
	buf := make([]byte, 16*1024)
	if _, err := io.CopyBuffer(f, w.tmp, buf); err != nil {
		return Result{}, &errs.IOError{Op: "copy body region", Err: err}
	}

	result := Result{PCKStart: pckStart, FilesBase: uint64(filesBase), EncryptedFiles: w.encryptedCnt}

	if embed {
		end, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return Result{}, &errs.IOError{Op: "locate embed end", Err: err}
		}
		if pad := padhash.Pad64(8, end-embedPos+12); pad > 0 {
			if _, err := f.Write(make([]byte, pad)); err != nil {
				return Result{}, &errs.IOError{Op: "pad embed trailer", Err: err}
			}
			end += pad
		}
		pckSize := uint64(end - pckStart)
		if err := writeU64(f, pckSize); err != nil {
			return Result{}, &errs.IOError{Op: "write trailer size", Err: err}
		}
		if err := writeU32(f, Magic); err != nil {
			return Result{}, &errs.IOError{Op: "write trailer magic", Err: err}
		}
		result.EmbeddedStart = pckStart
		result.EmbeddedSize = int64(pckSize)
	}

	return result, nil
}
