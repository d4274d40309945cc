// Package zipformat implements the standard-ZIP export path: a single-pass
// DEFLATE writer with no encryption, no MD5 accounting, and no padding,
// storing each payload in the order the driver produces it.
package zipformat

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/respack/errs"
)

// Writer wraps archive/zip.Writer, stripping the leading "res://" scheme
// from every stored name and always using DEFLATE at the library's default
// compression level.
type Writer struct {
	logger hclog.Logger
	zw     *zip.Writer
}

// New wraps dest for ZIP emission. The caller owns dest's lifetime.
func New(dest io.Writer, logger hclog.Logger) *Writer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Writer{logger: logger, zw: zip.NewWriter(dest)}
}

// AddFile stores one payload under path (its res:// prefix stripped) using
// DEFLATE compression. Payloads are written in call order; the ZIP format
// has no directory-sort requirement the way PCK does.
func (w *Writer) AddFile(path string, data []byte) error {
	name := strings.TrimPrefix(path, "res://")
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	fw, err := w.zw.CreateHeader(header)
	if err != nil {
		return &errs.IOError{Op: "create zip entry " + name, Err: err}
	}
	if _, err := fw.Write(data); err != nil {
		return &errs.IOError{Op: "write zip entry " + name, Err: err}
	}
	return nil
}

// Close flushes the ZIP central directory. It does not close the
// underlying destination writer.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return &errs.IOError{Op: "close zip writer", Err: err}
	}
	return nil
}
