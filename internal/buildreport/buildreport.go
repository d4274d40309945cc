// Package buildreport emits a bzip2-compressed JSON summary of one export
// run: counts a caller can surface in a UI or CI log without re-parsing the
// archive itself.
package buildreport

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/dsnet/compress/bzip2"

	"gdpack/internal/respack/errs"
)

// Report is the summary of one export_pack/export_zip run.
type Report struct {
	Preset          string   `json:"preset"`
	Platform        string   `json:"platform"`
	Format          string   `json:"format"`
	FilesWritten    int      `json:"files_written"`
	FilesSkipped    int      `json:"files_skipped"`
	BytesWritten    int64    `json:"bytes_written"`
	EncryptedFiles  int      `json:"encrypted_files"`
	PluginCalls     int      `json:"plugin_calls"`
	Messages        []string `json:"messages,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// Write serializes r as JSON and bzip2-compresses it to path.
func Write(path string, r Report) error {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "marshal build report", Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Op: "create build report file", Err: err}
	}
	defer f.Close()

	bw, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: 9})
	if err != nil {
		return &errs.IOError{Op: "create bzip2 writer", Err: err}
	}
	if _, err := bw.Write(payload); err != nil {
		return &errs.IOError{Op: "write build report", Err: err}
	}
	return bw.Close()
}

// Read decompresses and parses a report previously written by Write.
func Read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, &errs.IOError{Op: "read build report file", Err: err}
	}

	br, err := bzip2.NewReader(bytes.NewReader(data), &bzip2.ReaderConfig{})
	if err != nil {
		return Report{}, &errs.IOError{Op: "create bzip2 reader", Err: err}
	}
	defer br.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(br); err != nil {
		return Report{}, &errs.IOError{Op: "decompress build report", Err: err}
	}

	var r Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		return Report{}, &errs.IOError{Op: "unmarshal build report", Err: err}
	}
	return r, nil
}

// Timer measures a build's wall-clock duration for the report. Time.Now is
// only ever called from outside the packaging pipeline's core (this
// package, not the driver's deterministic paths) so it never affects
// archive bytes.
type Timer struct {
	start time.Time
}

// StartTimer begins timing a build.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Seconds returns the elapsed time since StartTimer.
func (t Timer) Seconds() float64 {
	return time.Since(t.start).Seconds()
}
