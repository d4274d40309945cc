package buildreport

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json.bz2")
	r := Report{
		Preset:         "linux",
		Platform:       "linux",
		Format:         "pck",
		FilesWritten:   3,
		EncryptedFiles: 1,
		Messages:       []string{"skipped a.import: parse error"},
	}
	require.NoError(t, Write(path, r))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, r, got)
}
