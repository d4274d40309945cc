package pckformat

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"gdpack/internal/padhash"
	"gdpack/internal/respack/errs"
)

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func withZeroPadding(t *testing.T) {
	t.Helper()
	prev := padhash.PaddingSource
	padhash.PaddingSource = zeroReader{}
	t.Cleanup(func() { padhash.PaddingSource = prev })
}

func buildPCK(t *testing.T, policy EncryptionPolicy, files map[string]string) (string, Result) {
	t.Helper()
	w, err := NewWriter(EngineVersion{Major: 4}, policy, nil)
	require.NoError(t, err)
	defer w.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data := []byte(files[name])
		require.NoError(t, w.AddFile(name, "res://"+name, name, data))
	}

	dest := filepath.Join(t.TempDir(), "out.pck")
	f, err := os.Create(dest)
	require.NoError(t, err)
	defer f.Close()

	result, err := w.Finalize(f, false, false)
	require.NoError(t, err)
	return dest, result
}

func TestSingleFileUnencrypted(t *testing.T) {
	withZeroPadding(t)
	dest, result := buildPCK(t, EncryptionPolicy{}, map[string]string{"a.txt": "hi"})
	require.Zero(t, result.PCKStart)
	require.Zero(t, result.FilesBase%padhash.BodyAlign)

	arc, err := Open(dest, 0, nil)
	require.NoError(t, err)
	defer arc.Close()

	require.Len(t, arc.Entries, 1)
	entry, ok := arc.FindEntry("a.txt")
	require.True(t, ok)
	require.EqualValues(t, 2, entry.Size)
	require.False(t, entry.Encrypted())
	require.Equal(t, padhash.MD5([]byte("hi")), entry.MD5)

	body, err := arc.ReadBody(entry, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), body)
}

func TestDirectoryEncryptionOnlyKeepsBodiesPlain(t *testing.T) {
	withZeroPadding(t)
	key := bytes.Repeat([]byte{0x00}, 32)
	policy := EncryptionPolicy{Key: key, EncPCK: true, EncDirectory: true}
	dest, _ := buildPCK(t, policy, map[string]string{"a": "A", "b": "B"})

	arc, err := Open(dest, 0, key)
	require.NoError(t, err)
	defer arc.Close()

	require.True(t, arc.Header.DirEncrypted())
	require.Len(t, arc.Entries, 2)
	for _, entry := range arc.Entries {
		require.False(t, entry.Encrypted())
		body, err := arc.ReadBody(entry, key)
		require.NoError(t, err)
		require.EqualValues(t, 1, len(body))
	}
}

func TestSelectiveBodyEncryption(t *testing.T) {
	withZeroPadding(t)
	key := bytes.Repeat([]byte{0x11}, 32)
	policy := EncryptionPolicy{Key: key, EncPCK: true, IncludeGlob: "*.secret"}
	dest, _ := buildPCK(t, policy, map[string]string{"a.txt": "plain", "x.secret": "hidden"})

	arc, err := Open(dest, 0, key)
	require.NoError(t, err)
	defer arc.Close()

	plain, ok := arc.FindEntry("a.txt")
	require.True(t, ok)
	require.False(t, plain.Encrypted())

	secret, ok := arc.FindEntry("x.secret")
	require.True(t, ok)
	require.True(t, secret.Encrypted())

	body, err := arc.ReadBody(secret, key)
	require.NoError(t, err)
	require.Equal(t, []byte("hidden"), body)
}

func TestIncludeThenExcludeExcludeWins(t *testing.T) {
	policy := EncryptionPolicy{
		Key: bytes.Repeat([]byte{0x22}, 32), EncPCK: true,
		IncludeGlob: "*.secret", ExcludeGlob: "keep.secret",
	}
	require.True(t, policy.Encrypts("res://a.secret", "a.secret"))
	require.False(t, policy.Encrypts("res://keep.secret", "keep.secret"))
}

func TestDirectoryEntriesAreSorted(t *testing.T) {
	withZeroPadding(t)
	dest, _ := buildPCK(t, EncryptionPolicy{}, map[string]string{
		"z.txt": "1", "a.txt": "2", "m.txt": "3",
	})
	arc, err := Open(dest, 0, nil)
	require.NoError(t, err)
	defer arc.Close()

	var paths []string
	for _, e := range arc.Entries {
		paths = append(paths, e.Path)
	}
	require.Equal(t, []string{"a.txt", "m.txt", "z.txt"}, paths)
}

func TestBodyAndFilesBaseAlignment(t *testing.T) {
	withZeroPadding(t)
	dest, result := buildPCK(t, EncryptionPolicy{}, map[string]string{
		"a": "x", "bb": "yy", "ccc": "zzz",
	})
	require.Zero(t, result.FilesBase%uint64(padhash.BodyAlign))

	arc, err := Open(dest, 0, nil)
	require.NoError(t, err)
	defer arc.Close()
	for _, e := range arc.Entries {
		require.Zero(t, e.Offset%uint64(padhash.BodyAlign))
	}
}

func TestPathLenFieldIsMultipleOfFour(t *testing.T) {
	withZeroPadding(t)
	dest, _ := buildPCK(t, EncryptionPolicy{}, map[string]string{"odd.txt": "x"})
	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()

	// Skip past the fixed header prefix through file_count.
	_, err = f.Seek(4+4*4+4+8+4*16+4, io.SeekStart)
	require.NoError(t, err)
	pathLen, err := readU32(f)
	require.NoError(t, err)
	require.Zero(t, pathLen % 4)
}

func TestFinalizeRejects32BitOversizeEmbed(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "exe")
	require.NoError(t, os.WriteFile(dest, []byte{0xAA}, 0o644))

	f, err := os.OpenFile(dest, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(EngineVersion{Major: 4}, EncryptionPolicy{}, nil)
	require.NoError(t, err)
	defer w.Close()
	w.pos = max32BitEmbedSize

	_, err = w.Finalize(f, true, true)
	require.ErrorIs(t, err, errs.ErrParameterRange)
}

func TestEmbeddedTrailer(t *testing.T) {
	withZeroPadding(t)
	dest := filepath.Join(t.TempDir(), "exe")
	require.NoError(t, os.WriteFile(dest, bytes.Repeat([]byte{0xAA}, 40), 0o644))

	f, err := os.OpenFile(dest, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(EngineVersion{Major: 4}, EncryptionPolicy{}, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddFile("a.txt", "res://a.txt", "a.txt", []byte("hi")))

	result, err := w.Finalize(f, true, false)
	require.NoError(t, err)
	require.NotZero(t, result.EmbeddedStart)

	pckSize, magic, err := ReadTrailer(dest)
	require.NoError(t, err)
	require.Equal(t, Magic, magic)
	require.EqualValues(t, result.EmbeddedSize, pckSize)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	require.Zero(t, (info.Size()-result.EmbeddedStart)%8)
}

func TestFinalizeIsDeterministicWithZeroPadding(t *testing.T) {
	withZeroPadding(t)
	files := map[string]string{"a.txt": "hi", "b.bin": "world!"}

	dest1, _ := buildPCK(t, EncryptionPolicy{}, files)
	dest2, _ := buildPCK(t, EncryptionPolicy{}, files)

	b1, err := os.ReadFile(dest1)
	require.NoError(t, err)
	b2, err := os.ReadFile(dest2)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestCloseRemovesStagingFile(t *testing.T) {
	w, err := NewWriter(EngineVersion{}, EncryptionPolicy{}, nil)
	require.NoError(t, err)
	path := w.tmpPath
	require.NoError(t, w.Close())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
