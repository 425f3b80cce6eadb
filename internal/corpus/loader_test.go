package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

func newTestLoader(t *testing.T, maxSize int64) *Loader {
	t.Helper()
	tok, err := NewTokenizer(GranularityLetter, true)
	require.NoError(t, err)
	return NewLoader(tok, maxSize, nil)
}

func TestLoader_LoadFile(t *testing.T) {
	// Given: a reference file on disk
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.txt")
	require.NoError(t, os.WriteFile(path, []byte("The Cat"), 0o644))

	// When: loading it
	ref, err := newTestLoader(t, 0).LoadFile(path)

	// Then: the text and its folded symbol stream come back together
	require.NoError(t, err)
	assert.Equal(t, path, ref.Name)
	assert.Equal(t, "The Cat", ref.Text)
	assert.Equal(t, []string{"t", "h", "e", " ", "c", "a", "t"}, ref.Symbols())
}

func TestLoader_RefusesDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestLoader(t, 0).LoadFile(dir)

	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeNotAFile, mmqerrors.GetCode(err))
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := newTestLoader(t, 0).LoadFile(filepath.Join(t.TempDir(), "absent.txt"))

	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeFileNotFound, mmqerrors.GetCode(err))
}

func TestLoader_FileTooLarge(t *testing.T) {
	// Given: a file over the configured cap
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789abcdef"), 0o644))

	// When: loading with a 10 byte cap
	_, err := newTestLoader(t, 10).LoadFile(path)

	// Then: the load fails without reading the content
	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeFileTooLarge, mmqerrors.GetCode(err))
}

func TestLoader_LoadReader(t *testing.T) {
	ref, err := newTestLoader(t, 0).LoadReader("stdin", strings.NewReader("hi"))

	require.NoError(t, err)
	assert.Equal(t, "stdin", ref.Name)
	assert.Equal(t, []string{"h", "i"}, ref.Symbols())
}

func TestLoader_ReaderTooLarge(t *testing.T) {
	_, err := newTestLoader(t, 4).LoadReader("stdin", strings.NewReader("0123456789"))

	require.Error(t, err)
	assert.Equal(t, mmqerrors.ErrCodeFileTooLarge, mmqerrors.GetCode(err))
}

func TestLoader_LoadString(t *testing.T) {
	ref := newTestLoader(t, 0).LoadString("inline", "a b")

	assert.Equal(t, "inline", ref.Name)
	require.Len(t, ref.Tokens, 3)
	assert.Equal(t, Token{Text: " ", Start: 1, End: 2}, ref.Tokens[1])
}
