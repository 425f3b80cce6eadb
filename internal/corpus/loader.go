package corpus

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// DefaultMaxFileSize caps how much reference text a single load will accept
// (10MB). Larger files fail fast instead of ballooning the token stream.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Reference is one loaded reference text with its tokenized symbol stream.
type Reference struct {
	// Name is the file path, or the caller-supplied label for readers.
	Name   string
	Text   string
	Tokens []Token
}

// Symbols returns the bare symbol stream for scanning.
func (r *Reference) Symbols() []string { return Symbols(r.Tokens) }

// Loader reads reference texts and tokenizes them at one granularity.
type Loader struct {
	tokenizer Tokenizer
	maxSize   int64
	logger    *slog.Logger
}

// NewLoader builds a loader. maxSize <= 0 applies DefaultMaxFileSize. A nil
// logger falls back to slog's default.
func NewLoader(tokenizer Tokenizer, maxSize int64, logger *slog.Logger) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{tokenizer: tokenizer, maxSize: maxSize, logger: logger}
}

// LoadFile reads and tokenizes one reference file. Directories are refused;
// files beyond the size cap fail without being read.
func (l *Loader) LoadFile(path string) (*Reference, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return nil, mmqerrors.New(mmqerrors.ErrCodeNotAFile,
			"not a file: "+path, nil).
			WithSuggestion("Pass individual files, not directories")
	}
	if info.Size() > l.maxSize {
		return nil, mmqerrors.New(mmqerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s is %d bytes, limit is %d", path, info.Size(), l.maxSize), nil).
			WithDetail("size", fmt.Sprintf("%d", info.Size())).
			WithDetail("limit", fmt.Sprintf("%d", l.maxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, statError(path, err)
	}
	ref := l.LoadString(path, string(data))
	l.logger.Debug("loaded reference",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
		slog.Int("symbols", len(ref.Tokens)))
	return ref, nil
}

// LoadReader tokenizes a stream, enforcing the size cap while reading.
func (l *Loader) LoadReader(name string, r io.Reader) (*Reference, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeFileNotFound,
			"read "+name+" failed", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, mmqerrors.New(mmqerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds the %d byte limit", name, l.maxSize), nil)
	}
	return l.LoadString(name, string(data)), nil
}

// LoadString tokenizes text that is already in memory.
func (l *Loader) LoadString(name, text string) *Reference {
	return &Reference{
		Name:   name,
		Text:   text,
		Tokens: l.tokenizer.Tokenize(text),
	}
}

func statError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return mmqerrors.New(mmqerrors.ErrCodeFileNotFound,
			"file not found: "+path, err).
			WithSuggestion("Check the path and try again")
	case os.IsPermission(err):
		return mmqerrors.New(mmqerrors.ErrCodeFilePermission,
			"permission denied: "+path, err)
	default:
		return mmqerrors.New(mmqerrors.ErrCodeFileNotFound,
			"read "+path+" failed", err)
	}
}
