// Package corpus turns reference and query text into the symbol streams
// the scan engine consumes, and loads reference files from disk. Tokens
// keep byte offsets into the source text so match spans can be mapped back
// to the passage they cover.
package corpus

import (
	"unicode"
	"unicode/utf8"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// Granularities accepted in configuration.
const (
	GranularityLetter = "letter"
	GranularityWord   = "word"
)

// Token is one symbol with its location in the source text. End is an
// exclusive byte offset, so source[Start:End] is the original spelling.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenizer splits text into the symbol stream of one granularity.
// Implementations are stateless and safe for concurrent use.
type Tokenizer interface {
	Granularity() string
	Tokenize(text string) []Token
}

// NewTokenizer builds the tokenizer for a configured granularity. At letter
// granularity caseFold lowercases symbols; at word granularity it applies
// the lowercase token filter.
func NewTokenizer(granularity string, caseFold bool) (Tokenizer, error) {
	switch granularity {
	case GranularityLetter:
		return &letterTokenizer{caseFold: caseFold}, nil
	case GranularityWord:
		return newWordTokenizer(caseFold), nil
	default:
		return nil, mmqerrors.New(mmqerrors.ErrCodeConfigInvalid,
			"unknown granularity: "+granularity, nil).
			WithDetail("granularity", granularity).
			WithSuggestion("Use one of: letter, word")
	}
}

// Symbols projects a token stream onto the bare symbol texts the scan
// engine consumes.
func Symbols(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// letterTokenizer emits one symbol per rune. Runs of whitespace collapse
// into a single space symbol spanning the whole run, so formatting
// differences between query and reference cannot break an alignment.
type letterTokenizer struct {
	caseFold bool
}

var _ Tokenizer = (*letterTokenizer)(nil)

func (t *letterTokenizer) Granularity() string { return GranularityLetter }

func (t *letterTokenizer) Tokenize(text string) []Token {
	tokens := make([]Token, 0, utf8.RuneCountInString(text))
	inSpace := false
	spaceStart := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				spaceStart = i
			}
			i += size
			continue
		}
		if inSpace {
			tokens = append(tokens, Token{Text: " ", Start: spaceStart, End: i})
			inSpace = false
		}
		if t.caseFold {
			r = unicode.ToLower(r)
		}
		tokens = append(tokens, Token{Text: string(r), Start: i, End: i + size})
		i += size
	}
	if inSpace {
		tokens = append(tokens, Token{Text: " ", Start: spaceStart, End: len(text)})
	}
	return tokens
}
