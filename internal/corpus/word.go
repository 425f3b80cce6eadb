package corpus

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// wordTokenizer segments text into word symbols using the Unicode word
// boundary rules, dropping punctuation from the stream. Byte offsets come
// straight from the segmenter, so a word token still points at its original
// spelling even after case folding.
type wordTokenizer struct {
	segmenter analysis.Tokenizer
	fold      analysis.TokenFilter
}

var _ Tokenizer = (*wordTokenizer)(nil)

func newWordTokenizer(caseFold bool) *wordTokenizer {
	t := &wordTokenizer{segmenter: unicode.NewUnicodeTokenizer()}
	if caseFold {
		t.fold = lowercase.NewLowerCaseFilter()
	}
	return t
}

func (t *wordTokenizer) Granularity() string { return GranularityWord }

func (t *wordTokenizer) Tokenize(text string) []Token {
	stream := t.segmenter.Tokenize([]byte(text))
	if t.fold != nil {
		stream = t.fold.Filter(stream)
	}
	tokens := make([]Token, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, Token{
			Text:  string(tok.Term),
			Start: tok.Start,
			End:   tok.End,
		})
	}
	return tokens
}
