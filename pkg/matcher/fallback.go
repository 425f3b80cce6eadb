package matcher

import (
	"context"
	"log/slog"

	"github.com/tahyonline/mismisquote/internal/corpus"
	"github.com/tahyonline/mismisquote/internal/pattern"
	"github.com/tahyonline/mismisquote/internal/scan"
)

// letterFallback synthesizes contribution rows for reference words that are
// missing from the word-granularity table. Each distinct query word carries
// a letter-level table compiled under the same policy; an unknown reference
// word is scanned against each, and the best sub-match score s with winning
// word w yields the row s * Similarity(w, query[i]). The outer layer's
// per-word contribution is therefore the inner layer's match score.
type letterFallback struct {
	queryWords []string
	policy     pattern.Policy
	scanCfg    scan.Config
	letters    corpus.Tokenizer
	subs       []subWord
	logger     *slog.Logger
}

type subWord struct {
	word  string
	table *pattern.Table
}

func newLetterFallback(queryWords []string, policy pattern.Policy, outer scan.Config, logger *slog.Logger) (*letterFallback, error) {
	letters, err := corpus.NewTokenizer(corpus.GranularityLetter, false)
	if err != nil {
		return nil, err
	}
	f := &letterFallback{
		queryWords: queryWords,
		policy:     policy,
		// Threshold 0 surfaces every positive sub-alignment; only the
		// best one is kept.
		scanCfg: scan.Config{Threshold: 0, Combine: outer.Combine, GapDecay: outer.GapDecay},
		letters: letters,
		logger:  logger,
	}

	seen := make(map[string]bool, len(queryWords))
	for _, word := range queryWords {
		if seen[word] {
			continue
		}
		seen[word] = true
		table, err := pattern.Compile(f.split(word), policy)
		if err != nil {
			return nil, err
		}
		f.subs = append(f.subs, subWord{word: word, table: table})
	}
	return f, nil
}

func (f *letterFallback) split(word string) []string {
	return corpus.Symbols(f.letters.Tokenize(word))
}

// synth derives a contribution row for an unknown reference word. A nil
// return keeps the word on the zero row. Safe for concurrent use: every
// call runs fresh sub-engines over shared read-only tables.
func (f *letterFallback) synth(sym string) []float64 {
	letters := f.split(sym)
	if len(letters) == 0 {
		return nil
	}

	best := 0.0
	bestWord := ""
	for _, sub := range f.subs {
		engine, err := scan.New(sub.table, f.scanCfg)
		if err != nil {
			f.logger.Warn("letter fallback engine failed",
				slog.String("word", sub.word),
				slog.String("error", err.Error()))
			continue
		}
		emissions, err := engine.Scan(context.Background(), letters)
		if err != nil {
			continue
		}
		for _, em := range emissions {
			if em.Score > best {
				best = em.Score
				bestWord = sub.word
			}
		}
	}
	if best == 0 {
		return nil
	}

	row := make([]float64, len(f.queryWords))
	nonzero := false
	for i, q := range f.queryWords {
		similarity := 1.0
		if q != bestWord {
			similarity = f.policy.Similarity(bestWord, q)
		}
		if similarity > 0 {
			row[i] = best * similarity
			nonzero = true
		}
	}
	if !nonzero {
		return nil
	}

	f.logger.Debug("synthesized fallback row",
		slog.String("word", sym),
		slog.String("closest", bestWord),
		slog.Float64("score", best))
	return row
}
