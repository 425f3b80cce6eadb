// Package scan implements the float-parallel shift-and automaton at the
// heart of MisMisQuote. A state vector of the query's length tracks every
// partial alignment simultaneously: one left-to-right pass over the
// reference stream, one O(L) update per symbol, no backtracking.
package scan

import (
	"context"
	"fmt"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/pattern"
)

// Combine mode names accepted in configuration.
const (
	CombineMultiply = "multiply"
	CombineMaxDecay = "max-decay"
)

// DefaultGapDecay is the hold/skip factor under max-decay combine.
const DefaultGapDecay = 0.85

// Epsilon pads threshold comparisons so scores do not flap at exact
// floating-point boundaries.
const Epsilon = 1e-9

// ctxCheckInterval is how many symbols a Scan consumes between
// cancellation checks.
const ctxCheckInterval = 1024

// Config selects the scoring behavior of an engine.
type Config struct {
	// Threshold is the minimum full-alignment score that produces an
	// emission, in [0,1].
	Threshold float64

	// Combine selects the state update: "multiply" zeroes an alignment on
	// a missed symbol, "max-decay" lets insertions and deletions decay the
	// score instead.
	Combine string

	// GapDecay is the per-gap factor under max-decay combine, in [0,1).
	// Ignored under multiply. Zero selects DefaultGapDecay.
	GapDecay float64
}

// DefaultConfig returns the strict contiguous-match configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.75,
		Combine:   CombineMultiply,
	}
}

// Validate reports configuration conflicts before any scan starts.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("threshold %.3f is outside [0,1]", c.Threshold))
	}
	switch c.Combine {
	case CombineMultiply, CombineMaxDecay:
	default:
		return mmqerrors.ConflictError("unknown combine mode: " + c.Combine).
			WithSuggestion("Use one of: multiply, max-decay")
	}
	if c.GapDecay < 0 || c.GapDecay >= 1 {
		return mmqerrors.ConflictError(
			fmt.Sprintf("gap decay %.3f is outside [0,1)", c.GapDecay))
	}
	return nil
}

// Emission is one raw match-end event: the full-length alignment score
// crossed the threshold at symbol offset End.
type Emission struct {
	// Start is the symbol offset where the winning alignment path began.
	Start int
	// End is the symbol offset of the last consumed symbol, inclusive.
	End int
	// Score is the full-alignment score at End, in (0,1].
	Score float64
}

// Engine runs one scan of one compiled query over one reference stream.
// It owns its state vector exclusively; the contribution table is shared
// and read-only. Engines are not safe for concurrent use, but any number
// of engines may share a table.
type Engine struct {
	table       *pattern.Table
	length      int
	threshold   float64
	maxDecay    bool
	gapDecay    float64
	missPenalty float64

	// state[i] is the confidence that the most recent symbols align with
	// the query's first i+1 symbols, ending at the current position.
	// spans[i] is how many reference symbols that winning path consumed.
	state []float64
	spans []int

	consumed int
	unknown  int
}

// New builds an engine for a compiled table. The config is validated here
// so a misconfigured scan fails before consuming any input.
func New(table *pattern.Table, cfg Config) (*Engine, error) {
	if table == nil {
		return nil, mmqerrors.InternalError("scan: nil contribution table", nil)
	}
	if cfg.GapDecay == 0 {
		cfg.GapDecay = DefaultGapDecay
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	length := table.Length()
	e := &Engine{
		table:       table,
		length:      length,
		threshold:   cfg.Threshold,
		maxDecay:    cfg.Combine == CombineMaxDecay,
		gapDecay:    cfg.GapDecay,
		missPenalty: table.Policy().MissPenalty(),
		state:       make([]float64, length),
		spans:       make([]int, length),
	}
	return e, nil
}

// Reset clears the state vector so the engine can scan a fresh reference.
func (e *Engine) Reset() {
	for i := range e.state {
		e.state[i] = 0
		e.spans[i] = 0
	}
	e.consumed = 0
	e.unknown = 0
}

// Consumed returns how many reference symbols the engine has seen.
func (e *Engine) Consumed() int { return e.consumed }

// UnknownSymbols returns how many consumed symbols had no compiled
// contribution row. They degrade alignments through the fallback row and
// are surfaced as a scan-quality signal, never as an error.
func (e *Engine) UnknownSymbols() int { return e.unknown }

// Feed advances the automaton by one reference symbol. It reports an
// emission when the full-alignment score clears the threshold.
//
// The update per position i is:
//
//	shifted  = state[i-1] from the previous step (1.0 for i == 0)
//	advance  = shifted * contribution        (miss penalty when zero)
//	hold     = previous state[i] * gapDecay  (max-decay only)
//	skip     = new state[i-1]    * gapDecay  (max-decay only)
//	state[i] = max(advance, hold, skip), clamped to [0,1]
//
// Ties prefer advance, then hold, then skip, so the span accounting is
// deterministic.
func (e *Engine) Feed(sym string) (Emission, bool) {
	if !e.table.Contains(sym) {
		e.unknown++
	}
	row := e.table.Row(sym)

	// shifted carries previous state[i-1] into position i; a fresh
	// alignment always starts with full confidence at position 0.
	shifted := 1.0
	shiftedSpan := 0
	for i := 0; i < e.length; i++ {
		prev := e.state[i]
		prevSpan := e.spans[i]

		eff := row[i]
		if eff == 0 {
			eff = e.missPenalty
		}
		score := shifted * eff
		span := shiftedSpan + 1

		if e.maxDecay {
			if hold := prev * e.gapDecay; hold > score {
				score = hold
				span = prevSpan + 1
			}
			if i > 0 {
				if skip := e.state[i-1] * e.gapDecay; skip > score {
					score = skip
					span = e.spans[i-1]
				}
			}
		}

		if score > 1 {
			score = 1
		}
		e.state[i] = score
		e.spans[i] = span

		shifted = prev
		shiftedSpan = prevSpan
	}

	e.consumed++

	final := e.state[e.length-1]
	if final > 0 && final+Epsilon >= e.threshold {
		end := e.consumed - 1
		start := end - e.spans[e.length-1] + 1
		if start < 0 {
			start = 0
		}
		return Emission{Start: start, End: end, Score: final}, true
	}
	return Emission{}, false
}

// Scan feeds a whole tokenized reference through the automaton and
// collects the raw emissions. The scan can be cancelled at any symbol
// boundary; no state crosses that boundary irreversibly.
func (e *Engine) Scan(ctx context.Context, symbols []string) ([]Emission, error) {
	var emissions []Emission
	for i, sym := range symbols {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, mmqerrors.Wrap(mmqerrors.ErrCodeScanFailed, err)
			}
		}
		if em, ok := e.Feed(sym); ok {
			emissions = append(emissions, em)
		}
	}
	return emissions, nil
}
