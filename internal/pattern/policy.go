package pattern

import (
	"strings"
	"unicode"
	"unicode/utf8"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// Policy names accepted in configuration.
const (
	PolicyExact        = "exact"
	PolicyNearSymbol   = "near-symbol"
	PolicyEditTolerant = "edit-tolerant"
)

// Default weights for the fuzzy policies. Chosen so that a single tolerated
// error keeps a short quote above common thresholds while two errors in
// close succession drop it below.
const (
	DefaultNearWeight         = 0.9
	DefaultTransposeWeight    = 0.85
	DefaultSubstitutionWeight = 0.7
)

// Weights holds the tunable partial-credit values shared by the policies.
// Zero values fall back to the package defaults.
type Weights struct {
	// Near is the credit for confusable or case-folded symbol pairs.
	Near float64
	// Transpose is the credit for a symbol that matches an adjacent query
	// position, covering swapped neighboring symbols.
	Transpose float64
	// Substitution is the edit-tolerant miss penalty: the factor applied
	// when a reference symbol matches nothing at a position.
	Substitution float64
}

// withDefaults fills unset weights.
func (w Weights) withDefaults() Weights {
	if w.Near == 0 {
		w.Near = DefaultNearWeight
	}
	if w.Transpose == 0 {
		w.Transpose = DefaultTransposeWeight
	}
	if w.Substitution == 0 {
		w.Substitution = DefaultSubstitutionWeight
	}
	return w
}

// Policy scores the resemblance between a reference symbol and a query
// symbol. Implementations must be stateless and safe for concurrent use.
type Policy interface {
	// Name returns the configuration name of the policy.
	Name() string

	// Similarity returns the match strength between a reference symbol and
	// a query symbol, in [0,1]. 1.0 means an exact match.
	Similarity(ref, query string) float64

	// TransposeWeight is the credit for a reference symbol equal to the
	// query symbol adjacent to the position under consideration. Zero
	// disables transposition credit.
	TransposeWeight() float64

	// MissPenalty replaces a zero contribution during the combine step.
	// Zero keeps a miss fatal for its alignment.
	MissPenalty() float64

	// Variants lists additional reference symbols that should receive a
	// compiled contribution row for the given query symbol, beyond the
	// symbol itself. May return nil.
	Variants(query string) []string
}

// Interface checks.
var (
	_ Policy = (*ExactPolicy)(nil)
	_ Policy = (*NearSymbolPolicy)(nil)
	_ Policy = (*EditTolerantPolicy)(nil)
)

// ParsePolicy resolves a configuration name into a Policy.
func ParsePolicy(name string, weights Weights) (Policy, error) {
	switch name {
	case PolicyExact:
		return NewExactPolicy(), nil
	case PolicyNearSymbol:
		return NewNearSymbolPolicy(weights), nil
	case PolicyEditTolerant:
		return NewEditTolerantPolicy(weights), nil
	default:
		return nil, mmqerrors.New(mmqerrors.ErrCodeConfigInvalid,
			"unknown similarity policy: "+name, nil).
			WithDetail("policy", name).
			WithSuggestion("Use one of: exact, near-symbol, edit-tolerant")
	}
}

// ExactPolicy matches symbols only when they are identical. The compiled
// table degenerates to a 0/1 bitmap.
type ExactPolicy struct{}

// NewExactPolicy returns the strict equality policy.
func NewExactPolicy() *ExactPolicy { return &ExactPolicy{} }

func (p *ExactPolicy) Name() string { return PolicyExact }

func (p *ExactPolicy) Similarity(ref, query string) float64 {
	if ref == query {
		return 1.0
	}
	return 0.0
}

func (p *ExactPolicy) TransposeWeight() float64       { return 0 }
func (p *ExactPolicy) MissPenalty() float64           { return 0 }
func (p *ExactPolicy) Variants(query string) []string { return nil }

// NearSymbolPolicy credits visually confusable symbols, case-folded pairs,
// and adjacent transpositions. Misses still zero an alignment.
type NearSymbolPolicy struct {
	weights Weights
}

// NewNearSymbolPolicy returns the confusable-aware policy. Zero weights are
// replaced with package defaults.
func NewNearSymbolPolicy(weights Weights) *NearSymbolPolicy {
	return &NearSymbolPolicy{weights: weights.withDefaults()}
}

func (p *NearSymbolPolicy) Name() string { return PolicyNearSymbol }

func (p *NearSymbolPolicy) Similarity(ref, query string) float64 {
	if ref == query {
		return 1.0
	}
	if strings.EqualFold(ref, query) {
		return p.weights.Near
	}
	if r, q, ok := singleRunes(ref, query); ok {
		if confusableKey(r) == confusableKey(q) {
			return p.weights.Near
		}
	}
	return 0.0
}

func (p *NearSymbolPolicy) TransposeWeight() float64 { return p.weights.Transpose }
func (p *NearSymbolPolicy) MissPenalty() float64     { return 0 }

// Variants returns the confusable and case spellings of a query symbol so
// each gets its own compiled row.
func (p *NearSymbolPolicy) Variants(query string) []string {
	var out []string
	if lower := strings.ToLower(query); lower != query {
		out = append(out, lower)
	}
	if upper := strings.ToUpper(query); upper != query {
		out = append(out, upper)
	}
	r, ok := singleRune(query)
	if !ok {
		return out
	}
	for _, v := range confusableClass(r) {
		if v != r {
			out = append(out, string(v))
		}
	}
	return out
}

// EditTolerantPolicy treats any mismatched symbol as a substitution worth a
// uniform partial weight, so single-symbol edits decay rather than erase an
// alignment.
type EditTolerantPolicy struct {
	weights Weights
}

// NewEditTolerantPolicy returns the substitution-tolerant policy. Zero
// weights are replaced with package defaults.
func NewEditTolerantPolicy(weights Weights) *EditTolerantPolicy {
	return &EditTolerantPolicy{weights: weights.withDefaults()}
}

func (p *EditTolerantPolicy) Name() string { return PolicyEditTolerant }

func (p *EditTolerantPolicy) Similarity(ref, query string) float64 {
	if ref == query {
		return 1.0
	}
	return 0.0
}

func (p *EditTolerantPolicy) TransposeWeight() float64       { return 0 }
func (p *EditTolerantPolicy) MissPenalty() float64           { return p.weights.Substitution }
func (p *EditTolerantPolicy) Variants(query string) []string { return nil }

// confusableClasses groups symbols that readers routinely mistake for each
// other in quoted text: digit/letter lookalikes and common substitutions.
var confusableClasses = [][]rune{
	{'0', 'o', 'O'},
	{'1', 'l', 'I', '|'},
	{'3', 'e', 'E'},
	{'5', 's', 'S'},
	{'8', 'b', 'B'},
	{'@', 'a', 'A'},
	{'\'', '`', '‘', '’'},
	{'"', '“', '”'},
	{'-', '–', '—'},
}

var confusableIndex = buildConfusableIndex()

func buildConfusableIndex() map[rune]int {
	idx := make(map[rune]int)
	for class, runes := range confusableClasses {
		for _, r := range runes {
			idx[r] = class
		}
	}
	return idx
}

// confusableKey folds a rune onto its confusable class representative.
// Runes outside every class fold onto their lowercase form.
func confusableKey(r rune) rune {
	if class, ok := confusableIndex[r]; ok {
		return confusableClasses[class][0]
	}
	return unicode.ToLower(r)
}

// confusableClass returns the full class for a rune, or nil.
func confusableClass(r rune) []rune {
	if class, ok := confusableIndex[r]; ok {
		return confusableClasses[class]
	}
	return nil
}

func singleRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError && size == 1 {
		return 0, false
	}
	return r, true
}

func singleRunes(a, b string) (rune, rune, bool) {
	ra, ok := singleRune(a)
	if !ok {
		return 0, 0, false
	}
	rb, ok := singleRune(b)
	if !ok {
		return 0, 0, false
	}
	return ra, rb, true
}
