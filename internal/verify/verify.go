// Package verify runs YAML-defined quote expectation suites against
// reference files.
//
// A suite lists quotes with an expected outcome, present or absent, and an
// optional minimum score per quote. The runner scans every (quote,
// reference) pair in parallel and reduces each quote to a pass or fail.
// Suites are data-driven, so a citation list can grow without rebuilding
// anything.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/pkg/matcher"
)

// Expected outcomes for a quote.
const (
	ExpectPresent = "present"
	ExpectAbsent  = "absent"
)

// QuoteSpec is one expectation in a suite.
type QuoteSpec struct {
	ID       string  `yaml:"id" json:"id"`                         // e.g. "Q1"
	Quote    string  `yaml:"quote" json:"quote"`                   // The quote to look for
	Expect   string  `yaml:"expect" json:"expect"`                 // present or absent, defaults to present
	MinScore float64 `yaml:"min_score" json:"min_score,omitempty"` // Optional, defaults to the report threshold
}

// Suite is a named list of quote expectations.
type Suite struct {
	Name   string      `yaml:"suite" json:"suite"`
	Quotes []QuoteSpec `yaml:"quotes" json:"quotes"`
}

// LoadSuite reads and parses a suite file. A suite without a name takes
// the file's base name.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mmqerrors.IOError(fmt.Sprintf("read suite %s failed", path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseSuite(data, name)
}

// ParseSuite parses suite YAML. fallbackName is used when the suite
// declares no name of its own.
func ParseSuite(data []byte, fallbackName string) (*Suite, error) {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid, "parse suite failed", err)
	}
	if suite.Name == "" {
		suite.Name = fallbackName
	}
	for i := range suite.Quotes {
		if suite.Quotes[i].Expect == "" {
			suite.Quotes[i].Expect = ExpectPresent
		}
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// Validate checks the suite for structural problems.
func (s *Suite) Validate() error {
	if len(s.Quotes) == 0 {
		return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid, "suite has no quotes", nil)
	}
	seen := make(map[string]struct{}, len(s.Quotes))
	for i, q := range s.Quotes {
		if q.ID == "" {
			return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid,
				fmt.Sprintf("quote %d has no id", i+1), nil)
		}
		if _, dup := seen[q.ID]; dup {
			return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid,
				fmt.Sprintf("duplicate quote id %q", q.ID), nil)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.Quote) == "" {
			return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid,
				fmt.Sprintf("quote %q has no text", q.ID), nil)
		}
		if q.Expect != ExpectPresent && q.Expect != ExpectAbsent {
			return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid,
				fmt.Sprintf("quote %q: expect must be %q or %q, got %q",
					q.ID, ExpectPresent, ExpectAbsent, q.Expect), nil)
		}
		if q.MinScore < 0 || q.MinScore > 1 {
			return mmqerrors.New(mmqerrors.ErrCodeSuiteInvalid,
				fmt.Sprintf("quote %q: min_score must be between 0 and 1", q.ID), nil)
		}
	}
	return nil
}

// Result captures the outcome of checking a single expectation.
type Result struct {
	Spec      QuoteSpec      `json:"spec"`
	Passed    bool           `json:"passed"`
	Reference string         `json:"reference,omitempty"` // File holding the best span
	Best      *matcher.Match `json:"best,omitempty"`      // Best span at or above the minimum score
	Scanned   int            `json:"scanned"`             // Reference files scanned
	Error     string         `json:"error,omitempty"`
}

// Report captures the results of a full suite run.
type Report struct {
	Suite    string        `json:"suite"`
	Results  []Result      `json:"results"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// AllPassed reports whether every expectation held.
func (r *Report) AllPassed() bool {
	return r.Failed == 0
}

// Runner checks suites against reference files.
type Runner struct {
	minScore    float64
	parallelism int
	logger      *slog.Logger
	opts        []matcher.Option
}

// NewRunner creates a runner. minScore is the floor applied to quotes that
// set none of their own, normally the effective report threshold. The
// matcher options carry the scan configuration shared by every quote.
func NewRunner(minScore float64, parallelism int, logger *slog.Logger, opts ...matcher.Option) *Runner {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		minScore:    minScore,
		parallelism: parallelism,
		logger:      logger,
		opts:        opts,
	}
}

// Run scans every (quote, reference) pair and reduces each quote to a
// verdict. A failing reference file cancels the remaining scans and fails
// the whole run; a quote that cannot compile fails only that expectation.
func (r *Runner) Run(ctx context.Context, suite *Suite, paths []string) (*Report, error) {
	if len(paths) == 0 {
		return nil, mmqerrors.ValidationError("verify requires at least one reference file", nil)
	}

	start := time.Now()
	report := &Report{
		Suite:   suite.Name,
		Results: make([]Result, len(suite.Quotes)),
	}

	matchers := make([]*matcher.Matcher, len(suite.Quotes))
	for i, spec := range suite.Quotes {
		m, err := matcher.New(spec.Quote, r.opts...)
		if err != nil {
			r.logger.Warn("quote failed to compile",
				slog.String("id", spec.ID),
				slog.String("error", err.Error()))
			report.Results[i] = Result{Spec: spec, Error: err.Error()}
			continue
		}
		matchers[i] = m
	}

	// One slot per (quote, reference) pair, so goroutines never share a
	// write target.
	scans := make([][]*matcher.Result, len(suite.Quotes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for qi, m := range matchers {
		if m == nil {
			continue
		}
		scans[qi] = make([]*matcher.Result, len(paths))
		for pi, path := range paths {
			qi, pi, path, m := qi, pi, path, m
			g.Go(func() error {
				res, err := m.ScanFile(gctx, path)
				if err != nil {
					return err
				}
				scans[qi][pi] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for qi, spec := range suite.Quotes {
		if matchers[qi] == nil {
			report.Failed++
			continue
		}
		report.Results[qi] = r.check(spec, paths, scans[qi])
		if report.Results[qi].Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

// check reduces one quote's scans to a verdict. Spans below the scan
// threshold are never reported, so an absent expectation cannot probe
// below it.
func (r *Runner) check(spec QuoteSpec, paths []string, scans []*matcher.Result) Result {
	minScore := spec.MinScore
	if minScore == 0 {
		minScore = r.minScore
	}

	result := Result{Spec: spec, Scanned: len(scans)}
	for pi, scan := range scans {
		for i := range scan.Matches {
			m := &scan.Matches[i]
			if m.Score < minScore {
				continue
			}
			if result.Best == nil || m.Score > result.Best.Score {
				best := *m
				result.Best = &best
				result.Reference = paths[pi]
			}
		}
	}

	switch spec.Expect {
	case ExpectAbsent:
		result.Passed = result.Best == nil
	default:
		result.Passed = result.Best != nil
	}
	return result
}
