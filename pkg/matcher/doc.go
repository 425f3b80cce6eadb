// Package matcher finds approximate occurrences of a quote inside larger
// reference texts.
//
// A Matcher compiles the quote once into a per-symbol contribution table,
// then scans any number of references with a float-parallel shift-and
// automaton. Matching tolerance is configurable: the exact policy behaves
// like substring search, near-symbol forgives confusable characters and
// swapped neighbors, and edit-tolerant lets isolated substitutions decay a
// score instead of erasing it.
//
// # Usage
//
//	m, err := matcher.New("the quick brown fox",
//	    matcher.WithPolicy(matcher.PolicyNearSymbol),
//	    matcher.WithThreshold(0.7))
//	if err != nil {
//	    return err
//	}
//
//	matches, err := m.MatchString(ctx, referenceText)
//	for _, match := range matches {
//	    fmt.Printf("%.2f %q\n", match.Score, match.Text)
//	}
//
// Scanning many files runs them in parallel:
//
//	results, err := m.MatchFiles(ctx, []string{"a.txt", "b.txt"})
//
// # Word granularity
//
// At WithGranularity(GranularityWord) the quote and reference are compared
// word by word. Reference words missing from the compiled table get a
// second chance through a letter-level sub-scan, so a misspelled word still
// contributes a partial score instead of zeroing the alignment.
//
// # Thread Safety
//
// A Matcher is immutable after New and safe for concurrent use. Each scan
// owns its own automaton state; the compiled table is shared read-only.
package matcher
