//go:build ignore

// Package main compares two scan runs for match and score drift.
// Usage: go run scripts/scan-compare.go <current.json> <baseline.json>
//
// Both inputs are `mismisquote scan --json` outputs over the same
// references, typically captured before and after a matcher change. A
// reference that lost matches, or whose best score dropped by more than
// the threshold, fails the comparison. Gained matches and rising scores
// are reported but pass.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	// DriftThreshold is the maximum allowed best-score drop, in score units.
	DriftThreshold = 0.05

	// RiseThreshold for highlighting notable score gains.
	RiseThreshold = 0.05
)

// scanRun mirrors the fields of the scan --json report the comparison needs.
type scanRun struct {
	Quote   string `json:"quote"`
	Policy  string `json:"policy"`
	Results []struct {
		Name    string `json:"name"`
		Matches []struct {
			Score float64 `json:"score"`
		} `json:"matches"`
	} `json:"results"`
}

// refStat is one reference file's outcome in one run.
type refStat struct {
	Matches int
	Best    float64
}

// ComparisonResult represents one reference compared across the two runs.
type ComparisonResult struct {
	Name            string  `json:"name"`
	CurrentMatches  int     `json:"current_matches"`
	BaselineMatches int     `json:"baseline_matches"`
	CurrentBest     float64 `json:"current_best"`
	BaselineBest    float64 `json:"baseline_best"`
	Delta           float64 `json:"delta"`
	Status          string  `json:"status"`
}

// Report contains all comparison results.
type Report struct {
	TotalReferences int                 `json:"total_references"`
	Lost            int                 `json:"lost"`
	Dropped         int                 `json:"dropped"`
	Gained          int                 `json:"gained"`
	Unchanged       int                 `json:"unchanged"`
	NewReferences   int                 `json:"new_references"`
	MissingCurrent  int                 `json:"missing_current"`
	Results         []*ComparisonResult `json:"results"`
	DriftFailed     bool                `json:"drift_failed"`
}

var (
	outputJSON = flag.Bool("json", false, "Output results as JSON")
	threshold  = flag.Float64("threshold", DriftThreshold, "Allowed best-score drop (score units)")
	verbose    = flag.Bool("verbose", false, "Show all reference comparisons")
	failOnLoss = flag.Bool("fail", true, "Exit with code 1 on lost matches or score drops")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <current.json> <baseline.json>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compares two scan --json runs and flags match and score drift.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	current, err := parseScanFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing current file %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	baseline, err := parseScanFile(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing baseline file %s: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}

	if current.Quote != baseline.Quote || current.Policy != baseline.Policy {
		fmt.Fprintf(os.Stderr, "Warning: runs differ in quote or policy (%q/%s vs %q/%s)\n",
			current.Quote, current.Policy, baseline.Quote, baseline.Policy)
	}

	report := compare(refStats(current), refStats(baseline), *threshold)

	if *outputJSON {
		outputJSONReport(report)
	} else {
		outputTextReport(report)
	}

	if *failOnLoss && report.DriftFailed {
		os.Exit(1)
	}
}

// parseScanFile reads and decodes one scan --json output file.
func parseScanFile(path string) (*scanRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var run scanRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// refStats reduces a run to match count and best score per reference.
func refStats(run *scanRun) map[string]refStat {
	stats := make(map[string]refStat, len(run.Results))
	for _, res := range run.Results {
		stat := refStat{Matches: len(res.Matches)}
		for _, m := range res.Matches {
			if m.Score > stat.Best {
				stat.Best = m.Score
			}
		}
		stats[res.Name] = stat
	}
	return stats
}

// compare walks current against baseline reference by reference.
func compare(current, baseline map[string]refStat, threshold float64) *Report {
	report := &Report{
		Results: make([]*ComparisonResult, 0),
	}

	for name, curr := range current {
		report.TotalReferences++

		base, exists := baseline[name]
		if !exists {
			report.NewReferences++
			if *verbose {
				report.Results = append(report.Results, &ComparisonResult{
					Name:           name,
					CurrentMatches: curr.Matches,
					CurrentBest:    curr.Best,
					Status:         "NEW",
				})
			}
			continue
		}

		result := &ComparisonResult{
			Name:            name,
			CurrentMatches:  curr.Matches,
			BaselineMatches: base.Matches,
			CurrentBest:     curr.Best,
			BaselineBest:    base.Best,
			Delta:           curr.Best - base.Best,
		}

		switch {
		case curr.Matches < base.Matches:
			result.Status = "LOST"
			report.Lost++
			report.DriftFailed = true
		case result.Delta < -threshold:
			result.Status = "DROPPED"
			report.Dropped++
			report.DriftFailed = true
		case curr.Matches > base.Matches || result.Delta > RiseThreshold:
			result.Status = "GAINED"
			report.Gained++
		default:
			result.Status = "OK"
			report.Unchanged++
		}

		if result.Status != "OK" || *verbose {
			report.Results = append(report.Results, result)
		}
	}

	for name, base := range baseline {
		if _, exists := current[name]; !exists {
			report.MissingCurrent++
			if *verbose {
				report.Results = append(report.Results, &ComparisonResult{
					Name:            name,
					BaselineMatches: base.Matches,
					BaselineBest:    base.Best,
					Status:          "MISSING",
				})
			}
		}
	}

	return report
}

// outputTextReport prints a human-readable report.
func outputTextReport(report *Report) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SCAN DRIFT REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("References:    %d\n", report.TotalReferences)
	fmt.Printf("Lost matches:  %d\n", report.Lost)
	fmt.Printf("Score drops:   %d (> %.2f)\n", report.Dropped, *threshold)
	fmt.Printf("Gains:         %d\n", report.Gained)
	fmt.Printf("Unchanged:     %d\n", report.Unchanged)
	fmt.Printf("New:           %d\n", report.NewReferences)
	fmt.Printf("Missing:       %d\n", report.MissingCurrent)
	fmt.Println()

	if len(report.Results) > 0 {
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("%-40s %9s %9s %8s\n", "REFERENCE", "CURRENT", "BASELINE", "DELTA")
		fmt.Println(strings.Repeat("-", 80))

		for _, r := range report.Results {
			status := ""
			switch r.Status {
			case "LOST":
				status = "❌ LOST"
			case "DROPPED":
				status = "❌ DROPPED"
			case "GAINED":
				status = "✅ GAINED"
			case "NEW":
				status = "NEW"
			case "MISSING":
				status = "⚠️ MISSING"
			default:
				status = "   OK"
			}

			fmt.Printf("%-40s %2d @ %.2f %2d @ %.2f %+8.2f %s\n",
				truncateName(r.Name, 40),
				r.CurrentMatches, r.CurrentBest,
				r.BaselineMatches, r.BaselineBest,
				r.Delta,
				status,
			)
		}
		fmt.Println(strings.Repeat("-", 80))
	}

	fmt.Println()
	if report.DriftFailed {
		fmt.Println("❌ FAILED: scan drift detected")
		fmt.Printf("   %d reference(s) lost matches, %d dropped by more than %.2f\n",
			report.Lost, report.Dropped, *threshold)
	} else {
		fmt.Println("✅ PASSED: no lost matches or score drops")
	}
	fmt.Println()
}

// outputJSONReport outputs the report as JSON.
func outputJSONReport(report *Report) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// truncateName shortens long reference paths.
func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}
