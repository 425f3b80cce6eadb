//go:build ignore

// Package main generates a synthetic reference corpus for scan benchmarking.
// Usage: go run scripts/generate-reference.go -files 200 -output testdata/bench
//
// Each file holds a few paragraphs of filler prose. Files are split across
// four subdirectories by what they plant:
//
//	verbatim/  the quote as given; every policy finds it
//	near/      one confusable swap or transposition; needs near-symbol
//	edited/    one unrelated letter substituted; needs edit-tolerant
//	           with a threshold of 0.7 or lower
//	clean/     no planting, sometimes a decoy quote; nothing should match
//
// The split gives a scan over the whole tree a known hit profile per policy.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	numFiles  = flag.Int("files", 200, "Number of reference files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	quote     = flag.String("quote", "ask not what your country can do for you", "Quote to plant")
)

// Word pools for the filler prose. The register is deliberately editorial so
// the corpus reads like notes about a disputed text.
var (
	subjects = []string{
		"the archivist", "the editor", "the committee", "a reviewer",
		"the transcript", "the second draft", "the footnote", "the biographer",
		"the stenographer", "an early reader", "the margin note", "the typesetter",
	}
	verbs = []string{
		"records", "disputes", "repeats", "shortens", "amends",
		"misplaces", "restores", "paraphrases", "catalogues", "overlooks",
		"defends", "redates",
	}
	objects = []string{
		"the passage", "an earlier wording", "the attribution", "a doubtful source",
		"the pamphlet edition", "the dedication", "a deleted line", "the closing remarks",
		"the second printing", "an undated letter", "the speech", "the interview",
	}
	tails = []string{
		"without comment", "in a later appendix", "against the original",
		"for the revised edition", "with some hesitation", "on thin evidence",
		"in passing", "at the editor's request", "despite the errata slip",
		"before publication",
	}
)

// frames wrap a planted quote in a sentence so it sits naturally in a
// paragraph. The quote text itself is never altered by the frame.
var frames = []string{
	"The draft quotes it as “%s” without attribution.",
	"One margin note reads: %s.",
	"“%s”, the speaker is said to have insisted.",
	"The chapter closes on the line %s and moves on.",
	"Somewhere in the galleys the phrase %s survived every cut.",
}

// decoys are other well-worn lines planted in clean files. They keep the
// zero-match files from being trivially distinguishable by length.
var decoys = []string{
	"to be or not to be that is the question",
	"it was the best of times it was the worst of times",
	"call me ishmael",
	"four score and seven years ago",
	"all that glisters is not gold",
}

// lookalikes maps letters onto the digit and sign forms the near-symbol
// policy treats as confusable.
var lookalikes = map[rune]rune{
	'o': '0', 'l': '1', 'e': '3', 's': '5', 'b': '8', 'a': '@',
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	subdirs := []string{"verbatim", "near", "edited", "clean"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d reference files in %s...\n", *numFiles, *outputDir)

	verbatimFiles := *numFiles * 30 / 100
	nearFiles := *numFiles * 30 / 100
	editedFiles := *numFiles * 20 / 100
	cleanFiles := *numFiles - verbatimFiles - nearFiles - editedFiles

	generated := 0

	for i := 0; i < verbatimFiles; i++ {
		if err := writeReference("verbatim", i, *quote); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating verbatim file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < nearFiles; i++ {
		if err := writeReference("near", i, mutateNear(*quote)); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating near file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < editedFiles; i++ {
		if err := writeReference("edited", i, mutateEdit(*quote)); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating edited file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < cleanFiles; i++ {
		planted := ""
		if rand.Intn(2) == 0 {
			planted = randomWord(decoys)
		}
		if err := writeReference("clean", i, planted); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating clean file %d: %v\n", i, err)
		}
		generated++
	}

	fmt.Printf("Generated %d files: %d verbatim, %d near, %d edited, %d clean.\n",
		generated, verbatimFiles, nearFiles, editedFiles, cleanFiles)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

// writeReference builds a document, plants the line (if any) as a framed
// sentence in a random paragraph, and writes it under the kind subdirectory.
func writeReference(kind string, index int, planted string) error {
	paragraphs := make([]string, 3+rand.Intn(5))
	for i := range paragraphs {
		paragraphs[i] = paragraph()
	}

	if planted != "" {
		framed := fmt.Sprintf(randomWord(frames), planted)
		at := rand.Intn(len(paragraphs))
		paragraphs[at] = paragraphs[at] + " " + framed
	}

	content := strings.Join(paragraphs, "\n\n") + "\n"
	filename := filepath.Join(*outputDir, kind, fmt.Sprintf("ref_%04d.txt", index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func paragraph() string {
	sentences := make([]string, 3+rand.Intn(4))
	for i := range sentences {
		sentences[i] = sentence()
	}
	return strings.Join(sentences, " ")
}

func sentence() string {
	s := fmt.Sprintf("%s %s %s %s.",
		randomWord(subjects), randomWord(verbs), randomWord(objects), randomWord(tails))
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// mutateNear damages one symbol in a way the near-symbol policy still
// credits: a confusable lookalike swap, or a transposition of two adjacent
// letters. Quotes with no mutable position come back unchanged.
func mutateNear(q string) string {
	runes := []rune(q)

	var swaps, transposes []int
	for i, r := range runes {
		if _, ok := lookalikes[r]; ok {
			swaps = append(swaps, i)
		}
		if i+1 < len(runes) && unicode.IsLetter(r) && unicode.IsLetter(runes[i+1]) && r != runes[i+1] {
			transposes = append(transposes, i)
		}
	}

	useSwap := len(swaps) > 0 && (len(transposes) == 0 || rand.Intn(2) == 0)
	switch {
	case useSwap:
		at := swaps[rand.Intn(len(swaps))]
		runes[at] = lookalikes[runes[at]]
	case len(transposes) > 0:
		at := transposes[rand.Intn(len(transposes))]
		runes[at], runes[at+1] = runes[at+1], runes[at]
	}
	return string(runes)
}

// mutateEdit substitutes one letter with an unrelated one, the kind of slip
// only the edit-tolerant policy forgives.
func mutateEdit(q string) string {
	runes := []rune(q)

	var letters []int
	for i, r := range runes {
		if unicode.IsLetter(r) {
			letters = append(letters, i)
		}
	}
	if len(letters) == 0 {
		return q
	}

	at := letters[rand.Intn(len(letters))]
	old := unicode.ToLower(runes[at])
	repl := old
	for repl == old {
		repl = rune('a' + rand.Intn(26))
	}
	runes[at] = repl
	return string(runes)
}
