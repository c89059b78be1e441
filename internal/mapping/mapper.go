// Package mapping matches discovered source column names onto a fixed target
// schema using approximate name matching.
//
// Partner exports name the same field a dozen ways ("Polisnummer", "Polisnr",
// "Policy number"), so exact keys cannot drive the mapping. Each source/target
// pair gets a confidence score in [0,100] built from edit distance, substring
// containment and word overlap; pairs are then assigned one-to-one, greedily,
// best score first.
//
// The greedy assignment is a deliberate approximation of maximum-weight
// bipartite matching, not a global optimum. Exact matches score 100 and
// dominate every tie, and near-ties between non-exact pairs are rare on real
// headers, so the simpler scheme holds up in practice.
package mapping

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum confidence for a pair to enter the result.
const DefaultThreshold = 30.0

// ErrInvalidInput is returned when either name list is empty; no partial
// result would be meaningful.
var ErrInvalidInput = errors.New("mapping: source and target name lists must be non-empty")

// Pair is one scored source/target combination considered during assignment.
type Pair struct {
	SourceIndex int     `json:"sourceIndex"`
	TargetIndex int     `json:"targetIndex"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Confidence  float64 `json:"confidence"`
}

// Result is the one-to-one mapping produced by Map.
type Result struct {
	// Assignments maps target field name to the assigned source column name.
	// Targets without a pair at or above the threshold are absent.
	Assignments map[string]string `json:"assignments"`

	// Confidences holds the per-target confidence of each assignment.
	Confidences map[string]float64 `json:"confidences"`

	// Pairs are the accepted pairs in acceptance order, highest first.
	Pairs []Pair `json:"pairs"`
}

// Map builds a best-effort one-to-one mapping from targets to sources.
// Pairs scoring below threshold are excluded even if both names remain
// unassigned. A threshold <= 0 selects DefaultThreshold.
func Map(sources, targets []string, threshold float64) (*Result, error) {
	if len(sources) == 0 || len(targets) == 0 {
		return nil, ErrInvalidInput
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	// Full |sources| x |targets| confidence matrix, flattened in matrix
	// iteration order so the stable sort keeps source-then-target order
	// among equal scores.
	pairs := make([]Pair, 0, len(sources)*len(targets))
	for si, src := range sources {
		for ti, tgt := range targets {
			pairs = append(pairs, Pair{
				SourceIndex: si,
				TargetIndex: ti,
				Source:      src,
				Target:      tgt,
				Confidence:  Confidence(src, tgt),
			})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Confidence > pairs[b].Confidence
	})

	res := &Result{
		Assignments: make(map[string]string),
		Confidences: make(map[string]float64),
	}

	usedSource := make([]bool, len(sources))
	usedTarget := make([]bool, len(targets))

	for _, p := range pairs {
		if p.Confidence < threshold {
			break
		}
		if usedSource[p.SourceIndex] || usedTarget[p.TargetIndex] {
			continue
		}
		usedSource[p.SourceIndex] = true
		usedTarget[p.TargetIndex] = true

		res.Assignments[p.Target] = p.Source
		res.Confidences[p.Target] = p.Confidence
		res.Pairs = append(res.Pairs, p)
	}

	return res, nil
}

// Confidence scores how well a source column name matches a target field
// name, in [0,100]. Exact equality after normalization scores 100; every
// other pair is capped at 99 so exact matches always dominate.
func Confidence(source, target string) float64 {
	s := Normalize(source)
	t := Normalize(target)

	if s == t && s != "" {
		return 100
	}

	score := charSimilarity(s, t) + substringBonus(s, t) + wordOverlapBonus(s, t) - lengthPenalty(s, t)

	if score < 0 {
		return 0
	}
	if score > 99 {
		return 99
	}
	return score
}

// Normalize lowercases a name, strips punctuation and collapses runs of
// whitespace to single spaces.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// charSimilarity contributes up to 50 points based on edit distance.
func charSimilarity(s, t string) float64 {
	maxLen := len(s)
	if len(t) > maxLen {
		maxLen = len(t)
	}
	if maxLen == 0 {
		return 0
	}
	dist := Levenshtein(s, t)
	return float64(maxLen-dist) / float64(maxLen) * 50
}

// substringBonus contributes up to 30 points when the shorter name is a
// substring of the longer one and is longer than 2 characters.
func substringBonus(s, t string) float64 {
	shorter, longer := s, t
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) <= 2 || len(longer) == 0 {
		return 0
	}
	if !strings.Contains(longer, shorter) {
		return 0
	}
	return float64(len(shorter)) / float64(len(longer)) * 30
}

// wordOverlapBonus contributes up to 20 points for shared words longer than
// one character.
func wordOverlapBonus(s, t string) float64 {
	sw := significantWords(s)
	tw := significantWords(t)
	if len(sw) == 0 || len(tw) == 0 {
		return 0
	}

	common := 0
	for w := range sw {
		if tw[w] {
			common++
		}
	}

	denom := len(sw)
	if len(tw) > denom {
		denom = len(tw)
	}
	return float64(common) / float64(denom) * 20
}

func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		if len(w) > 1 {
			words[w] = true
		}
	}
	return words
}

// lengthPenalty subtracts up to 10 points for length mismatch.
func lengthPenalty(s, t string) float64 {
	diff := len(s) - len(t)
	if diff < 0 {
		diff = -diff
	}
	penalty := float64(diff) * 0.5
	if penalty > 10 {
		penalty = 10
	}
	return penalty
}
