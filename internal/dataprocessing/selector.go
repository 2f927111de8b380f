package dataprocessing

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/aeturrell/deploy-api/internal/config"
)

// SheetSelector picks the sheet holding the data table from a workbook's sheet names
type SheetSelector struct {
	// Preferred is chosen outright when a sheet has exactly this name
	Preferred string
	// Target is the name the remaining sheets are fuzzily compared against
	Target string
	// Cutoff is the minimum similarity in [0, 1] a candidate needs to qualify
	Cutoff float64
}

// NewSheetSelector builds a selector from the transform configuration
func NewSheetSelector(cfg config.TransformConfig) *SheetSelector {
	return &SheetSelector{
		Preferred: cfg.PreferredSheet,
		Target:    cfg.TargetSheet,
		Cutoff:    cfg.SimilarityCutoff,
	}
}

// Select returns the preferred sheet if present, otherwise the closest match
// to Target. Ties go to the lexicographically greater name so the result does
// not depend on sheet order.
func (s *SheetSelector) Select(names []string) (string, error) {
	for _, name := range names {
		if name == s.Preferred {
			return name, nil
		}
	}

	best, bestScore := "", -1.0
	for _, name := range names {
		score := s.score(name)
		if score < s.Cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && name > best) {
			best, bestScore = name, score
		}
	}

	if bestScore < 0 {
		candidates := make([]string, len(names))
		copy(candidates, names)
		return "", &NoMatchingSheetError{Target: s.Target, Candidates: candidates}
	}
	return best, nil
}

// score runs the cheap upper bounds first and only computes the full ratio
// for candidates that could still reach the cutoff
func (s *SheetSelector) score(name string) float64 {
	m := difflib.NewMatcher(splitChars(name), splitChars(s.Target))
	if m.RealQuickRatio() < s.Cutoff || m.QuickRatio() < s.Cutoff {
		return 0
	}
	return m.Ratio()
}

// Similarity is the case-sensitive sequence-matching ratio 2*M/T of a and b,
// where M counts matched characters and T is the combined length
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
