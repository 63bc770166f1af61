// Package classifier decides whether the recognized text of a page is a
// table of contents.
package classifier

import (
	"context"
	"math"
)

// DefaultThreshold is the TOC score at or above which a page counts as a TOC.
const DefaultThreshold = 0.5

// Decision is a classifier verdict. Confidence is the classifier's certainty
// in IsTOC, whichever way it went, and lies in [0, 1].
type Decision struct {
	IsTOC      bool    `json:"is_toc"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels page text. An error is page-level.
type Classifier interface {
	Classify(ctx context.Context, text string) (Decision, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, text string) (Decision, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, text string) (Decision, error) {
	return f(ctx, text)
}

// Clamp forces a confidence into [0, 1]. NaN becomes 0.
func Clamp(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// decide turns a TOC score into a Decision against threshold.
func decide(score, threshold float64) Decision {
	score = Clamp(score)
	if score >= threshold {
		return Decision{IsTOC: true, Confidence: score}
	}
	return Decision{IsTOC: false, Confidence: 1 - score}
}
