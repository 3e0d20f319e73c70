// Package moderation scores images against content-safety models before they
// are published.
package moderation

import (
	"context"
	"errors"
)

// DefaultThreshold is the score above which a category rejects an image.
const DefaultThreshold = 0.6

// ErrUnavailable is returned when the moderation service could not produce a verdict.
var ErrUnavailable = errors.New("moderation service unavailable")

// Image is the content submitted for moderation.
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}

// Moderator scores an image.
type Moderator interface {
	// CheckImage returns the model scores for image.
	// Returns ErrUnavailable (wrapped) if no verdict could be obtained.
	CheckImage(ctx context.Context, image Image) (*Scores, error)
}

// NudityScores holds the nudity model's probabilities.
type NudityScores struct {
	Raw     float64 `json:"raw"`
	Partial float64 `json:"partial"`
	Safe    float64 `json:"safe"`
	Exposed float64 `json:"exposed"`
}

// ProbScore is a model result expressed as a single probability.
type ProbScore struct {
	Prob float64 `json:"prob"`
}

// Scores are the per-model results for an image.
type Scores struct {
	Nudity    NudityScores `json:"nudity"`
	Offensive ProbScore    `json:"offensive"`
	Gore      ProbScore    `json:"gore"`
	Weapon    float64      `json:"weapon"`
	Alcohol   float64      `json:"alcohol"`
	Drugs     float64      `json:"drugs"`
}

// Violation names a category whose score exceeded the threshold.
type Violation string

// Categories in the order they are reported.
const (
	ViolationAdult     Violation = "adult content"
	ViolationWeapons   Violation = "weapons"
	ViolationAlcohol   Violation = "alcohol"
	ViolationDrugs     Violation = "drugs"
	ViolationOffensive Violation = "offensive content"
	ViolationGore      Violation = "gore"
)

// Violations returns every category scoring strictly above threshold.
// A score equal to the threshold passes.
func (s Scores) Violations(threshold float64) []Violation {
	var out []Violation
	if s.Nudity.Raw > threshold || s.Nudity.Partial > threshold || s.Nudity.Exposed > threshold {
		out = append(out, ViolationAdult)
	}
	if s.Weapon > threshold {
		out = append(out, ViolationWeapons)
	}
	if s.Alcohol > threshold {
		out = append(out, ViolationAlcohol)
	}
	if s.Drugs > threshold {
		out = append(out, ViolationDrugs)
	}
	if s.Offensive.Prob > threshold {
		out = append(out, ViolationOffensive)
	}
	if s.Gore.Prob > threshold {
		out = append(out, ViolationGore)
	}
	return out
}
