package analysis

import (
	"math"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
)

const (
	// DefaultScore is returned for unknown grades and for compositions that
	// share no element with the grade spec.
	DefaultScore = 85.0

	perfectElementScore = 100.0
	maxPenalty          = 50.0
	elementScoreFloor   = 50.0
)

// GradeScorer rates a composition against a grade's tolerance bands.
type GradeScorer struct {
	ref          alloy.Reference
	defaultScore float64
}

type ScorerOption func(*GradeScorer)

// WithDefaultScore overrides the neutral score used when a composition
// cannot be rated.
func WithDefaultScore(v float64) ScorerOption {
	return func(s *GradeScorer) { s.defaultScore = v }
}

func NewGradeScorer(ref alloy.Reference, opts ...ScorerOption) *GradeScorer {
	s := &GradeScorer{ref: ref, defaultScore: DefaultScore}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Known reports whether grade is present in the reference table.
func (s *GradeScorer) Known(grade string) bool {
	_, ok := s.ref.Grade(grade)
	return ok
}

// Score returns a value in [50,100] for rateable input, or the default score.
// Elements outside their band lose up to 50 points by relative distance
// from the band center; elements missing from c are ignored.
func (s *GradeScorer) Score(c alloy.Composition, grade string) float64 {
	spec, ok := s.ref.Grade(grade)
	if !ok {
		return s.defaultScore
	}
	total, checked := 0.0, 0
	for _, el := range spec.Elements() {
		v, present := c[el]
		if !present {
			continue
		}
		total += elementScore(v, spec.Bands[el])
		checked++
	}
	if checked == 0 {
		return s.defaultScore
	}
	return total / float64(checked)
}

func elementScore(v float64, b alloy.Band) float64 {
	if b.Contains(v) {
		return perfectElementScore
	}
	center := b.Center()
	penalty := maxPenalty
	if center != 0 {
		d := math.Abs(v-center) / math.Abs(center)
		if finite(d) {
			penalty = math.Min(maxPenalty, d*100)
		}
	}
	return math.Max(elementScoreFloor, perfectElementScore-penalty)
}
