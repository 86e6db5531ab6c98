package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
)

const (
	// MaxRecommendations caps a single Recommend call.
	MaxRecommendations = 3

	// DeviationThreshold is the absolute percentage gap below which an
	// element is left alone.
	DeviationThreshold = 0.01

	// DominantConcentration: a material only qualifies for an element it
	// carries above this percentage.
	DominantConcentration = 50.0

	confidenceBase   = 80.0
	confidenceJitter = 15.0
	confidenceCap    = 95.0
)

// RandSource yields values in [0,1). *math/rand.Rand and *math/rand/v2.Rand
// both satisfy it, but neither is safe for concurrent use on its own.
type RandSource interface {
	Float64() float64
}

// RandFunc adapts a plain function to RandSource.
type RandFunc func() float64

func (f RandFunc) Float64() float64 { return f() }

// Recommendation is one proposed material addition.
type Recommendation struct {
	Material   string  `json:"material"`
	Element    string  `json:"element"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// Recommender proposes catalog additions that raise deficient elements
// toward target. It never proposes removals.
type Recommender struct {
	catalog alloy.Catalog
	rnd     RandSource
	limit   int
}

type RecommenderOption func(*Recommender)

// WithRand replaces the confidence jitter source.
func WithRand(r RandSource) RecommenderOption {
	return func(e *Recommender) { e.rnd = r }
}

func WithLimit(n int) RecommenderOption {
	return func(e *Recommender) { e.limit = n }
}

func NewRecommender(ref alloy.Reference, opts ...RecommenderOption) *Recommender {
	e := &Recommender{
		catalog: ref.Materials,
		rnd:     RandFunc(rand.Float64),
		limit:   MaxRecommendations,
	}
	for _, o := range opts {
		o(e)
	}
	if e.limit <= 0 {
		e.limit = MaxRecommendations
	}
	if e.rnd == nil {
		e.rnd = RandFunc(rand.Float64)
	}
	return e
}

// Recommend scans target elements in ascending symbol order and, for each,
// the catalog in declaration order. The first limit hits are returned; no
// ranking is applied.
func (e *Recommender) Recommend(target, current alloy.Composition) ([]Recommendation, error) {
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: target composition is required", ErrInvalidInput)
	}
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: current composition is required", ErrInvalidInput)
	}

	out := []Recommendation{}
	for _, el := range target.Elements() {
		want := target[el]
		have := current.Get(el)
		if math.Abs(want-have) <= DeviationThreshold {
			continue
		}
		for _, m := range e.catalog {
			conc, ok := m.Composition[el]
			if !ok || conc <= DominantConcentration {
				continue
			}
			needed := (want - have) / (conc / 100)
			if !(needed > 0) {
				continue
			}
			out = append(out, Recommendation{
				Material:   m.Name,
				Element:    el,
				Current:    have,
				Target:     want,
				Quantity:   math.Abs(needed),
				Confidence: e.confidence(),
			})
			if len(out) >= e.limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (e *Recommender) confidence() float64 {
	return math.Min(confidenceCap, confidenceBase+e.rnd.Float64()*confidenceJitter)
}
