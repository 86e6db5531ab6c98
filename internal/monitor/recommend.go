package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/events"
)

type Improvement struct {
	Element string  `json:"element"`
	From    float64 `json:"from"`
	To      float64 `json:"to"`
}

// Suggestion is a recommendation shaped for operators: rounded figures,
// a reason line and an estimated cost.
type Suggestion struct {
	ID                  string        `json:"id"`
	AlloyType           string        `json:"alloyType"`
	Quantity            float64       `json:"quantity"`
	Unit                string        `json:"unit"`
	Confidence          float64       `json:"confidence"`
	Reason              string        `json:"reason"`
	EstimatedCost       float64       `json:"estimatedCost"`
	ExpectedImprovement []Improvement `json:"expectedImprovement"`
}

type RecommendationReport struct {
	Recommendations    []Suggestion `json:"recommendations"`
	GeneratedAt        time.Time    `json:"generated_at"`
	AnalysisConfidence string       `json:"analysis_confidence"`
}

// Recommend proposes additions that move current toward target.
// Empty inputs fail with analysis.ErrInvalidInput.
func (s *Service) Recommend(ctx context.Context, target, current alloy.Composition) (RecommendationReport, error) {
	recs, err := s.recommender.Recommend(target, current)
	if err != nil {
		return RecommendationReport{}, err
	}
	out := make([]Suggestion, 0, len(recs))
	for i, r := range recs {
		out = append(out, Suggestion{
			ID:            fmt.Sprintf("rec_%d", i+1),
			AlloyType:     r.Material,
			Quantity:      round(r.Quantity, 2),
			Unit:          "kg",
			Confidence:    round(r.Confidence, 1),
			Reason:        fmt.Sprintf("%s content %.3f%% needs adjustment to %.3f%%", r.Element, r.Current, r.Target),
			EstimatedCost: round(r.Quantity*s.costPerKg, 2),
			ExpectedImprovement: []Improvement{
				{Element: r.Element, From: r.Current, To: r.Target},
			},
		})
		s.metrics.ObserveRecommendation(r.Material)
		s.emit(ctx, events.KeyRecommendationIssued, r.Element, r)
	}
	return RecommendationReport{
		Recommendations:    out,
		GeneratedAt:        s.now().UTC(),
		AnalysisConfidence: "high",
	}, nil
}

type ScoreResult struct {
	Grade      string  `json:"grade"`
	Score      float64 `json:"score"`
	KnownGrade bool    `json:"known_grade"`
}

// ScoreComposition rates c against grade, or the default grade when empty.
func (s *Service) ScoreComposition(_ context.Context, c alloy.Composition, grade string) (ScoreResult, error) {
	if len(c) == 0 {
		return ScoreResult{}, fmt.Errorf("%w: composition is required", analysis.ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
	}
	if grade == "" {
		grade = s.defaultGrade
	}
	v := s.scorer.Score(c, grade)
	s.metrics.ObserveScore(grade, v)
	return ScoreResult{Grade: grade, Score: v, KnownGrade: s.scorer.Known(grade)}, nil
}

func (s *Service) DefaultGrade() string { return s.defaultGrade }
