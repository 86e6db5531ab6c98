package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/events"
	"github.com/mind-engage/mindengage-alloy/internal/process"
)

type Query struct {
	Hours     int
	FurnaceID string
	Grade     string
}

type QualityReport struct {
	AverageQualityScore float64            `json:"average_quality_score"`
	TotalSamples        int                `json:"total_samples"`
	ScoredSamples       int                `json:"scored_samples"`
	QualityTrend        string             `json:"quality_trend"`
	AnomaliesDetected   int                `json:"anomalies_detected"`
	Anomalies           []analysis.Anomaly `json:"anomalies"`
	AnalysisPeriodHours int                `json:"analysis_period_hours"`
	FurnaceID           string             `json:"furnace_id,omitempty"`
	Grade               string             `json:"grade"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("quality:%d:%s:%s", q.Hours, q.FurnaceID, q.Grade)
}

func (s *Service) normalize(q Query) Query {
	if q.Hours <= 0 {
		q.Hours = DefaultHours
	}
	if q.Grade == "" {
		q.Grade = s.defaultGrade
	}
	return q
}

// QualityAnalysis scores and screens the readings inside the query window.
func (s *Service) QualityAnalysis(ctx context.Context, q Query) (QualityReport, error) {
	q = s.normalize(q)

	if rep, ok := s.cachedReport(ctx, q); ok {
		return rep, nil
	}

	rows, err := s.store.FetchRecentSamples(ctx, q.Hours, q.FurnaceID)
	if err != nil {
		return QualityReport{}, fmt.Errorf("fetch samples: %w", err)
	}
	if len(rows) == 0 {
		return QualityReport{}, ErrNoData
	}

	scores := make([]float64, 0, len(rows))
	for _, r := range rows {
		if len(r.Composition) == 0 {
			continue
		}
		v := s.scorer.Score(r.Composition, q.Grade)
		s.metrics.ObserveScore(q.Grade, v)
		scores = append(scores, v)
	}
	avg := 0.0
	if len(scores) > 0 {
		sum := 0.0
		for _, v := range scores {
			sum += v
		}
		avg = sum / float64(len(scores))
	}

	anomalies := s.detector.Detect(process.Samples(rows))
	rep := QualityReport{
		AverageQualityScore: round(avg, 2),
		TotalSamples:        len(rows),
		ScoredSamples:       len(scores),
		QualityTrend:        analysis.Trend(scores),
		AnomaliesDetected:   len(anomalies),
		Anomalies:           anomalies,
		AnalysisPeriodHours: q.Hours,
		FurnaceID:           q.FurnaceID,
		Grade:               q.Grade,
		GeneratedAt:         s.now().UTC(),
	}

	for _, a := range anomalies {
		s.metrics.ObserveAnomaly(a.Severity)
		s.emit(ctx, events.KeyAnomalyDetected, a.FurnaceID, a)
	}
	s.log.Debug("quality analysis",
		zap.Int("samples", rep.TotalSamples),
		zap.Int("scored", rep.ScoredSamples),
		zap.Int("anomalies", rep.AnomaliesDetected),
		zap.String("grade", q.Grade))

	s.storeReport(ctx, q, rep)
	return rep, nil
}

func (s *Service) cachedReport(ctx context.Context, q Query) (QualityReport, bool) {
	if s.cache == nil {
		return QualityReport{}, false
	}
	b, ok, err := s.cache.Get(ctx, q.cacheKey())
	if err != nil {
		s.log.Warn("cache get failed", zap.Error(err))
		return QualityReport{}, false
	}
	if !ok {
		return QualityReport{}, false
	}
	var rep QualityReport
	if err := json.Unmarshal(b, &rep); err != nil {
		s.log.Warn("cache entry unreadable", zap.String("key", q.cacheKey()), zap.Error(err))
		return QualityReport{}, false
	}
	return rep, true
}

func (s *Service) storeReport(ctx context.Context, q Query, rep QualityReport) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, q.cacheKey(), b, s.cacheTTL); err != nil {
		s.log.Warn("cache set failed", zap.Error(err))
	}
}
