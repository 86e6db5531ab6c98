package analysis

import (
	"math"
	"time"
)

const (
	AnomalyTypeTemperature = "temperature_anomaly"

	SeverityMedium = "medium"
	SeverityHigh   = "high"

	TrendStable   = "stable"
	TrendVariable = "variable"
)

// Detector defaults: flag beyond 3 sigma, escalate beyond 4 sigma, and
// report the 2 sigma band as the expected range.
const (
	DefaultMinSamples    = 10
	DefaultWindow        = 5
	DefaultFlagSigma     = 3.0
	DefaultEscalateSigma = 4.0
	DefaultRangeSigma    = 2.0

	trendWindow         = 5
	trendDistinctStable = 3
)

// Sample is one furnace telemetry reading.
type Sample struct {
	FurnaceID    string
	Timestamp    time.Time
	Temperature  float64
	QualityScore *float64
}

type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Anomaly is a flagged telemetry reading.
type Anomaly struct {
	Type          string    `json:"type"`
	FurnaceID     string    `json:"furnace_id"`
	Timestamp     time.Time `json:"timestamp"`
	Value         float64   `json:"value"`
	ExpectedRange Range     `json:"expected_range"`
	Severity      string    `json:"severity"`
}

// AnomalyDetector applies a sigma rule to the newest samples of a window.
type AnomalyDetector struct {
	minSamples    int
	window        int
	flagSigma     float64
	escalateSigma float64
	rangeSigma    float64
}

type DetectorOption func(*AnomalyDetector)

func WithMinSamples(n int) DetectorOption {
	return func(d *AnomalyDetector) { d.minSamples = n }
}

// WithWindow sets how many of the newest samples are evaluated.
func WithWindow(n int) DetectorOption {
	return func(d *AnomalyDetector) { d.window = n }
}

func WithSigmas(flag, escalate, reported float64) DetectorOption {
	return func(d *AnomalyDetector) {
		d.flagSigma, d.escalateSigma, d.rangeSigma = flag, escalate, reported
	}
}

func NewAnomalyDetector(opts ...DetectorOption) *AnomalyDetector {
	d := &AnomalyDetector{
		minSamples:    DefaultMinSamples,
		window:        DefaultWindow,
		flagSigma:     DefaultFlagSigma,
		escalateSigma: DefaultEscalateSigma,
		rangeSigma:    DefaultRangeSigma,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect expects samples ordered oldest to newest. Mean and population
// standard deviation come from the whole slice; only the trailing window is
// classified. Too few samples or zero spread yields no anomalies.
func (d *AnomalyDetector) Detect(samples []Sample) []Anomaly {
	out := []Anomaly{}
	if len(samples) < d.minSamples || len(samples) == 0 {
		return out
	}
	mean, sd := meanStd(samples)
	if sd == 0 || !finite(mean) || !finite(sd) {
		return out
	}
	expected := Range{Low: mean - d.rangeSigma*sd, High: mean + d.rangeSigma*sd}

	start := len(samples) - d.window
	if start < 0 {
		start = 0
	}
	for _, s := range samples[start:] {
		dev := math.Abs(s.Temperature - mean)
		if !(dev > d.flagSigma*sd) {
			continue
		}
		sev := SeverityMedium
		if dev > d.escalateSigma*sd {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Type:          AnomalyTypeTemperature,
			FurnaceID:     s.FurnaceID,
			Timestamp:     s.Timestamp,
			Value:         s.Temperature,
			ExpectedRange: expected,
			Severity:      sev,
		})
	}
	return out
}

func meanStd(samples []Sample) (mean, sd float64) {
	n := float64(len(samples))
	for _, s := range samples {
		mean += s.Temperature
	}
	mean /= n
	var ss float64
	for _, s := range samples {
		diff := s.Temperature - mean
		ss += diff * diff
	}
	return mean, math.Sqrt(ss / n)
}

// Trend classifies the last five quality scores: fewer than three distinct
// values is "stable", anything else "variable".
func Trend(scores []float64) string {
	if len(scores) > trendWindow {
		scores = scores[len(scores)-trendWindow:]
	}
	distinct := make(map[float64]struct{}, len(scores))
	for _, v := range scores {
		distinct[v] = struct{}{}
	}
	if len(distinct) < trendDistinctStable {
		return TrendStable
	}
	return TrendVariable
}
