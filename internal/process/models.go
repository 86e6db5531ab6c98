package process

import (
	"time"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/analysis"
)

// Material types for inventory rows.
const (
	MaterialRaw      = "raw"
	MaterialAlloy    = "alloy"
	MaterialAdditive = "additive"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlloyComposition is a named reference or production composition.
type AlloyComposition struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Grade      string             `json:"grade"`
	Elements   alloy.Composition  `json:"elements"`
	Properties map[string]float64 `json:"properties,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ProcessData is one furnace reading with the melt composition at that time.
type ProcessData struct {
	ID           string            `json:"id"`
	FurnaceID    string            `json:"furnace_id"`
	Temperature  float64           `json:"temperature"`
	Pressure     float64           `json:"pressure"`
	OxygenLevel  float64           `json:"oxygen_level"`
	Composition  alloy.Composition `json:"composition"`
	RecordedAt   time.Time         `json:"timestamp"`
	QualityScore *float64          `json:"quality_score,omitempty"`
}

// Sample projects the reading onto the detector's input.
func (p ProcessData) Sample() analysis.Sample {
	return analysis.Sample{
		FurnaceID:    p.FurnaceID,
		Timestamp:    p.RecordedAt,
		Temperature:  p.Temperature,
		QualityScore: p.QualityScore,
	}
}

// Samples converts a slice of readings, preserving order.
func Samples(rows []ProcessData) []analysis.Sample {
	out := make([]analysis.Sample, len(rows))
	for i, r := range rows {
		out[i] = r.Sample()
	}
	return out
}

type InventoryItem struct {
	ID           string    `json:"id"`
	MaterialName string    `json:"material_name"`
	MaterialType string    `json:"material_type"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	Supplier     string    `json:"supplier"`
	QualityGrade string    `json:"quality_grade"`
	UpdatedAt    time.Time `json:"last_updated"`
}

type Alert struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity"`
	Source     string     `json:"source"`
	Resolved   bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func validMaterialType(t string) bool {
	switch t {
	case MaterialRaw, MaterialAlloy, MaterialAdditive:
		return true
	}
	return false
}

func validSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
