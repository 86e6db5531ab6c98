package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/process"
)

const (
	ProcessRows = 50
	DefaultSeed = 42
)

var furnaces = []string{"F001", "F002", "F003"}

var compositions = []process.AlloyComposition{
	{
		Name:       "Stainless Steel 316L",
		Grade:      "316L",
		Elements:   alloy.Composition{"Fe": 68.5, "Cr": 17.2, "Ni": 10.1, "Mo": 2.1, "Mn": 1.8, "Si": 0.3},
		Properties: map[string]float64{"tensile_strength": 515, "yield_strength": 205, "elongation": 40},
	},
	{
		Name:       "Stainless Steel 304",
		Grade:      "304",
		Elements:   alloy.Composition{"Fe": 70.0, "Cr": 18.0, "Ni": 8.5, "Mn": 2.0, "Si": 1.0, "C": 0.5},
		Properties: map[string]float64{"tensile_strength": 505, "yield_strength": 215, "elongation": 40},
	},
	{
		Name:       "Carbon Steel AISI 1045",
		Grade:      "1045",
		Elements:   alloy.Composition{"Fe": 98.47, "C": 0.45, "Mn": 0.75, "Si": 0.25, "P": 0.03, "S": 0.05},
		Properties: map[string]float64{"tensile_strength": 625, "yield_strength": 375, "elongation": 16},
	},
}

var materials = []struct{ name, typ, unit string }{
	{"Iron Ore", process.MaterialRaw, "tons"},
	{"Chromium", process.MaterialAlloy, "kg"},
	{"Nickel", process.MaterialAlloy, "kg"},
	{"Molybdenum", process.MaterialAlloy, "kg"},
	{"Silicon", process.MaterialAdditive, "kg"},
	{"Manganese", process.MaterialAdditive, "kg"},
}

var alerts = []process.Alert{
	{Title: "Temperature Deviation", Message: "Furnace temperature exceeded optimal range", Severity: process.SeverityHigh, Source: "F001"},
	{Title: "Low Inventory Warning", Message: "Chromium inventory below threshold", Severity: process.SeverityMedium, Source: "inventory"},
	{Title: "Quality Control Alert", Message: "Composition deviation detected", Severity: process.SeverityCritical, Source: "quality_control"},
}

var qualityGrades = []string{"A", "B", "Premium"}

// Summary counts what Run inserted.
type Summary struct {
	Compositions int `json:"compositions"`
	ProcessData  int `json:"process_data"`
	Inventory    int `json:"inventory"`
	Alerts       int `json:"alerts"`
}

// NewRand returns the deterministic source Run expects.
func NewRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func uniform(r *rand.Rand, lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }

// Run populates s with demo data: reference compositions, a day of furnace
// readings, stock levels and open alerts. Compositions and inventory are
// matched by name, so repeated runs only add readings and alerts.
func Run(ctx context.Context, s process.Store, r *rand.Rand, now time.Time) (Summary, error) {
	var sum Summary

	existing, err := s.ListCompositions(ctx, process.CompositionListOpts{Limit: process.MaxListLimit})
	if err != nil {
		return sum, err
	}
	names := map[string]bool{}
	for _, c := range existing {
		names[c.Name] = true
	}
	for _, c := range compositions {
		if names[c.Name] {
			continue
		}
		c.Elements = c.Elements.Clone()
		if _, err := s.PutComposition(ctx, c); err != nil {
			return sum, fmt.Errorf("composition %s: %w", c.Name, err)
		}
		sum.Compositions++
	}

	rows := make([]process.ProcessData, 0, ProcessRows)
	for i := 0; i < ProcessRows; i++ {
		cr := uniform(r, 16, 20)
		ni := uniform(r, 8, 12)
		mo := uniform(r, 1.5, 2.5)
		// keep the melt at or under 100%
		fe := uniform(r, 65, min(75, 100-cr-ni-mo))
		q := uniform(r, 85, 98)
		rows = append(rows, process.ProcessData{
			FurnaceID:    furnaces[r.IntN(len(furnaces))],
			Temperature:  uniform(r, 1450, 1650),
			Pressure:     uniform(r, 0.8, 1.2),
			OxygenLevel:  uniform(r, 0.01, 0.05),
			Composition:  alloy.Composition{"Fe": fe, "Cr": cr, "Ni": ni, "Mo": mo},
			RecordedAt:   now.Add(-time.Duration(r.Float64() * float64(24*time.Hour))),
			QualityScore: &q,
		})
	}
	if _, err := s.AddProcessDataBatch(ctx, rows); err != nil {
		return sum, fmt.Errorf("process data: %w", err)
	}
	sum.ProcessData = len(rows)

	stock, err := s.ListInventory(ctx)
	if err != nil {
		return sum, err
	}
	have := map[string]bool{}
	for _, it := range stock {
		have[it.MaterialName] = true
	}
	for _, m := range materials {
		if have[m.name] {
			continue
		}
		_, err := s.PutInventory(ctx, process.InventoryItem{
			MaterialName: m.name,
			MaterialType: m.typ,
			Quantity:     uniform(r, 50, 500),
			Unit:         m.unit,
			Supplier:     fmt.Sprintf("Supplier %d", 1+r.IntN(5)),
			QualityGrade: qualityGrades[r.IntN(len(qualityGrades))],
		})
		if err != nil {
			return sum, fmt.Errorf("inventory %s: %w", m.name, err)
		}
		sum.Inventory++
	}

	for _, a := range alerts {
		if _, err := s.CreateAlert(ctx, a); err != nil {
			return sum, fmt.Errorf("alert %s: %w", a.Title, err)
		}
		sum.Alerts++
	}
	return sum, nil
}
