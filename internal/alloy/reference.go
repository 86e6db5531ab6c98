package alloy

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidReference = errors.New("invalid reference data")

// Band is the acceptable [Min, Max] percentage range for one element.
type Band struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (b Band) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

func (b Band) Center() float64 { return (b.Min + b.Max) / 2 }

// GradeSpec is a named alloy grade with its per-element tolerance bands.
type GradeSpec struct {
	Code  string          `yaml:"code" json:"code"`
	Bands map[string]Band `yaml:"bands" json:"bands"`
}

// Elements returns the grade's element symbols in ascending order.
func (g GradeSpec) Elements() []string {
	out := make([]string, 0, len(g.Bands))
	for el := range g.Bands {
		out = append(out, el)
	}
	sort.Strings(out)
	return out
}

func (g GradeSpec) Validate() error {
	if g.Code == "" {
		return fmt.Errorf("%w: grade without code", ErrInvalidReference)
	}
	for el, b := range g.Bands {
		if b.Min > b.Max {
			return fmt.Errorf("%w: grade %s element %s has min %.4f > max %.4f",
				ErrInvalidReference, g.Code, el, b.Min, b.Max)
		}
	}
	return nil
}

// Material is an addition material (ferroalloy, pure metal) and its own makeup.
type Material struct {
	Name        string      `yaml:"name" json:"name"`
	Composition Composition `yaml:"composition" json:"composition"`
}

// Catalog is ordered; recommendation scans follow declaration order.
type Catalog []Material

func (c Catalog) Find(name string) (Material, bool) {
	for _, m := range c {
		if m.Name == name {
			return m, true
		}
	}
	return Material{}, false
}

// Reference bundles the grade table and the material catalog. Treat it as
// read-only once built; calculators share it across goroutines.
type Reference struct {
	Grades    map[string]GradeSpec
	Materials Catalog
}

func (r Reference) Grade(code string) (GradeSpec, bool) {
	g, ok := r.Grades[code]
	return g, ok
}

// GradeCodes returns known grade codes in ascending order.
func (r Reference) GradeCodes() []string {
	out := make([]string, 0, len(r.Grades))
	for code := range r.Grades {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (r Reference) Validate() error {
	for code, g := range r.Grades {
		if g.Code != code {
			return fmt.Errorf("%w: grade key %q holds grade %q", ErrInvalidReference, code, g.Code)
		}
		if err := g.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(r.Materials))
	for _, m := range r.Materials {
		if m.Name == "" {
			return fmt.Errorf("%w: material without name", ErrInvalidReference)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: duplicate material %q", ErrInvalidReference, m.Name)
		}
		seen[m.Name] = struct{}{}
		if err := m.Composition.Validate(); err != nil {
			return fmt.Errorf("%w: material %q: %v", ErrInvalidReference, m.Name, err)
		}
	}
	return nil
}

// DefaultReference returns the built-in stainless grades and addition catalog.
// Each call builds fresh maps so callers may extend their copy.
func DefaultReference() Reference {
	return Reference{
		Grades: map[string]GradeSpec{
			"316L": {Code: "316L", Bands: map[string]Band{
				"Fe": {65, 72}, "Cr": {16, 18}, "Ni": {10, 14},
				"Mo": {2, 3}, "Mn": {0, 2}, "Si": {0, 1},
			}},
			"304": {Code: "304", Bands: map[string]Band{
				"Fe": {66, 74}, "Cr": {18, 20}, "Ni": {8, 10.5},
				"Mn": {0, 2}, "Si": {0, 1}, "C": {0, 0.08},
			}},
		},
		Materials: Catalog{
			{Name: "FeSi 75%", Composition: Composition{"Si": 75.0, "Fe": 25.0}},
			{Name: "FeCr 65%", Composition: Composition{"Cr": 65.0, "Fe": 35.0}},
			{Name: "Ni Metal", Composition: Composition{"Ni": 99.5, "Fe": 0.5}},
			{Name: "FeMo 60%", Composition: Composition{"Mo": 60.0, "Fe": 40.0}},
			{Name: "Mn Metal", Composition: Composition{"Mn": 99.0, "Fe": 1.0}},
			{Name: "SiMn 65/15", Composition: Composition{"Mn": 65.0, "Si": 15.0, "Fe": 20.0}},
		},
	}
}
