package alloy

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidComposition = errors.New("invalid composition")

// sumSlack absorbs float rounding when a composition is meant to total exactly 100.
const sumSlack = 1e-9

// Composition maps an element symbol ("Fe", "Cr") to a weight percentage.
type Composition map[string]float64

// Get returns the percentage for el, or 0 when the element is absent.
func (c Composition) Get(el string) float64 {
	return c[el]
}

func (c Composition) Has(el string) bool {
	_, ok := c[el]
	return ok
}

// Elements returns the element symbols in ascending order.
func (c Composition) Elements() []string {
	out := make([]string, 0, len(c))
	for el := range c {
		out = append(out, el)
	}
	sort.Strings(out)
	return out
}

func (c Composition) Sum() float64 {
	total := 0.0
	for _, v := range c {
		total += v
	}
	return total
}

func (c Composition) Clone() Composition {
	if c == nil {
		return nil
	}
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Validate rejects non-finite or negative values and totals above 100%.
func (c Composition) Validate() error {
	for _, el := range c.Elements() {
		v := c[el]
		if el == "" {
			return fmt.Errorf("%w: empty element symbol", ErrInvalidComposition)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidComposition, el)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%.4f)", ErrInvalidComposition, el, v)
		}
	}
	if s := c.Sum(); s > 100+sumSlack {
		return fmt.Errorf("%w: total %.4f exceeds 100%%", ErrInvalidComposition, s)
	}
	return nil
}
