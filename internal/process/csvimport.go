package process

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
)

// MaxImportRows bounds a single CSV import.
const MaxImportRows = 10000

// ParseCSV reads furnace readings from a CSV with a header row.
//
// Recognized columns: furnace_id and temperature (required), timestamp
// (RFC 3339), pressure, oxygen_level, quality_score. Any other column
// named like an element symbol ("Cr", "Ni") is read as a composition
// percentage. Empty cells are skipped.
func ParseCSV(r io.Reader) ([]ProcessData, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalid("empty csv")
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cols := map[string]int{}
	elements := map[int]string{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch k := strings.ToLower(h); k {
		case "furnace_id", "temperature", "timestamp", "pressure", "oxygen_level", "quality_score":
			cols[k] = i
		default:
			if !isElementSymbol(h) {
				return nil, invalid("unknown column %q", h)
			}
			elements[i] = h
		}
	}
	for _, req := range []string{"furnace_id", "temperature"} {
		if _, ok := cols[req]; !ok {
			return nil, invalid("missing column %q", req)
		}
	}

	out := []ProcessData{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if len(out) == MaxImportRows {
			return nil, invalid("more than %d rows", MaxImportRows)
		}
		p, err := parseRow(rec, cols, elements)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseRow(rec []string, cols map[string]int, elements map[int]string) (ProcessData, error) {
	cell := func(name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	num := func(name string) (float64, bool, error) {
		s := cell(name)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, invalid("%s %q", name, s)
		}
		return v, true, nil
	}

	p := ProcessData{FurnaceID: cell("furnace_id"), Composition: alloy.Composition{}}
	var ok bool
	var err error
	if p.Temperature, ok, err = num("temperature"); err != nil {
		return p, err
	} else if !ok {
		return p, invalid("temperature is required")
	}
	if p.Pressure, _, err = num("pressure"); err != nil {
		return p, err
	}
	if p.OxygenLevel, _, err = num("oxygen_level"); err != nil {
		return p, err
	}
	if q, ok, err := num("quality_score"); err != nil {
		return p, err
	} else if ok {
		p.QualityScore = &q
	}
	if ts := cell("timestamp"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return p, invalid("timestamp %q", ts)
		}
		p.RecordedAt = t
	}
	for i, el := range elements {
		if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return p, invalid("%s %q", el, rec[i])
		}
		p.Composition[el] = v
	}
	return p, nil
}

// isElementSymbol accepts one uppercase letter optionally followed by up
// to two lowercase letters.
func isElementSymbol(s string) bool {
	r := []rune(s)
	if len(r) == 0 || len(r) > 3 || !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if !unicode.IsLower(c) {
			return false
		}
	}
	return true
}
