package alloy

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposition_GetDefaultsToZero(t *testing.T) {
	c := Composition{"Cr": 18.2}
	assert.Equal(t, 18.2, c.Get("Cr"))
	assert.Equal(t, 0.0, c.Get("Ni"))
	assert.False(t, c.Has("Ni"))
}

func TestComposition_Elements_Sorted(t *testing.T) {
	c := Composition{"Ni": 8, "Cr": 18, "Fe": 70}
	assert.Equal(t, []string{"Cr", "Fe", "Ni"}, c.Elements())
}

func TestComposition_Validate(t *testing.T) {
	cases := []struct {
		name string
		c    Composition
		ok   bool
	}{
		{"typical 316L", Composition{"Fe": 68.5, "Cr": 17.2, "Ni": 10.1, "Mo": 2.1, "Mn": 1.8, "Si": 0.3}, true},
		{"exactly 100", Composition{"Fe": 25, "Si": 75}, true},
		{"empty", Composition{}, true},
		{"negative", Composition{"Cr": -1}, false},
		{"over 100", Composition{"Fe": 80, "Cr": 30}, false},
		{"nan", Composition{"Cr": math.NaN()}, false},
		{"inf", Composition{"Cr": math.Inf(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidComposition)
			}
		})
	}
}

func TestComposition_CloneIsIndependent(t *testing.T) {
	c := Composition{"Cr": 18}
	cp := c.Clone()
	cp["Cr"] = 1
	assert.Equal(t, 18.0, c["Cr"])
	assert.Nil(t, Composition(nil).Clone())
}

func TestDefaultReference_Valid(t *testing.T) {
	ref := DefaultReference()
	require.NoError(t, ref.Validate())
	assert.Equal(t, []string{"304", "316L"}, ref.GradeCodes())
	require.Len(t, ref.Materials, 6)
	assert.Equal(t, "FeSi 75%", ref.Materials[0].Name)

	m, ok := ref.Materials.Find("FeCr 65%")
	require.True(t, ok)
	assert.Equal(t, 65.0, m.Composition.Get("Cr"))
}

func TestDefaultReference_FreshCopies(t *testing.T) {
	a := DefaultReference()
	a.Grades["X"] = GradeSpec{Code: "X"}
	b := DefaultReference()
	_, ok := b.Grade("X")
	assert.False(t, ok)
}

func TestGradeSpec_ValidateRejectsInvertedBand(t *testing.T) {
	g := GradeSpec{Code: "bad", Bands: map[string]Band{"Cr": {Min: 20, Max: 10}}}
	assert.ErrorIs(t, g.Validate(), ErrInvalidReference)
}

func TestDecodeReference(t *testing.T) {
	src := `
grades:
  - code: "2205"
    bands:
      Cr: {min: 21, max: 23}
      Ni: {min: 4.5, max: 6.5}
materials:
  - name: FeCr 65%
    composition: {Cr: 65, Fe: 35}
`
	ref, err := DecodeReference(strings.NewReader(src))
	require.NoError(t, err)
	g, ok := ref.Grade("2205")
	require.True(t, ok)
	assert.Equal(t, Band{Min: 21, Max: 23}, g.Bands["Cr"])
	require.Len(t, ref.Materials, 1)
	assert.Equal(t, 35.0, ref.Materials[0].Composition.Get("Fe"))
}

func TestDecodeReference_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown field": "grades: []\nfoo: 1\n",
		"inverted band": "grades:\n  - code: g\n    bands:\n      Cr: {min: 5, max: 1}\n",
		"duplicate grade": "grades:\n  - code: g\n  - code: g\n",
		"material over 100": "materials:\n  - name: m\n    composition: {Cr: 80, Fe: 30}\n",
		"duplicate material": "materials:\n  - name: m\n  - name: m\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeReference(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestLoadReference_EmptyPathUsesDefaults(t *testing.T) {
	ref, err := LoadReference("")
	require.NoError(t, err)
	assert.Equal(t, DefaultReference(), ref)
}

func TestEncodeReference_RoundTripsThroughFile(t *testing.T) {
	data, err := EncodeReference(DefaultReference())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ref, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultReference(), ref)
}

func TestLoadReference_MissingFile(t *testing.T) {
	_, err := LoadReference(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
