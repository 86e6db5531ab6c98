package alloy

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// referenceFile is the on-disk YAML layout:
//
//	grades:
//	  - code: 316L
//	    bands:
//	      Cr: {min: 16, max: 18}
//	materials:
//	  - name: FeCr 65%
//	    composition: {Cr: 65, Fe: 35}
type referenceFile struct {
	Grades    []GradeSpec `yaml:"grades"`
	Materials []Material  `yaml:"materials"`
}

// LoadReference reads grade and material tables from a YAML file. An empty
// path yields DefaultReference.
func LoadReference(path string) (Reference, error) {
	if path == "" {
		return DefaultReference(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Reference{}, fmt.Errorf("open reference data %s: %w", path, err)
	}
	defer f.Close()
	ref, err := DecodeReference(f)
	if err != nil {
		return Reference{}, fmt.Errorf("reference data %s: %w", path, err)
	}
	return ref, nil
}

// DecodeReference parses and validates YAML reference data.
func DecodeReference(r io.Reader) (Reference, error) {
	var rf referenceFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return Reference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	ref := Reference{
		Grades:    make(map[string]GradeSpec, len(rf.Grades)),
		Materials: make(Catalog, 0, len(rf.Materials)),
	}
	for _, g := range rf.Grades {
		if _, dup := ref.Grades[g.Code]; dup {
			return Reference{}, fmt.Errorf("%w: duplicate grade %q", ErrInvalidReference, g.Code)
		}
		ref.Grades[g.Code] = g
	}
	ref.Materials = append(ref.Materials, rf.Materials...)
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// EncodeReference writes ref in the same layout LoadReference reads, grades
// sorted by code.
func EncodeReference(ref Reference) ([]byte, error) {
	rf := referenceFile{Materials: ref.Materials}
	for _, code := range ref.GradeCodes() {
		rf.Grades = append(rf.Grades, ref.Grades[code])
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
