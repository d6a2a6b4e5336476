// Package catalogue loads the enumerated requisition options from a YAML file.
package catalogue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"requisitions/internal/domain/requisition"
)

// SupportedVersion is the only file format version Load accepts.
const SupportedVersion = 1

var (
	ErrUnsupportedVersion = errors.New("catalogue: unsupported version")
	ErrInvalidFile        = errors.New("catalogue: invalid file")
)

type catalogueFile struct {
	Version      int      `yaml:"version"`
	Departments  []string `yaml:"departments"`
	Employees    []string `yaml:"employees"`
	Requirements []string `yaml:"requirements"`
	Categories   []string `yaml:"categories"`
}

// Load reads a catalogue file. An empty path yields the built-in catalogue.
// PRE: path is empty or names a readable YAML file
// POST: returns a catalogue whose four option lists are non-empty and duplicate-free
func Load(path string) (requisition.Catalogue, error) {
	if path == "" {
		return requisition.DefaultCatalogue(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return requisition.Catalogue{}, fmt.Errorf("catalogue: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes catalogue YAML. Unknown keys are rejected.
func Parse(b []byte) (requisition.Catalogue, error) {
	var f catalogueFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return requisition.Catalogue{}, fmt.Errorf("%w: empty document", ErrInvalidFile)
		}
		return requisition.Catalogue{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if f.Version != SupportedVersion {
		return requisition.Catalogue{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	c, err := requisition.NewCatalogue(f.Departments, f.Employees, f.Requirements, f.Categories)
	if err != nil {
		return requisition.Catalogue{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return c, nil
}

// Marshal renders a catalogue in the file format Load reads.
func Marshal(c requisition.Catalogue) ([]byte, error) {
	return yaml.Marshal(catalogueFile{
		Version:      SupportedVersion,
		Departments:  c.Departments(),
		Employees:    c.Employees(),
		Requirements: c.Requirements(),
		Categories:   c.Categories(),
	})
}
