package mutation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MonosaccharideColumn is the CSV header holding monosaccharide names
const MonosaccharideColumn = "Monosaccharide"

// ErrEmptyVocabulary is returned when a mutation vocabulary has no entries
var ErrEmptyVocabulary = errors.New("mutation vocabulary is empty")

// DefaultLinkages lists the 34 glycosidic bond codes drawn for odd positions
var DefaultLinkages = []string{
	"a1-1", "a1-2", "a1-3", "a1-4", "a1-5", "a1-6", "a1-7", "a1-8",
	"a2-1", "a2-2", "a2-3", "a2-4", "a2-5", "a2-6", "a2-7", "a2-8",
	"a2-9", "b1-1", "b1-2", "b1-3", "b1-4", "b1-5", "b1-6", "b1-7",
	"b1-8", "b1-9", "b2-1", "b2-2", "b2-3", "b2-4", "b2-5", "b2-6",
	"b2-7", "b2-8",
}

// Vocabulary holds the replacement pools used by the sampler. It is
// read-only once constructed.
type Vocabulary struct {
	monosaccharides []string
	linkages        []string
}

// NewVocabulary copies both pools and rejects empty ones
func NewVocabulary(monosaccharides, linkages []string) (*Vocabulary, error) {
	if len(monosaccharides) == 0 {
		return nil, fmt.Errorf("no monosaccharides: %w", ErrEmptyVocabulary)
	}
	if len(linkages) == 0 {
		return nil, fmt.Errorf("no linkages: %w", ErrEmptyVocabulary)
	}

	return &Vocabulary{
		monosaccharides: append([]string(nil), monosaccharides...),
		linkages:        append([]string(nil), linkages...),
	}, nil
}

func (v *Vocabulary) Monosaccharides() []string {
	return append([]string(nil), v.monosaccharides...)
}

func (v *Vocabulary) Linkages() []string {
	return append([]string(nil), v.linkages...)
}

// LoadMonosaccharides reads the Monosaccharide column of a CSV file
func LoadMonosaccharides(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open monosaccharide table: %w", err)
	}
	defer file.Close()

	names, err := ReadMonosaccharides(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return names, nil
}

// ReadMonosaccharides reads the Monosaccharide column from CSV data with a
// header row. Empty cells are skipped.
func ReadMonosaccharides(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	column := -1
	for i, name := range header {
		if strings.TrimSpace(name) == MonosaccharideColumn {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, fmt.Errorf("column %q not found", MonosaccharideColumn)
	}

	var names []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if column >= len(record) {
			continue
		}
		if name := record[column]; name != "" {
			names = append(names, name)
		}
	}

	return names, nil
}
