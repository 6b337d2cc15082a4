package library

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"glycomotif/internal/model/glycoword"
	"glycomotif/internal/service/tokenizer"
)

var (
	// ErrUnknownGlycoword is returned when a glycoword is absent from the library
	ErrUnknownGlycoword = errors.New("unknown glycoword")
)

// Library is the sorted set of glycowords observed in a labelled dataset.
// A glycoword's label is its index in the sorted order.
type Library struct {
	words  []glycoword.Glycoword
	index  map[string]int
	filter *bloom.BloomFilter
}

// NewLibrary sorts and de-duplicates words
func NewLibrary(words []glycoword.Glycoword) *Library {
	sorted := make([]glycoword.Glycoword, 0, len(words))
	for _, w := range words {
		sorted = append(sorted, append(glycoword.Glycoword(nil), w...))
	}
	slices.SortFunc(sorted, func(a, b glycoword.Glycoword) int {
		return slices.Compare(a, b)
	})
	sorted = slices.CompactFunc(sorted, func(a, b glycoword.Glycoword) bool {
		return slices.Equal(a, b)
	})

	// Size the filter for at least one item so an empty library still works
	filter := bloom.NewWithEstimates(uint(max(len(sorted), 1)), 0.01)
	index := make(map[string]int, len(sorted))
	for i, w := range sorted {
		key := w.String()
		index[key] = i
		filter.AddString(key)
	}

	return &Library{
		words:  sorted,
		index:  index,
		filter: filter,
	}
}

// Len returns the number of distinct glycowords
func (l *Library) Len() int {
	return len(l.words)
}

// Words returns the glycowords in label order
func (l *Library) Words() []glycoword.Glycoword {
	out := make([]glycoword.Glycoword, len(l.words))
	copy(out, l.words)
	return out
}

// Contains reports whether the library holds word
func (l *Library) Contains(word glycoword.Glycoword) bool {
	key := word.String()
	if !l.filter.TestString(key) {
		return false
	}
	_, ok := l.index[key]
	return ok
}

// Label returns the integer label of a glycoword
func (l *Library) Label(word glycoword.Glycoword) (int, error) {
	key := word.String()
	if !l.filter.TestString(key) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGlycoword, key)
	}
	label, ok := l.index[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGlycoword, key)
	}
	return label, nil
}

// Encode maps each glycoword to its label, failing on the first unknown one
func (l *Library) Encode(words []glycoword.Glycoword) ([]int, error) {
	labels := make([]int, len(words))
	for i, w := range words {
		label, err := l.Label(w)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

// ChainEdges returns the bidirectional edges linking n consecutive glycowords:
// every forward edge i->i+1 first, then every backward edge i+1->i
func ChainEdges(n int) [][2]int {
	if n < 2 {
		return [][2]int{}
	}
	edges := make([][2]int, 0, 2*(n-1))
	for i := 0; i < n-1; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	for i := 0; i < n-1; i++ {
		edges = append(edges, [2]int{i + 1, i})
	}
	return edges
}

// Save writes the library as a JSON array of token arrays
func (l *Library) Save(w io.Writer) error {
	words := l.words
	if words == nil {
		words = []glycoword.Glycoword{}
	}
	if err := json.NewEncoder(w).Encode(words); err != nil {
		return fmt.Errorf("failed to encode glycoword library: %w", err)
	}
	return nil
}

// SaveFile writes the library to path
func (l *Library) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create library file: %w", err)
	}
	if err := l.Save(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load reads a library written by Save
func Load(r io.Reader) (*Library, error) {
	var words []glycoword.Glycoword
	if err := json.NewDecoder(r).Decode(&words); err != nil {
		return nil, fmt.Errorf("failed to decode glycoword library: %w", err)
	}
	return NewLibrary(words), nil
}

// LoadFile reads a library from path
func LoadFile(path string) (*Library, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library file: %w", err)
	}
	defer file.Close()
	return Load(file)
}

// Build reads a dataset CSV with "glycan" and "label" columns and collects
// the glycowords of every row whose label parses as a number. Rows with an
// empty or non-numeric label are skipped.
func Build(r io.Reader) (*Library, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read dataset header: %w", err)
	}

	glycanCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "glycan":
			glycanCol = i
		case "label":
			labelCol = i
		}
	}
	if glycanCol < 0 || labelCol < 0 {
		return nil, 0, fmt.Errorf("dataset must have glycan and label columns")
	}

	var words []glycoword.Glycoword
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read dataset row: %w", err)
		}
		if glycanCol >= len(record) || labelCol >= len(record) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(record[labelCol]), 64); err != nil {
			continue
		}
		rows++
		words = append(words, tokenizer.Windows(tokenizer.Tokenize(record[glycanCol]))...)
	}

	return NewLibrary(words), rows, nil
}
