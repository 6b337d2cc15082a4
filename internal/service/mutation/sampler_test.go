package mutation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"

	"glycomotif/internal/model/glycoword"
	"glycomotif/internal/service/tokenizer"
)

const testGlycan = "Gal(b1-4)Glc(a1-2)Man(b1-3)Fuc(a1-6)GalNAc"

func newTestSampler(t *testing.T, seed uint64) *Sampler {
	t.Helper()
	vocab, err := NewVocabulary([]string{"Glc", "Gal", "Man", "Fuc", "Neu5Ac"}, DefaultLinkages)
	if err != nil {
		t.Fatalf("Failed to create vocabulary: %v", err)
	}
	sampler, err := NewSampler(vocab, NewRand(seed))
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}
	return sampler
}

func TestNewSampler_RequiresVocabulary(t *testing.T) {
	if _, err := NewSampler(nil, NewRand(1)); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("Expected ErrEmptyVocabulary for nil vocabulary, got %v", err)
	}
	if _, err := NewSampler(&Vocabulary{}, NewRand(1)); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("Expected ErrEmptyVocabulary for zero vocabulary, got %v", err)
	}
}

func TestDefaultLinkages_Count(t *testing.T) {
	if len(DefaultLinkages) != 34 {
		t.Fatalf("Expected 34 linkage codes, got %d", len(DefaultLinkages))
	}
}

func TestNewVocabulary_RejectsEmpty(t *testing.T) {
	if _, err := NewVocabulary(nil, DefaultLinkages); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("Expected ErrEmptyVocabulary for empty monosaccharides, got %v", err)
	}
	if _, err := NewVocabulary([]string{"Gal"}, nil); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("Expected ErrEmptyVocabulary for empty linkages, got %v", err)
	}
}

func TestReadMonosaccharides(t *testing.T) {
	data := "Count,Monosaccharide\n12,Gal\n3,\n7,GlcNAc\n"
	names, err := ReadMonosaccharides(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to read monosaccharides: %v", err)
	}

	expected := []string{"Gal", "GlcNAc"}
	if !reflect.DeepEqual(names, expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
}

func TestReadMonosaccharides_MissingColumn(t *testing.T) {
	_, err := ReadMonosaccharides(strings.NewReader("Name,Count\nGal,1\n"))
	if err == nil {
		t.Fatal("Expected error for missing Monosaccharide column, got nil")
	}
}

func TestLoadMonosaccharides_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monosaccharides_counts.csv")
	if err := os.WriteFile(path, []byte("Monosaccharide,Count\nMan,4\nFuc,2\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	names, err := LoadMonosaccharides(path)
	if err != nil {
		t.Fatalf("Failed to load monosaccharides: %v", err)
	}
	if len(names) != 2 || names[0] != "Man" {
		t.Fatalf("Unexpected names: %v", names)
	}
}

func TestMutate_ZeroMutationsIsNoOp(t *testing.T) {
	sampler := newTestSampler(t, 7)
	tokens := tokenizer.Tokenize(testGlycan)

	sample := sampler.Mutate(tokens, 0)
	if sample.Label != tokens.Label() {
		t.Fatalf("Expected label %q, got %q", tokens.Label(), sample.Label)
	}
}

func TestMutate_RespectsPositionParity(t *testing.T) {
	sampler := newTestSampler(t, 42)
	tokens := tokenizer.Tokenize(testGlycan)
	monosaccharides := sampler.vocab.Monosaccharides()

	for range 200 {
		sample := sampler.Mutate(tokens, 3)
		mutated := strings.Split(sample.Label, glycoword.Separator)
		if len(mutated) != len(tokens) {
			t.Fatalf("Mutation changed sequence length: %d vs %d", len(mutated), len(tokens))
		}

		for i, token := range mutated {
			if token == tokens[i] {
				continue
			}
			if i%2 == 0 && !slices.Contains(monosaccharides, token) {
				t.Fatalf("Position %d received non-monosaccharide %q", i, token)
			}
			if i%2 == 1 && !slices.Contains(DefaultLinkages, token) {
				t.Fatalf("Position %d received non-linkage %q", i, token)
			}
		}
	}
}

func TestMutate_DoesNotModifyInput(t *testing.T) {
	sampler := newTestSampler(t, 3)
	tokens := tokenizer.Tokenize(testGlycan)
	original := tokens.Clone()

	sampler.Mutate(tokens, 10)
	if !reflect.DeepEqual(tokens, original) {
		t.Fatalf("Input tokens were modified: %v", tokens)
	}
}

func TestMutate_SeededIsReproducible(t *testing.T) {
	tokens := tokenizer.Tokenize(testGlycan)
	first := newTestSampler(t, 99)
	second := newTestSampler(t, 99)

	for range 20 {
		a := first.Mutate(tokens, 2)
		b := second.Mutate(tokens, 2)
		if a.Label != b.Label {
			t.Fatalf("Seeded samplers diverged: %q vs %q", a.Label, b.Label)
		}
	}
}

func TestAggregate_LabelsAndWildType(t *testing.T) {
	sampler := newTestSampler(t, 11)

	for _, n := range []int{0, 1, 5, 50} {
		result := sampler.Aggregate(testGlycan, 1, n)
		if len(result.Labels) != n+1 {
			t.Fatalf("n=%d: expected %d labels, got %d", n, n+1, len(result.Labels))
		}
		if result.Labels[0] != "Gal*b1-4*Glc*a1-2*Man*b1-3*Fuc*a1-6*GalNAc" {
			t.Fatalf("n=%d: first label is not the wild-type: %q", n, result.Labels[0])
		}
	}
}

func TestAggregate_CountsWildTypeOnce(t *testing.T) {
	sampler := newTestSampler(t, 5)

	result := sampler.Aggregate(testGlycan, 0, 0)
	if result.Frequencies.Len() != 3 || result.Frequencies.Total() != 3 {
		t.Fatalf("Expected 3 distinct glycowords counted once, got %v", result.Frequencies.Map())
	}

	result = sampler.Aggregate(testGlycan, 0, 4)
	for _, key := range result.Frequencies.Keys() {
		if count := result.Frequencies.Count(key); count != 5 {
			t.Fatalf("Expected %s counted 5 times, got %d", key, count)
		}
	}
}

func TestAggregate_TotalMatchesWindows(t *testing.T) {
	sampler := newTestSampler(t, 21)
	result := sampler.Aggregate(testGlycan, 2, 30)

	// Mutation never changes the token count, so every sample has 3 windows.
	if result.Frequencies.Total() != 3*31 {
		t.Fatalf("Expected %d counted glycowords, got %d", 3*31, result.Frequencies.Total())
	}
}

func TestAggregate_ShortGlycan(t *testing.T) {
	sampler := newTestSampler(t, 1)
	result := sampler.Aggregate("Gal(b1-4)Glc", 1, 10)

	if result.Frequencies.Len() != 0 {
		t.Fatalf("Expected empty frequency table, got %v", result.Frequencies.Map())
	}
	if len(result.Labels) != 11 || result.Labels[0] != "Gal*b1-4*Glc" {
		t.Fatalf("Unexpected labels: %v", result.Labels)
	}
}

func TestAggregate_NegativeSamples(t *testing.T) {
	sampler := newTestSampler(t, 1)
	result := sampler.Aggregate(testGlycan, 1, -3)

	if len(result.Labels) != 1 {
		t.Fatalf("Expected only the wild-type label, got %v", result.Labels)
	}
}

func TestSampler_ConcurrentUse(t *testing.T) {
	sampler := newTestSampler(t, 8)
	tokens := tokenizer.Tokenize(testGlycan)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				sampler.Mutate(tokens, 2)
			}
		}()
	}
	wg.Wait()
}

func TestFrequencyTable_Summary(t *testing.T) {
	table := NewFrequencyTable()
	table.Add(
		glycoword.Glycoword{"a", "b", "c", "d", "e"},
		glycoword.Glycoword{"f", "g", "h", "i", "j"},
	)

	summary := table.Summary()
	if summary.Distinct != 2 || summary.Total != 2 || summary.MaxCount != 1 {
		t.Fatalf("Unexpected summary: %+v", summary)
	}
	if math.Abs(summary.Entropy-math.Ln2) > 1e-9 {
		t.Fatalf("Expected entropy ln2, got %f", summary.Entropy)
	}
	if summary.MeanCount != 1 {
		t.Fatalf("Expected mean count 1, got %f", summary.MeanCount)
	}
}

func TestFrequencyTable_EmptySummary(t *testing.T) {
	summary := NewFrequencyTable().Summary()
	if summary != (Summary{}) {
		t.Fatalf("Expected zero summary, got %+v", summary)
	}
}
