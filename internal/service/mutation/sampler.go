package mutation

import (
	"math/rand/v2"
	"sync"

	"glycomotif/internal/model/glycoword"
	"glycomotif/internal/service/tokenizer"
)

// Sample is one tokenization of a glycan, mutated or not
type Sample struct {
	Label  string
	Motifs []glycoword.Glycoword
}

// AggregateResult holds the frequency table over the wild-type and every
// mutated sample, plus their labels with the wild-type first
type AggregateResult struct {
	Frequencies *FrequencyTable
	Labels      []string
	WildType    Sample
}

// Sampler performs random point mutations on token sequences. Access to the
// generator is serialized so one Sampler can serve concurrent requests.
type Sampler struct {
	vocab *Vocabulary
	rng   *rand.Rand
	mu    sync.Mutex
}

// NewRand returns a generator seeded with seed, or with a random seed when
// seed is zero
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSampler draws replacements from vocab, which must hold at least one
// monosaccharide and one linkage. A nil rng gets a randomly seeded generator.
func NewSampler(vocab *Vocabulary, rng *rand.Rand) (*Sampler, error) {
	if vocab == nil || len(vocab.monosaccharides) == 0 || len(vocab.linkages) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Sampler{
		vocab: vocab,
		rng:   rng,
	}, nil
}

// WildType returns the unmutated sample of a token sequence
func (s *Sampler) WildType(tokens glycoword.TokenSequence) Sample {
	return Sample{
		Label:  tokens.Label(),
		Motifs: tokenizer.Windows(tokens),
	}
}

// Mutate copies tokens and overwrites nMut uniformly chosen positions, with
// replacement across draws. Even positions receive a monosaccharide and odd
// positions a linkage. nMut <= 0 leaves the copy untouched.
func (s *Sampler) Mutate(tokens glycoword.TokenSequence, nMut int) Sample {
	mutated := tokens.Clone()
	if len(mutated) > 0 && nMut > 0 {
		s.mu.Lock()
		for range nMut {
			idx := s.rng.IntN(len(mutated))
			if glycoword.IsMonosaccharidePosition(idx) {
				mutated[idx] = s.vocab.monosaccharides[s.rng.IntN(len(s.vocab.monosaccharides))]
			} else {
				mutated[idx] = s.vocab.linkages[s.rng.IntN(len(s.vocab.linkages))]
			}
		}
		s.mu.Unlock()
	}
	return s.WildType(mutated)
}

// Aggregate counts the glycowords of the wild-type tokenization of glycan
// plus nSamples independently mutated copies. The wild-type is counted exactly
// once. Non-positive nSamples produces the wild-type alone.
func (s *Sampler) Aggregate(glycan string, nMut, nSamples int) *AggregateResult {
	tokens := tokenizer.Tokenize(glycan)
	wildType := s.WildType(tokens)

	if nSamples < 0 {
		nSamples = 0
	}

	frequencies := NewFrequencyTable()
	frequencies.Add(wildType.Motifs...)

	labels := make([]string, 0, nSamples+1)
	labels = append(labels, wildType.Label)

	for range nSamples {
		sample := s.Mutate(tokens, nMut)
		frequencies.Add(sample.Motifs...)
		labels = append(labels, sample.Label)
	}

	return &AggregateResult{
		Frequencies: frequencies,
		Labels:      labels,
		WildType:    wildType,
	}
}
