package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glycomotif/internal/service/graph"
	"glycomotif/internal/service/library"
	"glycomotif/internal/service/mutation"
	"glycomotif/internal/service/profile"
	"glycomotif/internal/service/tokenizer"
)

var (
	ErrEmptySequence      = errors.New("no glycan sequence provided")
	ErrBoundsExceeded     = errors.New("sampling parameters exceed configured bounds")
	ErrLibraryUnavailable = errors.New("glycoword library not loaded")
	ErrGraphUnavailable   = errors.New("mutation graph not configured")
	ErrProfileUnavailable = errors.New("profile index not configured")
	ErrSequenceTooShort   = errors.New("glycan too short to form a glycoword")
)

// RunRecorder persists sampling runs
type RunRecorder interface {
	RecordRun(ctx context.Context, run graph.Run) error
	Neighbors(ctx context.Context, wildType string, limit int) ([]graph.Neighbor, error)
	Glycowords(ctx context.Context, sequence string) ([]graph.GlycowordOccurrence, error)
}

// ProfileSearcher stores and searches glycoword profiles
type ProfileSearcher interface {
	Index(ctx context.Context, label string, counts map[string]int) error
	Similar(ctx context.Context, counts map[string]int, limit int) ([]profile.Match, error)
}

// Limits caps the sampler parameters accepted per request. Zero disables a cap.
type Limits struct {
	MaxMutations int
	MaxSamples   int
}

type MutateParams struct {
	Sequence string
	NMut     int
	N        int
	Mode     string
}

type MutateResult struct {
	RunID     string
	Aggregate *mutation.AggregateResult
}

// Neighborhood is what the mutation graph holds for one wild-type label
type Neighborhood struct {
	Sequence   string
	Neighbors  []graph.Neighbor
	Glycowords []graph.GlycowordOccurrence
}

type Encoding struct {
	Glycowords []string
	Labels     []int
	Edges      [][2]int
}

// MotifService exposes the tokenizer, sampler and glycoword library to the
// HTTP and MCP surfaces. The library, recorder and profile index are optional.
type MotifService struct {
	sampler  *mutation.Sampler
	library  *library.Library
	recorder RunRecorder
	profiles ProfileSearcher
	limits   Limits
	logger   *zap.Logger
}

func NewMotifService(sampler *mutation.Sampler, lib *library.Library, recorder RunRecorder, profiles ProfileSearcher, limits Limits, logger *zap.Logger) *MotifService {
	return &MotifService{
		sampler:  sampler,
		library:  lib,
		recorder: recorder,
		profiles: profiles,
		limits:   limits,
		logger:   logger,
	}
}

func (ms *MotifService) FindMotifs(sequence string) []string {
	return tokenizer.FindMotifs(sequence)
}

func (ms *MotifService) SmallMotif(sequence string) string {
	return tokenizer.SmallMotif(sequence)
}

func (ms *MotifService) KnownMotifs(sequence string) []string {
	return library.DetectKnownMotifs(sequence)
}

// Mutate runs the aggregate sampler and, when configured, records the run in
// the mutation graph and indexes the wild-type profile. Store failures are
// logged and do not fail the request.
func (ms *MotifService) Mutate(ctx context.Context, params MutateParams) (*MutateResult, error) {
	if params.Sequence == "" {
		return nil, ErrEmptySequence
	}
	if ms.limits.MaxMutations > 0 && params.NMut > ms.limits.MaxMutations {
		return nil, fmt.Errorf("%w: n_mut %d > %d", ErrBoundsExceeded, params.NMut, ms.limits.MaxMutations)
	}
	if ms.limits.MaxSamples > 0 && params.N > ms.limits.MaxSamples {
		return nil, fmt.Errorf("%w: n %d > %d", ErrBoundsExceeded, params.N, ms.limits.MaxSamples)
	}

	runID := uuid.NewString()
	aggregate := ms.sampler.Aggregate(params.Sequence, params.NMut, params.N)

	ms.logger.Debug("Sampled mutated glycans",
		zap.String("run", runID),
		zap.Int("n_mut", params.NMut),
		zap.Int("n", params.N),
		zap.String("mode", params.Mode),
		zap.Int("distinct_glycowords", aggregate.Frequencies.Len()))

	wildTypeCounts := countWords(aggregate.WildType)

	if ms.recorder != nil {
		err := ms.recorder.RecordRun(ctx, graph.Run{
			ID:         runID,
			WildType:   aggregate.WildType.Label,
			Mutants:    aggregate.Labels[1:],
			Mutations:  params.NMut,
			Glycowords: wildTypeCounts,
		})
		if err != nil {
			ms.logger.Warn("Failed to record mutation run", zap.String("run", runID), zap.Error(err))
		}
	}

	if ms.profiles != nil && len(wildTypeCounts) > 0 {
		if err := ms.profiles.Index(ctx, aggregate.WildType.Label, wildTypeCounts); err != nil {
			ms.logger.Warn("Failed to index glycan profile", zap.String("run", runID), zap.Error(err))
		}
	}

	return &MutateResult{
		RunID:     runID,
		Aggregate: aggregate,
	}, nil
}

// Validate checks a sequence against the glycoword library
func (ms *MotifService) Validate(sequence string) (library.ValidationResult, error) {
	if ms.library == nil {
		return library.ValidationResult{}, ErrLibraryUnavailable
	}
	return ms.library.Validate(sequence), nil
}

// Encode labels the glycowords of a sequence and returns the chain edges
// linking them
func (ms *MotifService) Encode(sequence string) (*Encoding, error) {
	if ms.library == nil {
		return nil, ErrLibraryUnavailable
	}
	if sequence == "" {
		return nil, ErrEmptySequence
	}

	words := tokenizer.Windows(tokenizer.Tokenize(sequence))
	if len(words) == 0 {
		return nil, ErrSequenceTooShort
	}

	labels, err := ms.library.Encode(words)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(words))
	for i, w := range words {
		keys[i] = w.String()
	}

	return &Encoding{
		Glycowords: keys,
		Labels:     labels,
		Edges:      library.ChainEdges(len(labels)),
	}, nil
}

// Neighbors returns the recorded mutants of a sequence's wild-type label
// together with the glycoword occurrences recorded for it
func (ms *MotifService) Neighbors(ctx context.Context, sequence string, limit int) (*Neighborhood, error) {
	if ms.recorder == nil {
		return nil, ErrGraphUnavailable
	}
	if sequence == "" {
		return nil, ErrEmptySequence
	}

	label := tokenizer.SmallMotif(sequence)
	neighbors, err := ms.recorder.Neighbors(ctx, label, limit)
	if err != nil {
		return nil, err
	}
	words, err := ms.recorder.Glycowords(ctx, label)
	if err != nil {
		return nil, err
	}

	return &Neighborhood{
		Sequence:   label,
		Neighbors:  neighbors,
		Glycowords: words,
	}, nil
}

// Similar searches indexed glycans by the glycoword profile of sequence
func (ms *MotifService) Similar(ctx context.Context, sequence string, limit int) (string, []profile.Match, error) {
	if ms.profiles == nil {
		return "", nil, ErrProfileUnavailable
	}
	if sequence == "" {
		return "", nil, ErrEmptySequence
	}

	wildType := ms.sampler.WildType(tokenizer.Tokenize(sequence))
	counts := countWords(wildType)
	if len(counts) == 0 {
		return "", nil, ErrSequenceTooShort
	}

	matches, err := ms.profiles.Similar(ctx, counts, limit)
	if err != nil {
		return "", nil, err
	}
	return wildType.Label, matches, nil
}

func countWords(sample mutation.Sample) map[string]int {
	counts := make(map[string]int, len(sample.Motifs))
	for _, w := range sample.Motifs {
		counts[w.String()]++
	}
	return counts
}
