package library

import (
	"errors"
	"strings"

	"glycomotif/internal/service/tokenizer"
)

// ValidationResult reports whether a sequence can be encoded by a library
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonEmpty   = "Sequence is empty."
	ReasonShort   = "Too short or invalid glycan structure."
	ReasonUnknown = "Unknown glycowords in the sequence."
)

// Validate checks that sequence has glycowords and that all of them are known
func (l *Library) Validate(sequence string) ValidationResult {
	if sequence == "" {
		return ValidationResult{Reason: ReasonEmpty}
	}

	words := tokenizer.Windows(tokenizer.Tokenize(sequence))
	if len(words) == 0 {
		return ValidationResult{Reason: ReasonShort}
	}

	if _, err := l.Encode(words); err != nil {
		if errors.Is(err, ErrUnknownGlycoword) {
			return ValidationResult{Reason: ReasonUnknown}
		}
		return ValidationResult{Reason: err.Error()}
	}

	return ValidationResult{Valid: true}
}

type knownMotif struct {
	pattern string
	name    string
}

var knownMotifs = []knownMotif{
	{"Gal(a1-3)Gal", "AlphaGal"},
	{"Neu5Gc", "NonHumanSialicAcid"},
	{"Man(b1-4)GlcNAc(b1-4)", "ComplexNGlycan"},
}

// DetectKnownMotifs returns the names of immunologically notable motifs that
// occur verbatim in sequence
func DetectKnownMotifs(sequence string) []string {
	detected := []string{}
	for _, m := range knownMotifs {
		if strings.Contains(sequence, m.pattern) {
			detected = append(detected, m.name)
		}
	}
	return detected
}
