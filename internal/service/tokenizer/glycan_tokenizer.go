package tokenizer

import (
	"strings"

	"glycomotif/internal/model/glycoword"
)

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// Tokenize splits a glycan string on '(' and then ')' and deletes every
// branch bracket from the resulting pieces. It never fails: an empty string
// yields a single empty token and unbalanced input is split as-is.
func Tokenize(s string) glycoword.TokenSequence {
	pieces := strings.Split(s, "(")
	tokens := make(glycoword.TokenSequence, 0, 2*len(pieces))
	for _, piece := range pieces {
		for _, part := range strings.Split(piece, ")") {
			tokens = append(tokens, bracketStripper.Replace(part))
		}
	}
	return tokens
}

// Windows returns the glycowords of a token sequence: windows of
// glycoword.WindowSize tokens starting at every even index i with i < L-4.
// Sequences shorter than a window yield an empty, non-nil slice.
func Windows(tokens glycoword.TokenSequence) []glycoword.Glycoword {
	if len(tokens) < glycoword.WindowSize {
		return []glycoword.Glycoword{}
	}

	windows := make([]glycoword.Glycoword, 0, (len(tokens)-glycoword.WindowSize)/2+1)
	for i := 0; i < len(tokens)-(glycoword.WindowSize-1); i += 2 {
		word := make(glycoword.Glycoword, glycoword.WindowSize)
		copy(word, tokens[i:i+glycoword.WindowSize])
		windows = append(windows, word)
	}
	return windows
}

// FindMotifs returns the separator-joined glycowords of a glycan string
func FindMotifs(s string) []string {
	return glycoword.Strings(Windows(Tokenize(s)))
}

// SmallMotif returns the whole-sequence label of a glycan string
func SmallMotif(s string) string {
	return Tokenize(s).Label()
}
