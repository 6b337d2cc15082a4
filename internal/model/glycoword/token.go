package glycoword

import "strings"

// Separator joins tokens into glycoword keys and sequence labels
const Separator = "*"

// WindowSize is the number of tokens in a single glycoword
const WindowSize = 5

// TokenSequence is the lexical split of a glycan string. Even positions hold
// monosaccharides and odd positions hold linkages by convention only.
type TokenSequence []string

// Glycoword is a window of WindowSize consecutive tokens
type Glycoword []string

// String returns the glycoword as a separator-joined key
func (g Glycoword) String() string {
	return strings.Join(g, Separator)
}

// Label returns the whole sequence joined with the separator
func (ts TokenSequence) Label() string {
	return strings.Join(ts, Separator)
}

// Clone returns an independent copy of the sequence
func (ts TokenSequence) Clone() TokenSequence {
	out := make(TokenSequence, len(ts))
	copy(out, ts)
	return out
}

// IsMonosaccharidePosition reports whether index i holds a monosaccharide
func IsMonosaccharidePosition(i int) bool {
	return i%2 == 0
}

// ParseGlycoword splits a rendered glycoword key back into its tokens
func ParseGlycoword(key string) Glycoword {
	return Glycoword(strings.Split(key, Separator))
}

// Strings renders a list of glycowords as keys
func Strings(words []Glycoword) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.String()
	}
	return out
}
