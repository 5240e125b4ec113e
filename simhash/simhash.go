// Package simhash fingerprints page text so that near-identical captures,
// typically a click that never left the previous page, can be flagged.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint is a 64-bit SimHash. Texts that share most of their word
// pairs end up a small Hamming distance apart.
type Fingerprint uint64

// Of fingerprints text using word-bigram shingles hashed with FNV-64a.
// Single-word texts fall back to the word itself; empty text is 0.
func Of(text string) Fingerprint {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	features := shingles(words, 2)
	if len(features) == 0 {
		features = words
	}

	var vector [64]int
	h := fnv.New64a()
	for _, f := range features {
		h.Reset()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := range vector {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp Fingerprint
	for i, v := range vector {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(g Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ g))
}

// Near reports whether g is within threshold bits of f.
func (f Fingerprint) Near(g Fingerprint, threshold int) bool {
	return f.Distance(g) <= threshold
}

// shingles joins every run of n consecutive tokens.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}
