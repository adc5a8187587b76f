// Package tokens holds the one token estimate shared by quota checks, usage fallbacks and
// the client-side counters.
package tokens

import "unicode/utf8"

// characters per token in the estimate
const charsPerToken = 4

// returns ceil(length/4) where length counts UTF-16 code units, matching a
// browser's String.length so client previews and server checks agree
func Estimate(text string) int {
	n := Length(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// returns the UTF-16 code-unit length of text
func Length(text string) int {
	n := 0

	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			n++
		case r > 0xFFFF:
			n += 2 // surrogate pair
		default:
			n++
		}
	}

	return n
}

// estimates the tokens of several message bodies as one prompt
func EstimateAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += Length(t)
	}

	return (total + charsPerToken - 1) / charsPerToken
}
