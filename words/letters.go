/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package words

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Turkish dotted/dotless I do not survive unicode.ToLower, so the full
// alphabet is mapped explicitly.
var lowerTable = map[rune]rune{
	'A': 'a', 'B': 'b', 'C': 'c', 'Ç': 'ç', 'D': 'd', 'E': 'e', 'F': 'f',
	'G': 'g', 'Ğ': 'ğ', 'H': 'h', 'I': 'ı', 'İ': 'i', 'J': 'j', 'K': 'k',
	'L': 'l', 'M': 'm', 'N': 'n', 'O': 'o', 'Ö': 'ö', 'P': 'p', 'Q': 'q',
	'R': 'r', 'S': 's', 'Ş': 'ş', 'T': 't', 'U': 'u', 'Ü': 'ü', 'V': 'v',
	'W': 'w', 'X': 'x', 'Y': 'y', 'Z': 'z',
}

var upperTable = map[rune]rune{
	'a': 'A', 'b': 'B', 'c': 'C', 'ç': 'Ç', 'd': 'D', 'e': 'E', 'f': 'F',
	'g': 'G', 'ğ': 'Ğ', 'h': 'H', 'ı': 'I', 'i': 'İ', 'j': 'J', 'k': 'K',
	'l': 'L', 'm': 'M', 'n': 'N', 'o': 'O', 'ö': 'Ö', 'p': 'P', 'q': 'Q',
	'r': 'R', 's': 'S', 'ş': 'Ş', 't': 'T', 'u': 'U', 'ü': 'Ü', 'v': 'V',
	'w': 'W', 'x': 'X', 'y': 'Y', 'z': 'Z',
}

// Circumflexed vowels are spelling variants, not separate letters.
var accentTable = map[rune]rune{
	'â': 'a', 'Â': 'A',
	'î': 'i', 'Î': 'İ',
	'û': 'u', 'Û': 'U',
}

// ToLower folds s with the Turkish case table. Runes outside the table
// fall back to unicode.ToLower.
func ToLower(s string) string {
	return strings.Map(func(r rune) rune {
		if l, ok := lowerTable[r]; ok {
			return l
		}
		return unicode.ToLower(r)
	}, s)
}

// ToUpper is the inverse of ToLower for the Turkish alphabet.
func ToUpper(s string) string {
	return strings.Map(func(r rune) rune {
		if u, ok := upperTable[r]; ok {
			return u
		}
		return unicode.ToUpper(r)
	}, s)
}

// StripAccents replaces circumflexed vowels with their base letter.
func StripAccents(s string) string {
	return strings.Map(func(r rune) rune {
		if b, ok := accentTable[r]; ok {
			return b
		}
		return r
	}, s)
}

// Canonical returns the form every comparison in the game runs on:
// NFC-composed, whitespace-trimmed, accent-stripped, Turkish lowercase.
func Canonical(s string) string {
	return ToLower(StripAccents(norm.NFC.String(strings.TrimSpace(s))))
}

// Length counts letters, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
