/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"github.com/stanercelik/harfiye/words"
)

// Mark classifies one letter of a guess.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// Guess is one recorded attempt. Word is stored in canonical form.
type Guess struct {
	Word     string `json:"guess"`
	Feedback []Mark `json:"feedback"`
}

// Evaluate scores guess against solution with duplicate-aware two-pass
// marking. Both are canonicalized first and must have the same letter count;
// positions past the shorter word are marked absent.
func Evaluate(guess, solution string) []Mark {
	g := []rune(words.Canonical(guess))
	pool := []rune(words.Canonical(solution))

	feedback := make([]Mark, len(g))

	// Matched solution letters are consumed so they cannot be reused as
	// present marks below.
	const used = 0
	for i := range g {
		if i < len(pool) && g[i] == pool[i] {
			feedback[i] = MarkCorrect
			pool[i] = used
		}
	}

	for i := range g {
		if feedback[i] != "" {
			continue
		}
		feedback[i] = MarkAbsent
		for j := range pool {
			if pool[j] != used && pool[j] == g[i] {
				feedback[i] = MarkPresent
				pool[j] = used
				break
			}
		}
	}

	return feedback
}

// Solved reports whether every mark is correct.
func Solved(feedback []Mark) bool {
	if len(feedback) == 0 {
		return false
	}
	for _, m := range feedback {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}
