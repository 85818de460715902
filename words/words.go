/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package words holds the Turkish word lists the game draws secrets from
// and validates guesses against.
//
// Lists are JSON arrays of strings, one file per word length, named
// words_tr_<n>.json. Every entry is canonicalized on load; entries whose
// canonical length does not match the file are dropped.
package words

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Lengths lists the supported word lengths.
var Lengths = []int{5, 6, 7}

var ErrNoWords = errors.New("no words loaded for length")

//go:embed lists/*.json
var embedded embed.FS

// Dictionary is the read-only view the game engine consumes. Both methods
// operate on the Canonical letter form.
type Dictionary interface {
	IsMember(text string, length int) bool
	PickRandom(length int) (string, error)
}

// Lists is an in-memory Dictionary keyed by word length.
type Lists struct {
	mu    sync.RWMutex
	words map[int][]string
	sets  map[int]map[string]struct{}
}

// New builds Lists from raw per-length word slices.
func New(byLength map[int][]string) *Lists {
	l := &Lists{
		words: make(map[int][]string),
		sets:  make(map[int]map[string]struct{}),
	}
	for n, list := range byLength {
		l.add(n, list)
	}
	return l
}

func (l *Lists) add(length int, list []string) {
	set := l.sets[length]
	if set == nil {
		set = make(map[string]struct{}, len(list))
		l.sets[length] = set
	}
	for _, w := range list {
		c := Canonical(w)
		if Length(c) != length {
			continue
		}
		if _, dup := set[c]; dup {
			continue
		}
		set[c] = struct{}{}
		l.words[length] = append(l.words[length], c)
	}
}

// IsMember reports whether text (canonicalized again, so callers may pass
// raw input) is in the list for length.
func (l *Lists) IsMember(text string, length int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.sets[length][Canonical(text)]
	return ok
}

// PickRandom returns a uniformly random word of the given length.
func (l *Lists) PickRandom(length int) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.words[length]
	if len(list) == 0 {
		return "", fmt.Errorf("%w %d", ErrNoWords, length)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", err
	}

	return list[n.Int64()], nil
}

// Count returns the number of words loaded for length.
func (l *Lists) Count(length int) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.words[length])
}

// Stats returns word counts for every supported length.
func (l *Lists) Stats() map[int]int {
	out := make(map[int]int, len(Lengths))
	for _, n := range Lengths {
		out[n] = l.Count(n)
	}
	return out
}

func fileName(length int) string {
	return fmt.Sprintf("words_tr_%d.json", length)
}

func readList(fsys fs.FS, name string) ([]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return list, nil
}

// Embedded returns the small lists compiled into the binary.
func Embedded() (*Lists, error) {
	sub, err := fs.Sub(embedded, "lists")
	if err != nil {
		return nil, err
	}

	return load(sub)
}

// LoadDir reads words_tr_<n>.json for every supported length from dir.
// A missing file falls back to the embedded list for that length.
func LoadDir(dir string) (*Lists, error) {
	if dir == "" {
		return Embedded()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fallback, err := fs.Sub(embedded, "lists")
	if err != nil {
		return nil, err
	}

	byLength := make(map[int][]string, len(Lengths))
	for _, n := range Lengths {
		list, err := readList(os.DirFS(dir), fileName(n))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			list, err = readList(fallback, fileName(n))
			if err != nil {
				return nil, err
			}
		case err != nil:
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, fileName(n)), err)
		}
		byLength[n] = list
	}

	return finish(New(byLength))
}

func load(fsys fs.FS) (*Lists, error) {
	byLength := make(map[int][]string, len(Lengths))
	for _, n := range Lengths {
		list, err := readList(fsys, fileName(n))
		if err != nil {
			return nil, err
		}
		byLength[n] = list
	}

	return finish(New(byLength))
}

func finish(l *Lists) (*Lists, error) {
	for _, n := range Lengths {
		if l.Count(n) == 0 {
			return nil, fmt.Errorf("%w %d", ErrNoWords, n)
		}
	}

	return l, nil
}

// Supported reports whether length is one of Lengths.
func Supported(length int) bool {
	return slices.Contains(Lengths, length)
}
