/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stanercelik/harfiye/words"
)

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// loadWords reads the word lists from --words-dir, or the embedded copy
// when none is set.
func loadWords(cfg *Config) (*words.Lists, error) {
	if cfg.wordsDir == "" {
		dict, err := words.Embedded()
		if err != nil {
			return nil, err
		}
		logWordCounts(dict, "embedded")
		return dict, nil
	}

	for _, n := range words.Lengths {
		path := filepath.Join(cfg.wordsDir, "words_tr_"+strconv.Itoa(n)+".json")

		info, err := os.Stat(path)
		if err != nil {
			log.Warn().Str("path", path).Msg("word list missing, using embedded copy")
			continue
		}
		log.Debug().
			Str("path", path).
			Str("size", humanReadableSize(info.Size())).
			Msg("reading word list")
	}

	dict, err := words.LoadDir(cfg.wordsDir)
	if err != nil {
		return nil, fmt.Errorf("loading words from %s: %w", cfg.wordsDir, err)
	}
	logWordCounts(dict, cfg.wordsDir)
	return dict, nil
}

func logWordCounts(dict *words.Lists, source string) {
	ev := log.Info().Str("source", source)
	for _, n := range words.Lengths {
		ev = ev.Int(strconv.Itoa(n), dict.Count(n))
	}
	ev.Msg("word lists loaded")
}
