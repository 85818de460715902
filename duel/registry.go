/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stanercelik/harfiye/words"
)

const (
	CodeLength = 6

	// CodeAlphabet leaves out 0/O and 1/I. Its 32 letters divide 256, so a
	// byte modulo its length is unbiased.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CanonicalCode is the stored form of a user-entered room code.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, CodeLength)
	for i := range out {
		out[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(out)
}

// Registry holds every active room keyed by code, so each room is its own
// isolated session.
type Registry struct {
	dict        words.Dictionary
	clock       clockwork.Clock
	idleTimeout time.Duration

	// newCode is swapped in tests to force collisions.
	newCode func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(dict words.Dictionary, clock clockwork.Clock, idleTimeout time.Duration) *Registry {
	return &Registry{
		dict:        dict,
		clock:       clock,
		idleTimeout: idleTimeout,
		newCode:     randomCode,
		sessions:    make(map[string]*Session),
	}
}

// Create validates cfg and registers a new Waiting room under a fresh code.
// Code collisions are retried until a free code is found.
func (r *Registry) Create(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.dict.PickRandom(cfg.WordLength); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.newCode()
	for {
		if _, exists := r.sessions[code]; !exists {
			break
		}
		log.Debug().Str("room", code).Msg("room code collision")
		code = r.newCode()
	}

	s := newSession(code, cfg, r.dict, r.clock)
	r.sessions[code] = s

	log.Info().
		Str("room", code).
		Int("maxPlayers", cfg.MaxPlayers).
		Int("wordLength", cfg.WordLength).
		Stringer("timeLimit", cfg.TimeLimit).
		Int("rooms", len(r.sessions)).
		Msg("room created")

	return s, nil
}

// Lookup accepts codes in any case or surrounding whitespace.
func (r *Registry) Lookup(code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[CanonicalCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (r *Registry) Join(code, id, name string, n Notifier) (*Session, error) {
	s, err := r.Lookup(code)
	if err != nil {
		return nil, err
	}
	if err := s.Join(id, name, n); err != nil {
		return nil, err
	}
	return s, nil
}

// Leave removes the player and destroys the room once it is empty.
func (r *Registry) Leave(s *Session, id string) {
	if s.Leave(id) > 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.code] != s || s.Len() > 0 {
		return
	}
	r.removeLocked(s, "empty")
}

func (r *Registry) removeLocked(s *Session, reason string) {
	delete(r.sessions, s.code)
	s.Close()

	log.Info().
		Str("room", s.code).
		Str("reason", reason).
		Int("rooms", len(r.sessions)).
		Msg("room destroyed")
}

// Reap removes rooms with no participants that have been idle longer than
// the idle timeout, and returns how many it removed.
func (r *Registry) Reap(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for _, s := range r.sessions {
		if s.Len() == 0 && s.LastActive().Before(cutoff) {
			r.removeLocked(s, "idle")
			reaped++
		}
	}
	return reaped
}

// Run reaps idle rooms until ctx is canceled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}

	ticker := r.clock.NewTicker(max(r.idleTimeout/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			r.Reap(now)
		}
	}
}

// Close destroys every room.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		r.removeLocked(s, "shutdown")
	}
}

// Stats is a point-in-time count of rooms and participants.
type Stats struct {
	Rooms   int           `json:"rooms"`
	Players int           `json:"players"`
	Phases  map[Phase]int `json:"phases"`
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		Rooms:  len(r.sessions),
		Phases: make(map[Phase]int),
	}
	for _, s := range r.sessions {
		s.mu.Lock()
		st.Players += len(s.players)
		st.Phases[s.phase]++
		s.mu.Unlock()
	}
	return st
}
