/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/stanercelik/harfiye/words"
)

const (
	MinPlayers   = 2
	MaxPlayers   = 6
	MaxGuesses   = 6
	MaxTimeLimit = 600

	maxNameLength = 20
	defaultName   = "Anonim"
)

// Phase is a room's stage. Phases only move forward; a rematch starts a
// fresh round at Countdown.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// Config is fixed for the life of a room, rematches included.
type Config struct {
	MaxPlayers int
	WordLength int
	TimeLimit  Budget
}

func (c Config) Validate() error {
	if c.MaxPlayers < MinPlayers || c.MaxPlayers > MaxPlayers {
		return fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidConfig, MinPlayers, MaxPlayers)
	}
	if !words.Supported(c.WordLength) {
		return fmt.Errorf("%w: word length must be one of %v", ErrInvalidConfig, words.Lengths)
	}
	if !c.TimeLimit.IsUnlimited() && (c.TimeLimit.Remaining() < 1 || c.TimeLimit.Remaining() > MaxTimeLimit) {
		return fmt.Errorf("%w: time limit must be between 1 and %d seconds", ErrInvalidConfig, MaxTimeLimit)
	}
	return nil
}

// Notifier receives messages for one participant. Notify must not block;
// it is called with the room locked.
type Notifier interface {
	Notify(msg any)
}

// Player is one participant of a room.
type Player struct {
	ID        string
	Name      string
	Guesses   []Guess
	Remaining Budget
	TimedOut  bool
	Exhausted bool

	// reset marks a clock refilled mid-interval by an accepted guess. The
	// next shared tick skips it so the full limit is never cut short.
	reset bool

	notifier Notifier
}

// done players no longer affect the round outcome.
func (p *Player) done() bool {
	return p.TimedOut || p.Exhausted
}

func (p *Player) clockRunning() bool {
	return !p.done() && !p.Remaining.IsUnlimited()
}

// PlayerState is the public view of a Player.
type PlayerState struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Guesses       []Guess `json:"guesses"`
	TimeRemaining Budget  `json:"timeRemaining"`
	IsTimedOut    bool    `json:"isTimedOut"`
	IsExhausted   bool    `json:"isExhausted"`
}

// State is a complete, consistent room snapshot. The secret word is never
// part of it.
type State struct {
	RoomCode   string        `json:"roomCode"`
	Players    []PlayerState `json:"players"`
	MaxPlayers int           `json:"maxPlayers"`
	WordLength int           `json:"wordLength"`
	TimeLimit  Budget        `json:"timeLimit"`
	Status     Phase         `json:"status"`
	Countdown  int           `json:"countdown"`
	WinnerID   string        `json:"winnerId,omitempty"`
	Rematch    RematchState  `json:"rematch"`
	CreatedAt  int64         `json:"createdAt"`
}

// Session is one room's authoritative state. Every mutation, whether a
// client operation or a tick, runs under mu, so operations on one room are
// totally ordered and never touch another room.
type Session struct {
	code  string
	cfg   Config
	dict  words.Dictionary
	clock clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	players      []*Player
	phase        Phase
	secret       string
	winner       string
	countdown    int
	rematch      RematchState
	rematchRound bool
	createdAt    time.Time
	lastActive   time.Time
	closed       bool

	epoch      uint64
	cancelTick context.CancelFunc
}

func newSession(code string, cfg Config, dict words.Dictionary, clock clockwork.Clock) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := clock.Now()

	return &Session{
		code:       code,
		cfg:        cfg,
		dict:       dict,
		clock:      clock,
		ctx:        ctx,
		cancel:     cancel,
		phase:      PhaseWaiting,
		rematch:    newRematch(),
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// Len returns the number of participants.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.players)
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	return State{
		RoomCode: s.code,
		Players: lo.Map(s.players, func(p *Player, _ int) PlayerState {
			return PlayerState{
				ID:            p.ID,
				Name:          p.Name,
				Guesses:       append([]Guess{}, p.Guesses...),
				TimeRemaining: p.Remaining,
				IsTimedOut:    p.TimedOut,
				IsExhausted:   p.Exhausted,
			}
		}),
		MaxPlayers: s.cfg.MaxPlayers,
		WordLength: s.cfg.WordLength,
		TimeLimit:  s.cfg.TimeLimit,
		Status:     s.phase,
		Countdown:  s.countdown,
		WinnerID:   s.winner,
		Rematch:    s.rematch.clone(),
		CreatedAt:  s.createdAt.UnixMilli(),
	}
}

func (s *Session) playerLocked(id string) *Player {
	p, _ := lo.Find(s.players, func(p *Player) bool { return p.ID == id })
	return p
}

func (s *Session) broadcastLocked(msg any) {
	for _, p := range s.players {
		if p.notifier != nil {
			p.notifier.Notify(msg)
		}
	}
}

func (s *Session) broadcastStateLocked(kind string) {
	s.broadcastLocked(StateMessage{Type: kind, State: s.snapshotLocked()})
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

// Join adds a participant. The room leaves Waiting exactly when the join
// fills it. Joining a room one is already in re-sends room_joined.
func (s *Session) Join(id, name string, n Notifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRoomNotFound
	}

	if p := s.playerLocked(id); p != nil {
		p.notifier = n
		n.Notify(StateMessage{Type: TypeRoomJoined, State: s.snapshotLocked()})
		return nil
	}

	if len(s.players) >= s.cfg.MaxPlayers {
		return ErrRoomFull
	}
	if s.phase != PhaseWaiting {
		return ErrWrongPhase
	}

	p := &Player{
		ID:        id,
		Name:      cleanName(name),
		Remaining: s.cfg.TimeLimit,
		notifier:  n,
	}
	s.players = append(s.players, p)
	s.lastActive = s.clock.Now()

	log.Info().
		Str("room", s.code).
		Str("player", id).
		Str("name", p.Name).
		Int("players", len(s.players)).
		Msg("player joined")

	state := s.snapshotLocked()
	n.Notify(StateMessage{Type: TypeRoomJoined, State: state})
	for _, other := range s.players {
		if other.ID != id && other.notifier != nil {
			other.notifier.Notify(PlayerJoinedMessage{
				Type:          TypePlayerJoined,
				State:         state,
				NewPlayerName: p.Name,
			})
		}
	}

	if len(s.players) == s.cfg.MaxPlayers {
		if err := s.startRoundLocked(false); err != nil {
			log.Error().Err(err).Str("room", s.code).Msg("could not start round")
		}
	}

	return nil
}

// Leave removes a participant and returns how many remain. Leaving is a
// forfeit: the round goes on for everyone else.
func (s *Session) Leave(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, found := lo.FindIndexOf(s.players, func(p *Player) bool { return p.ID == id })
	if !found {
		return len(s.players)
	}

	s.players = append(s.players[:idx], s.players[idx+1:]...)
	s.lastActive = s.clock.Now()

	log.Info().
		Str("room", s.code).
		Str("player", id).
		Str("phase", string(s.phase)).
		Int("players", len(s.players)).
		Msg("player left")

	if len(s.players) == 0 {
		s.stopTickerLocked()
		return 0
	}

	if s.phase == PhaseFinished && s.rematch.Status == RematchRequested {
		s.rematch = newRematch()
		s.broadcastLocked(SimpleMessage{Type: TypeRematchDeclined})
	}

	s.broadcastStateLocked(TypePlayerLeft)

	if s.phase == PhasePlaying {
		s.checkFinishedLocked()
	}

	return len(s.players)
}

// Guess validates and records a guess. A rejected guess changes nothing.
func (s *Session) Guess(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(id)
	if p == nil {
		return ErrNotInRoom
	}
	if s.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if p.TimedOut {
		return ErrPlayerTimedOut
	}
	if p.Exhausted || len(p.Guesses) >= MaxGuesses {
		return ErrPlayerExhausted
	}

	word := words.Canonical(text)
	if words.Length(word) != s.cfg.WordLength {
		return fmt.Errorf("%w: expected %d", ErrWrongGuessLength, s.cfg.WordLength)
	}
	if !s.dict.IsMember(word, s.cfg.WordLength) {
		return ErrNotInDictionary
	}

	feedback := Evaluate(word, s.secret)
	p.Guesses = append(p.Guesses, Guess{Word: word, Feedback: feedback})
	p.Remaining = s.cfg.TimeLimit
	p.reset = !p.Remaining.IsUnlimited()
	s.lastActive = s.clock.Now()

	solved := Solved(feedback)
	if !solved && len(p.Guesses) >= MaxGuesses {
		p.Exhausted = true
	}

	log.Debug().
		Str("room", s.code).
		Str("player", id).
		Int("attempt", len(p.Guesses)).
		Bool("solved", solved).
		Msg("guess accepted")

	s.broadcastStateLocked(TypeUpdateState)

	if solved {
		s.finishLocked(p.ID)
		return nil
	}

	s.checkFinishedLocked()
	return nil
}

// startRoundLocked draws a new secret and enters Countdown with every
// player reset to a blank board and a full clock.
func (s *Session) startRoundLocked(rematch bool) error {
	secret, err := s.dict.PickRandom(s.cfg.WordLength)
	if err != nil {
		return err
	}

	for _, p := range s.players {
		p.Guesses = nil
		p.Remaining = s.cfg.TimeLimit
		p.reset = false
		p.TimedOut = false
		p.Exhausted = false
	}

	s.secret = words.Canonical(secret)
	s.winner = ""
	s.countdown = CountdownTicks
	s.rematch = newRematch()
	s.rematchRound = rematch
	s.phase = PhaseCountdown
	s.lastActive = s.clock.Now()

	s.startTickerLocked()

	log.Info().
		Str("room", s.code).
		Bool("rematch", rematch).
		Int("players", len(s.players)).
		Msg("round starting")

	s.broadcastStateLocked(TypeGameStart)
	return nil
}

func (s *Session) beginPlayingLocked() {
	s.phase = PhasePlaying
	s.countdown = 0
	s.stopTickerLocked()

	if !s.cfg.TimeLimit.IsUnlimited() {
		s.startTickerLocked()
	}

	log.Debug().Str("room", s.code).Msg("playing")

	s.broadcastStateLocked(TypeUpdateState)
}

// checkFinishedLocked ends a round nobody solved once every player is out
// of guesses or time.
func (s *Session) checkFinishedLocked() {
	if s.phase != PhasePlaying || len(s.players) == 0 {
		return
	}
	if lo.EveryBy(s.players, func(p *Player) bool { return p.done() }) {
		s.finishLocked("")
	}
}

func (s *Session) finishLocked(winner string) {
	s.phase = PhaseFinished
	s.winner = winner
	s.stopTickerLocked()

	var winnerID *string
	if winner != "" {
		winnerID = &winner
	}

	log.Info().
		Str("room", s.code).
		Str("winner", winner).
		Msg("round finished")

	s.broadcastLocked(GameOverMessage{
		Type:     TypeGameOver,
		WinnerID: winnerID,
		Solution: s.secret,
		State:    s.snapshotLocked(),
	})
}

// Close stops all background work. The room accepts nothing afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTickerLocked()
	s.cancel()
}
