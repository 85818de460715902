/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// TickInterval is one time unit for countdowns and player clocks.
	TickInterval = time.Second

	// CountdownTicks is the synchronized countdown before Playing.
	CountdownTicks = 3

	// unlimitedWire is how the unlimited budget travels over the wire.
	unlimitedWire = -1
)

// Budget is a player's remaining time in ticks. The unlimited budget is a
// distinct value that never decrements or expires.
type Budget struct {
	seconds   int
	unlimited bool
}

// Unlimited returns the budget that never runs out.
func Unlimited() Budget {
	return Budget{unlimited: true}
}

// Seconds returns a finite budget of n ticks, clamped at zero.
func Seconds(n int) Budget {
	if n < 0 {
		n = 0
	}
	return Budget{seconds: n}
}

func (b Budget) IsUnlimited() bool { return b.unlimited }

// Remaining is the tick count left; meaningless when unlimited.
func (b Budget) Remaining() int { return b.seconds }

// Expired reports a finite budget that reached zero.
func (b Budget) Expired() bool { return !b.unlimited && b.seconds == 0 }

// Tick consumes one unit. Unlimited and expired budgets are unchanged.
func (b Budget) Tick() Budget {
	if b.unlimited || b.seconds == 0 {
		return b
	}
	return Budget{seconds: b.seconds - 1}
}

func (b Budget) String() string {
	if b.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%ds", b.seconds)
}

func (b Budget) MarshalJSON() ([]byte, error) {
	if b.unlimited {
		return json.Marshal(unlimitedWire)
	}
	return json.Marshal(b.seconds)
}

func (b *Budget) UnmarshalJSON(data []byte) error {
	var n *int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n == nil || *n == unlimitedWire {
		*b = Unlimited()
		return nil
	}
	*b = Seconds(*n)
	return nil
}

// budgetFrom maps the create_room timeLimit field; nil means unlimited.
func budgetFrom(limit *int) Budget {
	if limit == nil {
		return Unlimited()
	}
	return Budget{seconds: *limit}
}

// startTickerLocked replaces the session's ticker with a fresh one aligned
// to now. Ticks carry the epoch they were started under, so a tick that
// races a stop is dropped instead of mutating the next phase.
func (s *Session) startTickerLocked() {
	s.stopTickerLocked()

	epoch := s.epoch
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelTick = cancel

	t := s.clock.NewTicker(TickInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.Chan():
				s.tick(epoch)
			}
		}
	}()

	log.Debug().
		Str("room", s.code).
		Str("phase", string(s.phase)).
		Uint64("epoch", epoch).
		Msg("ticker started")
}

// stopTickerLocked cancels the running ticker, if any, and invalidates
// ticks already in flight.
func (s *Session) stopTickerLocked() {
	s.epoch++
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
}

func (s *Session) ticking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelTick != nil
}

func (s *Session) tick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || epoch != s.epoch {
		return
	}

	switch s.phase {
	case PhaseCountdown:
		s.countdownTickLocked()
	case PhasePlaying:
		s.clockTickLocked()
	}
}

func (s *Session) countdownTickLocked() {
	if s.countdown > 0 {
		s.countdown--
	}

	if s.rematchRound {
		s.broadcastLocked(RematchCountdownMessage{
			Type:             TypeRematchCountdown,
			SecondsRemaining: s.countdown,
		})
	}

	if s.countdown == 0 {
		s.beginPlayingLocked()
	}
}

// clockTickLocked decrements every running player clock by one unit and
// times out those that hit zero. A clock reset since the previous tick is
// left alone for this one, so a guess buys between limit and limit+1
// seconds.
func (s *Session) clockTickLocked() {
	timedOut := false

	for _, p := range s.players {
		if !p.clockRunning() {
			continue
		}
		if p.reset {
			p.reset = false
			continue
		}

		p.Remaining = p.Remaining.Tick()
		s.broadcastLocked(TimerUpdateMessage{
			Type:          TypeTimerUpdate,
			PlayerID:      p.ID,
			TimeRemaining: p.Remaining,
		})

		if p.Remaining.Expired() {
			p.TimedOut = true
			timedOut = true

			log.Debug().Str("room", s.code).Str("player", p.ID).Msg("player timed out")

			if p.notifier != nil {
				p.notifier.Notify(NoticeMessage{
					Type:   TypePlayerTimeout,
					Reason: ErrPlayerTimedOut.Error(),
				})
			}
		}
	}

	if timedOut {
		s.broadcastStateLocked(TypeUpdateState)
		s.checkFinishedLocked()
	}
}
