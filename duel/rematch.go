/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type RematchStatus string

const (
	RematchNone      RematchStatus = "none"
	RematchRequested RematchStatus = "requested"
	RematchAccepted  RematchStatus = "accepted"
	RematchDeclined  RematchStatus = "declined"
)

// RematchState is the negotiation attached to a Finished room. The
// requester always counts as accepted.
type RematchState struct {
	Status      RematchStatus `json:"status"`
	RequesterID string        `json:"requesterId,omitempty"`
	AcceptedIDs []string      `json:"acceptedIds"`
}

func newRematch() RematchState {
	return RematchState{Status: RematchNone, AcceptedIDs: []string{}}
}

func (r RematchState) clone() RematchState {
	r.AcceptedIDs = append([]string{}, r.AcceptedIDs...)
	return r
}

// RequestRematch opens a negotiation. A request while one is already open
// from someone else counts as acceptance.
func (s *Session) RequestRematch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.rematchPlayerLocked(id)
	if err != nil {
		return err
	}

	if s.rematch.Status == RematchRequested {
		if s.rematch.RequesterID == id {
			return ErrRematchPending
		}
		return s.acceptLocked(p)
	}

	s.rematch = RematchState{
		Status:      RematchRequested,
		RequesterID: id,
		AcceptedIDs: []string{id},
	}
	s.lastActive = s.clock.Now()

	log.Info().Str("room", s.code).Str("player", id).Msg("rematch requested")

	s.broadcastLocked(RematchRequestedMessage{
		Type:          TypeRematchRequested,
		RequesterName: p.Name,
	})
	return nil
}

// AcceptRematch records the caller's acceptance and restarts the room in
// place once every participant has accepted.
func (s *Session) AcceptRematch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.rematchPlayerLocked(id)
	if err != nil {
		return err
	}
	if s.rematch.Status != RematchRequested {
		return ErrNoRematchRequest
	}

	return s.acceptLocked(p)
}

// DeclineRematch cancels an open negotiation. The room stays Finished.
func (s *Session) DeclineRematch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerLocked(id) == nil {
		return ErrNotInRoom
	}
	if s.phase != PhaseFinished {
		return ErrWrongPhase
	}
	if s.rematch.Status != RematchRequested {
		return ErrNoRematchRequest
	}

	s.rematch = newRematch()
	s.lastActive = s.clock.Now()

	log.Info().
		Str("room", s.code).
		Str("player", id).
		Str("rematch", string(RematchDeclined)).
		Msg("rematch declined")

	s.broadcastLocked(SimpleMessage{Type: TypeRematchDeclined})
	return nil
}

func (s *Session) rematchPlayerLocked(id string) (*Player, error) {
	p := s.playerLocked(id)
	if p == nil {
		return nil, ErrNotInRoom
	}
	if s.phase != PhaseFinished {
		return nil, ErrWrongPhase
	}
	if len(s.players) < s.cfg.MaxPlayers {
		return nil, ErrRematchUnavailable
	}
	return p, nil
}

func (s *Session) acceptLocked(p *Player) error {
	if !lo.Contains(s.rematch.AcceptedIDs, p.ID) {
		s.rematch.AcceptedIDs = append(s.rematch.AcceptedIDs, p.ID)
	}
	s.lastActive = s.clock.Now()

	everyone := lo.EveryBy(s.players, func(other *Player) bool {
		return lo.Contains(s.rematch.AcceptedIDs, other.ID)
	})
	if !everyone {
		log.Debug().
			Str("room", s.code).
			Str("player", p.ID).
			Int("accepted", len(s.rematch.AcceptedIDs)).
			Msg("rematch accepted by player")

		s.broadcastStateLocked(TypeUpdateState)
		return nil
	}

	s.rematch.Status = RematchAccepted

	log.Info().
		Str("room", s.code).
		Str("rematch", string(RematchAccepted)).
		Msg("rematch accepted")

	s.broadcastLocked(SimpleMessage{Type: TypeRematchAccepted})

	if err := s.startRoundLocked(true); err != nil {
		s.rematch = newRematch()
		return err
	}
	return nil
}
