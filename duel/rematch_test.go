/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"errors"
	"slices"
	"testing"
)

// finishedSession plays a full round that player a wins.
func finishedSession(t *testing.T, players int) (*Session, []*recorder) {
	t.Helper()

	s, recs := testSession(t, players, Seconds(20))
	joinAll(t, s, recs)
	countdown(t, s)

	if err := s.Guess("b", "kitap"); err != nil {
		t.Fatal(err)
	}
	if err := s.Guess("a", secret); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseFinished {
		t.Fatalf("phase = %s, want finished", s.Phase())
	}

	for _, r := range recs {
		r.reset()
	}
	return s, recs
}

func TestRematchOutsideFinished(t *testing.T) {
	s, recs := testSession(t, 2, Unlimited())
	joinAll(t, s, recs)

	if err := s.RequestRematch("a"); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("RequestRematch during countdown = %v, want ErrWrongPhase", err)
	}
	if err := s.RequestRematch("zz"); !errors.Is(err, ErrNotInRoom) {
		t.Errorf("RequestRematch by stranger = %v, want ErrNotInRoom", err)
	}
}

func TestRematchAccept(t *testing.T) {
	s, recs := finishedSession(t, 2)

	if err := s.AcceptRematch("b"); !errors.Is(err, ErrNoRematchRequest) {
		t.Errorf("AcceptRematch without request = %v, want ErrNoRematchRequest", err)
	}

	if err := s.RequestRematch("a"); err != nil {
		t.Fatalf("RequestRematch = %v", err)
	}
	if err := s.RequestRematch("a"); !errors.Is(err, ErrRematchPending) {
		t.Errorf("second request by requester = %v, want ErrRematchPending", err)
	}

	req, ok := recs[1].last(TypeRematchRequested).(RematchRequestedMessage)
	if !ok || req.RequesterName != "oyuncu" {
		t.Fatalf("b got no rematch_requested: %v", recs[1].types())
	}
	if st := s.Snapshot().Rematch; st.Status != RematchRequested || st.RequesterID != "a" {
		t.Errorf("rematch state = %+v", st)
	}

	if err := s.AcceptRematch("b"); err != nil {
		t.Fatalf("AcceptRematch = %v", err)
	}

	st := s.Snapshot()
	if st.Status != PhaseCountdown {
		t.Fatalf("phase after accept = %s, want countdown", st.Status)
	}
	if st.WinnerID != "" || st.Rematch.Status != RematchNone {
		t.Errorf("round not reset: winner=%q rematch=%+v", st.WinnerID, st.Rematch)
	}
	for _, p := range st.Players {
		if len(p.Guesses) != 0 || p.TimeRemaining != Seconds(20) || p.IsTimedOut || p.IsExhausted {
			t.Errorf("player %s not reset: %+v", p.ID, p)
		}
	}
	for i, r := range recs {
		if r.count(TypeRematchAccepted) != 1 || r.count(TypeGameStart) != 1 {
			t.Errorf("player %d messages = %v", i, r.types())
		}
	}

	countdown(t, s)

	var seconds []int
	for _, m := range recs[0].msgs {
		if c, ok := m.(RematchCountdownMessage); ok {
			seconds = append(seconds, c.SecondsRemaining)
		}
	}
	if !slices.Equal(seconds, []int{2, 1, 0}) {
		t.Errorf("rematch_countdown = %v, want [2 1 0]", seconds)
	}

	if err := s.Guess("a", secret); err != nil {
		t.Errorf("Guess in rematch round = %v", err)
	}
}

func TestRematchDecline(t *testing.T) {
	s, recs := finishedSession(t, 2)

	if err := s.DeclineRematch("b"); !errors.Is(err, ErrNoRematchRequest) {
		t.Errorf("DeclineRematch without request = %v, want ErrNoRematchRequest", err)
	}

	if err := s.RequestRematch("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeclineRematch("b"); err != nil {
		t.Fatalf("DeclineRematch = %v", err)
	}

	st := s.Snapshot()
	if st.Status != PhaseFinished || st.Rematch.Status != RematchNone {
		t.Errorf("after decline status=%s rematch=%+v", st.Status, st.Rematch)
	}
	if recs[0].count(TypeRematchDeclined) != 1 {
		t.Errorf("requester messages = %v", recs[0].types())
	}

	// A new request may follow a decline.
	if err := s.RequestRematch("b"); err != nil {
		t.Errorf("RequestRematch after decline = %v", err)
	}
}

func TestRematchNeedsEveryone(t *testing.T) {
	s, recs := finishedSession(t, 3)

	if err := s.RequestRematch("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.AcceptRematch("b"); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseFinished {
		t.Fatal("rematch started before everyone accepted")
	}
	if got := s.Snapshot().Rematch.AcceptedIDs; !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("accepted = %v, want [a b]", got)
	}

	// A request from someone else counts as acceptance.
	if err := s.RequestRematch("c"); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseCountdown {
		t.Fatalf("phase = %s, want countdown", s.Phase())
	}
	if recs[2].count(TypeRematchAccepted) != 1 {
		t.Errorf("c messages = %v", recs[2].types())
	}
}

func TestRematchNeedsFullRoom(t *testing.T) {
	s, recs := finishedSession(t, 3)

	if err := s.RequestRematch("a"); err != nil {
		t.Fatal(err)
	}
	s.Leave("c")

	if recs[0].count(TypeRematchDeclined) != 1 {
		t.Errorf("pending rematch not canceled on leave: %v", recs[0].types())
	}
	if err := s.RequestRematch("a"); !errors.Is(err, ErrRematchUnavailable) {
		t.Errorf("RequestRematch in short room = %v, want ErrRematchUnavailable", err)
	}
}
