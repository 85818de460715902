/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import "errors"

// Rejections are reported to the offending connection only; none of them
// leave a trace in shared room state.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrWrongPhase         = errors.New("not allowed in the current phase")
	ErrWrongGuessLength   = errors.New("guess has the wrong number of letters")
	ErrNotInDictionary    = errors.New("word not in list")
	ErrPlayerTimedOut     = errors.New("your time is up")
	ErrPlayerExhausted    = errors.New("no guesses left")
	ErrNotInRoom          = errors.New("not in a room")
	ErrInvalidConfig      = errors.New("invalid room settings")
	ErrRematchUnavailable = errors.New("rematch needs a full room")
	ErrNoRematchRequest   = errors.New("no pending rematch request")
	ErrRematchPending     = errors.New("rematch already requested")
)

// userCorrectable errors are answered with invalid_word instead of error.
func userCorrectable(err error) bool {
	return errors.Is(err, ErrWrongGuessLength) || errors.Is(err, ErrNotInDictionary)
}
