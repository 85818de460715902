/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

// Inbound message types
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeMakeGuess      = "make_guess"
	TypeRequestRematch = "request_rematch"
	TypeAcceptRematch  = "accept_rematch"
	TypeDeclineRematch = "decline_rematch"
)

// Outbound message types
const (
	TypeRoomCreated      = "room_created"
	TypeRoomJoined       = "room_joined"
	TypePlayerJoined     = "player_joined"
	TypeGameStart        = "game_start"
	TypeUpdateState      = "update_state"
	TypeInvalidWord      = "invalid_word"
	TypeGameOver         = "game_over"
	TypePlayerLeft       = "player_left"
	TypeTimerUpdate      = "timer_update"
	TypePlayerTimeout    = "player_timeout"
	TypeError            = "error"
	TypeRematchRequested = "rematch_requested"
	TypeRematchAccepted  = "rematch_accepted"
	TypeRematchDeclined  = "rematch_declined"
	TypeRematchCountdown = "rematch_countdown"
)

// ClientMessage is every message a client may send; fields are used
// depending on Type.
type ClientMessage struct {
	Type       string `json:"type"`
	Name       string `json:"name,omitempty"`       // create_room / join_room
	MaxPlayers int    `json:"maxPlayers,omitempty"` // create_room
	WordLength int    `json:"wordLength,omitempty"` // create_room
	TimeLimit  *int   `json:"timeLimit,omitempty"`  // create_room; null or absent means unlimited
	RoomCode   string `json:"roomCode,omitempty"`   // join_room
	Text       string `json:"text,omitempty"`       // make_guess
}

// Messages sent to clients

type RoomCreatedMessage struct {
	Type     string `json:"type"` // "room_created"
	RoomCode string `json:"roomCode"`
}

// StateMessage carries a full snapshot: room_joined, game_start,
// update_state and player_left.
type StateMessage struct {
	Type  string `json:"type"`
	State State  `json:"state"`
}

type PlayerJoinedMessage struct {
	Type          string `json:"type"` // "player_joined"
	State         State  `json:"state"`
	NewPlayerName string `json:"newPlayerName"`
}

// NoticeMessage is a single-connection notice: invalid_word, error,
// player_timeout.
type NoticeMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type GameOverMessage struct {
	Type     string  `json:"type"`     // "game_over"
	WinnerID *string `json:"winnerId"` // null when nobody solved it
	Solution string  `json:"solution"`
	State    State   `json:"state"`
}

type TimerUpdateMessage struct {
	Type          string `json:"type"` // "timer_update"
	PlayerID      string `json:"playerId"`
	TimeRemaining Budget `json:"timeRemaining"`
}

type RematchRequestedMessage struct {
	Type          string `json:"type"` // "rematch_requested"
	RequesterName string `json:"requesterName"`
}

type RematchCountdownMessage struct {
	Type             string `json:"type"` // "rematch_countdown"
	SecondsRemaining int    `json:"secondsRemaining"`
}

// SimpleMessage has no payload: rematch_accepted, rematch_declined.
type SimpleMessage struct {
	Type string `json:"type"`
}

func notice(kind string, err error) NoticeMessage {
	return NoticeMessage{Type: kind, Reason: err.Error()}
}
