/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package duel

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	errMalformed   = errors.New("malformed message")
	errUnknownType = errors.New("unknown message type")
	errRateLimited = errors.New("too many messages, slow down")
	errInternal    = errors.New("internal error")
)

// ClientConfig tunes one connection. Zero fields take the defaults below.
type ClientConfig struct {
	RateLimit      float64
	RateBurst      int
	MaxMessageSize int64
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 20
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	return c
}

// Client adapts one websocket connection to the rooms it joins. The room
// pointer is only touched by the read loop.
type Client struct {
	id      string
	conn    *websocket.Conn
	reg     *Registry
	cfg     ClientConfig
	limiter *rate.Limiter

	name    string
	session *Session

	send chan any
	done chan struct{}
	once sync.Once
}

func NewClient(conn *websocket.Conn, reg *Registry, cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()

	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		reg:     reg,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		send:    make(chan any, cfg.SendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Notify queues msg without blocking. A client whose queue is full is
// disconnected.
func (c *Client) Notify(msg any) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- msg:
	case <-c.done:
	default:
		log.Warn().Str("player", c.id).Msg("slow client, disconnecting")
		c.shutdown()
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Serve runs the connection until it closes, then leaves any joined room.
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		if c.session != nil {
			c.reg.Leave(c.session, c.id)
			c.session = nil
		}
		c.shutdown()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("player", c.id).Msg("unexpected close")
			}
			return
		}

		if !c.limiter.Allow() {
			c.Notify(notice(TypeError, errRateLimited))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Notify(notice(TypeError, errMalformed))
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(c.cfg.WriteWait))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("player", c.id).
				Str("type", msg.Type).
				Interface("panic", r).
				Msg("recovered while handling message")
			c.Notify(notice(TypeError, errInternal))
		}
	}()

	var err error
	switch msg.Type {
	case TypeCreateRoom:
		err = c.createRoom(msg)
	case TypeJoinRoom:
		err = c.joinRoom(msg)
	case TypeMakeGuess:
		err = c.withRoom(func(s *Session) error { return s.Guess(c.id, msg.Text) })
	case TypeRequestRematch:
		err = c.withRoom(func(s *Session) error { return s.RequestRematch(c.id) })
	case TypeAcceptRematch:
		err = c.withRoom(func(s *Session) error { return s.AcceptRematch(c.id) })
	case TypeDeclineRematch:
		err = c.withRoom(func(s *Session) error { return s.DeclineRematch(c.id) })
	default:
		err = errUnknownType
	}

	c.reply(msg.Type, err)
}

// reply reports a rejection to this connection only.
func (c *Client) reply(kind string, err error) {
	if err == nil {
		return
	}

	log.Debug().Err(err).Str("player", c.id).Str("type", kind).Msg("rejected")

	if userCorrectable(err) {
		c.Notify(notice(TypeInvalidWord, err))
		return
	}
	c.Notify(notice(TypeError, err))
}

func (c *Client) createRoom(msg ClientMessage) error {
	if msg.Name != "" {
		c.name = msg.Name
	}

	s, err := c.reg.Create(Config{
		MaxPlayers: msg.MaxPlayers,
		WordLength: msg.WordLength,
		TimeLimit:  budgetFrom(msg.TimeLimit),
	})
	if err != nil {
		return err
	}

	c.Notify(RoomCreatedMessage{Type: TypeRoomCreated, RoomCode: s.Code()})
	return nil
}

func (c *Client) joinRoom(msg ClientMessage) error {
	if msg.Name != "" {
		c.name = msg.Name
	}

	s, err := c.reg.Lookup(msg.RoomCode)
	if err != nil {
		return err
	}

	// A rejected join keeps the client in its current room.
	if err := s.Join(c.id, c.name, c); err != nil {
		return err
	}
	if old := c.session; old != nil && old != s {
		c.reg.Leave(old, c.id)
	}
	c.session = s
	return nil
}

func (c *Client) withRoom(fn func(*Session) error) error {
	if c.session == nil {
		return ErrNotInRoom
	}
	return fn(c.session)
}
