/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"

	"github.com/stanercelik/harfiye/duel"
	"github.com/stanercelik/harfiye/words"
)

const qrSize = 320

var connections atomic.Int64

type statsResponse struct {
	duel.Stats
	Connections int64          `json:"connections"`
	Words       map[string]int `json:"words"`
}

func newUpgrader(cfg *Config) *websocket.Upgrader {
	origins := cfg.origins()

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || lo.Contains(origins, strings.TrimSuffix(origin, "/"))
		},
	}
}

func serveWS(cfg *Config, reg *duel.Registry) httprouter.Handle {
	upgrader := newUpgrader(cfg)
	clientCfg := cfg.clientConfig()

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("ip", realIP(r)).Msg("websocket upgrade failed")
			return
		}

		client := duel.NewClient(conn, reg, clientCfg)

		open := connections.Add(1)
		log.Debug().
			Str("player", client.ID()).
			Str("ip", realIP(r)).
			Int64("connections", open).
			Msg("connected")

		startTime := time.Now()
		client.Serve()

		open = connections.Add(-1)
		log.Debug().
			Str("player", client.ID()).
			Dur("duration", time.Since(startTime).Round(time.Second)).
			Int64("connections", open).
			Msg("disconnected")
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		reportErr(errs, err)
	}
}

func lookupRoom(cfg *Config, reg *duel.Registry, w http.ResponseWriter, ps httprouter.Params, errs chan<- error) (*duel.Session, bool) {
	s, err := reg.Lookup(ps.ByName("code"))
	if err != nil {
		writeJSON(cfg, w, http.StatusNotFound, map[string]string{"error": err.Error()}, errs)
		return nil, false
	}
	return s, true
}

// serveRoom lets a client check a shared code before connecting.
func serveRoom(cfg *Config, reg *duel.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := lookupRoom(cfg, reg, w, ps, errs)
		if !ok {
			return
		}

		writeJSON(cfg, w, http.StatusOK, s.Snapshot(), errs)
	}
}

// shareURL is the join link for a room: --share-url when set, otherwise
// the scheme and host the request came in on.
func shareURL(cfg *Config, r *http.Request, code string) string {
	base := cfg.shareURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host + cfg.prefix
	}

	return strings.TrimSuffix(base, "/") + "/oda/" + url.PathEscape(code)
}

func serveRoomQR(cfg *Config, reg *duel.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := lookupRoom(cfg, reg, w, ps, errs)
		if !ok {
			return
		}

		png, err := qrcode.Encode(shareURL(cfg, r, s.Code()), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			reportErr(errs, err)
		}
	}
}

func serveStats(cfg *Config, reg *duel.Registry, dict *words.Lists, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		counts := lo.MapKeys(dict.Stats(), func(_ int, n int) string { return strconv.Itoa(n) })

		writeJSON(cfg, w, http.StatusOK, statsResponse{
			Stats:       reg.Stats(),
			Connections: connections.Load(),
			Words:       counts,
		}, errs)
	}
}

func registerRooms(cfg *Config, reg *duel.Registry, dict *words.Lists, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, reg))

	mux.GET(cfg.prefix+"/rooms/:code", serveRoom(cfg, reg, errs))

	mux.GET(cfg.prefix+"/rooms/:code/qr", serveRoomQR(cfg, reg, errs))

	mux.GET(cfg.prefix+"/stats", serveStats(cfg, reg, dict, errs))
}
