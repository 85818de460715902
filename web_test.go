/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stanercelik/harfiye/duel"
	"github.com/stanercelik/harfiye/words"
)

func testConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		maxMessageSize: 4096,
		port:           8080,
		rateBurst:      20,
		rateLimit:      10,
		sessionTimeout: time.Minute,
	}
}

func testRouter(t *testing.T, cfg *Config) (http.Handler, *duel.Registry) {
	t.Helper()

	dict, err := words.Embedded()
	if err != nil {
		t.Fatal(err)
	}

	reg := duel.NewRegistry(dict, clockwork.NewFakeClock(), cfg.sessionTimeout)
	t.Cleanup(reg.Close)

	errs := make(chan error, 64)
	return newCORS(cfg).Handler(newRouter(cfg, reg, dict, errs)), reg
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"cert and key", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"no rate", func(c *Config) { c.rateLimit = 0 }, false},
		{"no burst", func(c *Config) { c.rateBurst = 0 }, false},
		{"negative timeout", func(c *Config) { c.sessionTimeout = -time.Second }, false},
		{"relative share url", func(c *Config) { c.shareURL = "oda" }, false},
		{"absolute share url", func(c *Config) { c.shareURL = "https://harfiye.example" }, true},
	}

	for _, tc := range cases {
		cfg := testConfig()
		tc.mutate(cfg)
		err := cfg.validate()
		if tc.ok && err != nil {
			t.Errorf("%s: validate() = %v, want nil", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: validate() = nil, want error", tc.name)
		}
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("HARFIYE_PORT", "9090")
	t.Setenv("HARFIYE_SESSION_TIMEOUT", "30s")

	cfg := &Config{}
	newCmd(cfg)

	if cfg.port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.port)
	}
	if cfg.sessionTimeout != 30*time.Second {
		t.Errorf("session timeout = %s, want 30s", cfg.sessionTimeout)
	}
	if cfg.rateLimit != 10 {
		t.Errorf("rate limit = %v, want default 10", cfg.rateLimit)
	}
}

func TestOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.allowedOrigins = []string{" https://a.example/ ", "", "https://b.example"}

	got := cfg.origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("origins() = %v", got)
	}
}

func TestHumanReadableSize(t *testing.T) {
	cases := map[int64]string{
		0:       "0 B",
		999:     "999 B",
		1000:    "1.0 kB",
		1500000: "1.5 MB",
	}
	for in, want := range cases {
		if got := humanReadableSize(in); got != want {
			t.Errorf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestServeBasics(t *testing.T) {
	h, _ := testRouter(t, testConfig())

	if w := get(h, "/healthz"); w.Code != http.StatusOK || w.Body.String() != "Ok\n" {
		t.Errorf("GET /healthz = %d %q", w.Code, w.Body.String())
	}
	if w := get(h, "/version"); !strings.Contains(w.Body.String(), releaseVersion) {
		t.Errorf("GET /version = %q", w.Body.String())
	}
	if w := get(h, "/robots.txt"); !strings.Contains(w.Body.String(), "Disallow: /ws") {
		t.Errorf("GET /robots.txt = %q", w.Body.String())
	}
	if w := get(h, "/"); w.Code != http.StatusOK || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("GET / = %d, headers %v", w.Code, w.Header())
	}
}

func TestServeRoom(t *testing.T) {
	h, reg := testRouter(t, testConfig())

	s, err := reg.Create(duel.Config{MaxPlayers: 3, WordLength: 6, TimeLimit: duel.Seconds(45)})
	if err != nil {
		t.Fatal(err)
	}

	w := get(h, "/rooms/"+strings.ToLower(s.Code()))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /rooms/:code = %d", w.Code)
	}

	var st struct {
		RoomCode   string `json:"roomCode"`
		MaxPlayers int    `json:"maxPlayers"`
		WordLength int    `json:"wordLength"`
		TimeLimit  int    `json:"timeLimit"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.RoomCode != s.Code() || st.MaxPlayers != 3 || st.WordLength != 6 || st.TimeLimit != 45 || st.Status != "waiting" {
		t.Errorf("snapshot = %+v", st)
	}

	if w := get(h, "/rooms/ZZZZZZ"); w.Code != http.StatusNotFound {
		t.Errorf("GET unknown room = %d, want 404", w.Code)
	}
}

func TestServeRoomQR(t *testing.T) {
	h, reg := testRouter(t, testConfig())

	s, err := reg.Create(duel.Config{MaxPlayers: 2, WordLength: 5, TimeLimit: duel.Unlimited()})
	if err != nil {
		t.Fatal(err)
	}

	w := get(h, "/rooms/"+s.Code()+"/qr")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("GET qr = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("qr body is not a PNG")
	}

	if w := get(h, "/rooms/ZZZZZZ/qr"); w.Code != http.StatusNotFound {
		t.Errorf("GET qr for unknown room = %d, want 404", w.Code)
	}
}

func TestShareURL(t *testing.T) {
	cfg := testConfig()

	req := httptest.NewRequest(http.MethodGet, "/rooms/ABCDEF/qr", nil)
	req.Host = "oyun.example:8080"
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := shareURL(cfg, req, "ABCDEF"); got != "https://oyun.example:8080/oda/ABCDEF" {
		t.Errorf("derived share url = %q", got)
	}

	cfg.shareURL = "https://harfiye.example/"
	if got := shareURL(cfg, req, "ABCDEF"); got != "https://harfiye.example/oda/ABCDEF" {
		t.Errorf("configured share url = %q", got)
	}
}

func TestServeStats(t *testing.T) {
	h, reg := testRouter(t, testConfig())

	if _, err := reg.Create(duel.Config{MaxPlayers: 2, WordLength: 7, TimeLimit: duel.Unlimited()}); err != nil {
		t.Fatal(err)
	}

	var st struct {
		Rooms   int            `json:"rooms"`
		Players int            `json:"players"`
		Phases  map[string]int `json:"phases"`
		Words   map[string]int `json:"words"`
	}
	w := get(h, "/stats")
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	if st.Rooms != 1 || st.Players != 0 || st.Phases["waiting"] != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.Words["5"] == 0 || st.Words["6"] == 0 || st.Words["7"] == 0 {
		t.Errorf("word counts = %v", st.Words)
	}
}

func TestReportErrDoesNotBlock(t *testing.T) {
	errs := make(chan error, 1)
	boom := errors.New("write failed")

	done := make(chan struct{})
	go func() {
		defer close(done)
		reportErr(errs, boom)
		reportErr(errs, boom)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reportErr blocked on a full channel")
	}
	if got := <-errs; got != boom {
		t.Errorf("buffered error = %v", got)
	}
}

func TestFullErrorBufferDoesNotStallHandlers(t *testing.T) {
	dict, err := words.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	reg := duel.NewRegistry(dict, clockwork.NewFakeClock(), 0)
	t.Cleanup(reg.Close)

	errs := make(chan error, 1)
	errs <- errors.New("nobody is draining")
	h := newRouter(testConfig(), reg, dict, errs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w := &failingWriter{ResponseRecorder: httptest.NewRecorder()}
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler blocked reporting a write error")
	}
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}
