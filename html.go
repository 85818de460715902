/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := io.WriteString(w, newPage("Harfiye", "Harfiye v"+releaseVersion+": oyun sunucusu "+cfg.prefix+"/ws adresinde çalışıyor."))
		if err != nil {
			reportErr(errs, err)

			return
		}
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			reportErr(errs, err)

			return
		}
	}
}

func robotsTxt(cfg *Config) string {
	var b strings.Builder

	b.WriteString("User-agent: *\n")
	for _, path := range []string{"/ws", "/rooms/", "/stats", "/debug/"} {
		b.WriteString("Disallow: " + cfg.prefix + path + "\n")
	}
	b.WriteString("\nUser-agent: GPTBot\nDisallow: /\n")
	b.WriteString("\nUser-agent: CCBot\nDisallow: /\n")

	return b.String()
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	data := robotsTxt(cfg)

	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			reportErr(errs, err)

			return
		}
	}
}
