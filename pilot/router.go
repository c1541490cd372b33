package main

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"

	"balatro-pilot/pilot/agent"
	"balatro-pilot/pilot/coord"
	"balatro-pilot/pilot/memory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// embed the /web directory so the status page ships in the binary
//
//go:embed web/*
var webFS embed.FS

func Router(mem *memory.Store, co *coord.Coordinator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	sub, _ := fs.Sub(webFS, "web")
	r.Handle("/web/*", http.StripPrefix("/web/", http.FileServer(http.FS(sub))))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/web/status.html", http.StatusFound)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	// Coordinator phase and cycle count; idle when nothing is running.
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if co == nil {
			writeJSON(w, map[string]any{"phase": "idle"})
			return
		}
		writeJSON(w, co.Status())
	})

	r.Get("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mem.Summary())
	})

	r.Get("/api/aggregate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mem.AggregateView())
	})

	r.Get("/api/last-session", func(w http.ResponseWriter, r *http.Request) {
		last := mem.LastSession()
		if last == nil {
			http.Error(w, "no sessions yet", http.StatusNotFound)
			return
		}
		writeJSON(w, last)
	})

	// What the memory would advise for a hypothetical game state, e.g.
	// /api/recommendation?ante=3&money=12
	r.Get("/api/recommendation", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ante, err := strconv.Atoi(q.Get("ante"))
		if err != nil || ante < 1 {
			http.Error(w, "bad ante", http.StatusBadRequest)
			return
		}
		money := 0
		if v := q.Get("money"); v != "" {
			if money, err = strconv.Atoi(v); err != nil {
				http.Error(w, "bad money", http.StatusBadRequest)
				return
			}
		}
		snap := agent.GameSnapshot{Stats: agent.PlayerStats{Ante: ante, Money: money}}
		writeJSON(w, mem.RecommendStrategy(snap))
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
