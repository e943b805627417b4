// Package fakeupstream serves canned ESI and zKillboard responses for tests.
package fakeupstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Pilot is one character known to the fake servers.
type Pilot struct {
	ID            int64
	Name          string
	CorporationID int64
	AllianceID    int64
	// Stats is the raw zKillboard stats body. Empty means "[]".
	Stats string
}

// Corporation is one corporation known to the fake ESI server.
type Corporation struct {
	Name       string
	Ticker     string
	AllianceID int64
}

// Server is a pair of httptest servers standing in for ESI and zKillboard.
type Server struct {
	ESI   *httptest.Server
	ZKill *httptest.Server

	mu            sync.RWMutex
	pilots        map[int64]Pilot
	corporations  map[int64]Corporation
	alliances     map[int64]Corporation
	resolveStatus int

	ResolveCalls   atomic.Int32
	CharacterCalls atomic.Int32
	StatsCalls     atomic.Int32
}

// New starts both servers. Call Close when done.
func New() *Server {
	s := &Server{
		pilots:       make(map[int64]Pilot),
		corporations: make(map[int64]Corporation),
		alliances:    make(map[int64]Corporation),
	}
	s.ESI = httptest.NewServer(s.esiHandler())
	s.ZKill = httptest.NewServer(s.zkillHandler())
	return s
}

// Default returns a server seeded with a small roster.
func Default() *Server {
	s := New()
	s.AddCorporation(2001, Corporation{Name: "Sniggerdly", Ticker: "SNGRD", AllianceID: 3001})
	s.AddCorporation(2002, Corporation{Name: "Analytical Engines", Ticker: "ENGN"})
	s.AddAlliance(3001, Corporation{Name: "Pandemic Legion", Ticker: "-10.0"})
	s.AddPilot(Pilot{ID: 1001, Name: "Vex", CorporationID: 2001,
		Stats: `{"shipsDestroyed":100,"shipsLost":1,"topLists":[{"type":"shipType","values":[{"shipTypeID":22456,"shipName":"Sabre","groupID":541,"groupName":"Interdictor","kills":40}]}]}`})
	s.AddPilot(Pilot{ID: 1002, Name: "Ada Lovelace", CorporationID: 2002,
		Stats: `{"shipsDestroyed":5,"shipsLost":10,"iskDestroyed":1500000000}`})
	s.AddPilot(Pilot{ID: 1003, Name: "Titan Pilot", CorporationID: 2001,
		Stats: `{"shipsDestroyed":2000,"shipsLost":10,"soloKills":900,"dangerRatio":95,"activepvp":{"kills":{"count":70}},"topLists":[{"type":"shipType","values":[{"shipTypeID":11567,"shipName":"Avatar","groupID":30,"groupName":"Titan","kills":12}]}]}`})
	s.AddPilot(Pilot{ID: 1004, Name: "Quiet", CorporationID: 2002})
	return s
}

// AddPilot registers p with both servers.
func (s *Server) AddPilot(p Pilot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pilots[p.ID] = p
}

// AddCorporation registers a corporation.
func (s *Server) AddCorporation(id int64, c Corporation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corporations[id] = c
}

// AddAlliance registers an alliance.
func (s *Server) AddAlliance(id int64, a Corporation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alliances[id] = a
}

// FailResolve makes the name resolution endpoint answer with status.
// Zero restores normal behaviour.
func (s *Server) FailResolve(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveStatus = status
}

// Close shuts both servers down.
func (s *Server) Close() {
	s.ESI.Close()
	s.ZKill.Close()
}

func (s *Server) esiHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /universe/ids/", func(w http.ResponseWriter, r *http.Request) {
		s.ResolveCalls.Add(1)
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.resolveStatus != 0 {
			http.Error(w, `{"error":"unavailable"}`, s.resolveStatus)
			return
		}
		var names []string
		if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
			http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
			return
		}
		type entry struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		var chars []entry
		for _, n := range names {
			for _, p := range s.pilots {
				if strings.EqualFold(p.Name, n) {
					chars = append(chars, entry{ID: p.ID, Name: p.Name})
				}
			}
		}
		writeJSON(w, map[string]any{"characters": chars})
	})
	mux.HandleFunc("GET /characters/{id}/", func(w http.ResponseWriter, r *http.Request) {
		s.CharacterCalls.Add(1)
		p, ok := s.pilot(r.PathValue("id"))
		if !ok {
			http.Error(w, `{"error":"Character not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"name": p.Name, "corporation_id": p.CorporationID, "alliance_id": p.AllianceID})
	})
	mux.HandleFunc("GET /corporations/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.RLock()
		c, ok := s.corporations[id]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"name": c.Name, "ticker": c.Ticker, "alliance_id": c.AllianceID})
	})
	mux.HandleFunc("GET /alliances/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		s.mu.RLock()
		a, ok := s.alliances[id]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"name": a.Name, "ticker": a.Ticker})
	})
	return mux
}

func (s *Server) zkillHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats/characterID/{id}/", func(w http.ResponseWriter, r *http.Request) {
		s.StatsCalls.Add(1)
		p, ok := s.pilot(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		body := p.Stats
		if body == "" {
			body = "[]"
		}
		_, _ = fmt.Fprint(w, body)
	})
	return mux
}

func (s *Server) pilot(raw string) (Pilot, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Pilot{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pilots[id]
	return p, ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
