package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/world"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SnapshotSource exposes the most recent world snapshot.
type SnapshotSource interface {
	Latest() *world.Snapshot
}

// SessionServer runs a game session to completion.
type SessionServer interface {
	Serve(sess *net.Session)
	Count() int
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
type RouterConfig struct {
	Snapshots SnapshotSource
	Sessions  SessionServer // nil disables the WebSocket endpoint

	SessionConfig net.SessionConfig
	MaxFrameSize  int
	WSPath        string
	CORSOrigins   []string
	MatchID       string

	Log *zap.Logger
}

// NewRouter builds the admin and WebSocket routes. It starts no goroutines
// and opens no listeners, so it can be mounted on httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.WSPath == "" {
		cfg.WSPath = "/ws"
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	h := &handlers{cfg: cfg}
	r.Get("/healthz", h.health)
	r.Get("/debug/entities", h.entities)
	r.Get("/debug/entities/{uid}", h.entity)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Sessions != nil {
		r.Get(cfg.WSPath, h.serveWS(newUpgrader(origins)))
	}
	return r
}

type handlers struct {
	cfg RouterConfig
}

type healthResponse struct {
	Status   string `json:"status"`
	Match    string `json:"match,omitempty"`
	Tick     uint64 `json:"tick"`
	Entities int    `json:"entities"`
	Sessions int    `json:"sessions"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Match: h.cfg.MatchID}
	if snap := h.cfg.Snapshots.Latest(); snap != nil {
		resp.Tick = snap.Tick
		resp.Entities = len(snap.Entities)
	} else {
		resp.Status = "starting"
	}
	if h.cfg.Sessions != nil {
		resp.Sessions = h.cfg.Sessions.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

type entityView struct {
	UID   uint64  `json:"uid"`
	Kind  string  `json:"kind"`
	Team  string  `json:"team"`
	Name  string  `json:"name,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	HP    float64 `json:"hp"`
	MaxHP float64 `json:"max_hp"`
	Alive bool    `json:"alive"`
}

type entitiesResponse struct {
	Tick       uint64       `json:"tick"`
	ServerTime float64      `json:"server_time"`
	Entities   []entityView `json:"entities"`
}

func (h *handlers) entities(w http.ResponseWriter, r *http.Request) {
	snap := h.cfg.Snapshots.Latest()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	kind := r.URL.Query().Get("kind")
	resp := entitiesResponse{
		Tick:       snap.Tick,
		ServerTime: snap.ServerTime,
		Entities:   make([]entityView, 0, len(snap.Entities)),
	}
	for _, e := range snap.Entities {
		if kind != "" && e.Kind.String() != kind {
			continue
		}
		resp.Entities = append(resp.Entities, newEntityView(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) entity(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseUint(chi.URLParam(r, "uid"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad uid"})
		return
	}
	snap := h.cfg.Snapshots.Latest()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	e, ok := snap.Find(uid)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such entity"})
		return
	}
	writeJSON(w, http.StatusOK, newEntityView(e))
}

func newEntityView(e world.Entity) entityView {
	v := entityView{
		UID:   e.UID,
		Kind:  e.Kind.String(),
		Team:  e.Team.String(),
		X:     e.Pos.X,
		Y:     e.Pos.Y,
		HP:    e.HP,
		MaxHP: e.MaxHP,
		Alive: e.Alive,
	}
	if e.Hero != nil {
		v.Name = e.Hero.Name
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
