package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/lanewars/server/internal/net"
	"go.uber.org/zap"
)

func newUpgrader(origins []string) *websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// serveWS upgrades the request and hands the connection to the session
// manager. The request goroutine becomes the session's intake worker.
func (h *handlers) serveWS(up *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			h.cfg.Log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		sess := net.NewSession(net.NewWSConn(conn, h.cfg.MaxFrameSize), net.NextSessionID(),
			h.cfg.SessionConfig, h.cfg.Log)
		h.cfg.Log.Debug("websocket connection accepted",
			zap.Uint64("session", sess.ID),
			zap.String("ip", sess.IP),
		)
		h.cfg.Sessions.Serve(sess)
	}
}
