package api

import (
	"log/slog"
	"net/http"
)

// handleStream upgrades to a websocket and relays every published nest
// snapshot until the client disconnects. The first frame is always the
// current state so late joiners start consistent.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, cancel := s.Keeper.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(s.Keeper.Snapshot()); err != nil {
		return
	}

	// Reads only serve to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
