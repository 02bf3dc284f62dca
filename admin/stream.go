package admin

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const streamPingInterval = 30 * time.Second

// handleStream upgrades to a websocket and pushes every published snapshot
// as a JSON text frame. Slow clients skip intermediate snapshots.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if int(s.streams.Add(1)) > s.opts.MaxStreams {
		s.streams.Add(-1)
		if skipped, ok := s.rejections.Allow(); ok {
			s.opts.Logf("Admin: rejected stream from %s (limit %d, %d more since last report)",
				r.RemoteAddr, s.opts.MaxStreams, skipped)
		}
		http.Error(w, "too many stream clients", http.StatusServiceUnavailable)
		return
	}
	defer s.streams.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Logf("Admin: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := s.ctrl.Subscribe(1)
	defer cancel()

	// The read pump only notices client close; inbound frames are ignored.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(s.opts.WriteTimeout))
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				s.opts.Logf("Admin: encode snapshot %d: %v", snap.Seq, err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// RejectedStreams counts stream attempts refused at the client limit.
func (s *Server) RejectedStreams() uint64 {
	return s.rejections.Total()
}

// ActiveStreams reports connected websocket clients.
func (s *Server) ActiveStreams() int {
	return int(s.streams.Load())
}
