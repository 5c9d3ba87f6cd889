// Package observer streams runner frames to websocket clients on loopback.
package observer

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/nodewar/internal/runner"
	"github.com/vovakirdan/nodewar/internal/world"
)

// Message types sent to observers.
const (
	TypeHello = "HELLO"
	TypeTick  = "TICK"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	frameBuffer  = 32
)

// Message is one JSON text frame on the wire.
type Message struct {
	Type    string            `json:"type"`
	WorldID string            `json:"world_id"`
	Tick    uint64            `json:"tick"`
	Digest  string            `json:"digest"`
	Paused  bool              `json:"paused"`
	Dropped int               `json:"dropped,omitempty"`
	Owners  map[string]int    `json:"owners,omitempty"`
	Events  []world.GameEvent `json:"events,omitempty"`
}

// Server upgrades observer connections and feeds them from one runner.
type Server struct {
	runner *runner.Runner
	log    *log.Logger

	upgrader websocket.Upgrader
	active   atomic.Int64
}

// NewServer creates an observer server for r. A nil logger discards output.
func NewServer(r *runner.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		runner: r,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Active returns the number of connected observers.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Handler serves the websocket endpoint. Non-loopback clients get 403.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer conn.Close()

		s.active.Add(1)
		defer s.active.Add(-1)
		s.log.Info("observer connected", "remote", r.RemoteAddr)

		sub := s.runner.Subscribe(frameBuffer)
		defer sub.Close()

		w := s.runner.World()
		hello := Message{
			Type:    TypeHello,
			WorldID: w.ID,
			Tick:    w.CurrentTick,
			Digest:  s.runner.Digest(),
			Paused:  w.IsPaused,
			Owners:  owners(w),
		}
		if err := writeJSON(conn, hello); err != nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Observers never send anything we act on; reading only surfaces the close.
		go func() {
			defer cancel()
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
					time.Now().Add(time.Second))
				s.log.Info("observer left", "remote", r.RemoteAddr)
				return
			case <-sub.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "run ended"),
					time.Now().Add(time.Second))
				return
			case f := <-sub.Frames():
				if err := writeJSON(conn, FrameMessage(f)); err != nil {
					s.log.Debug("observer write failed", "remote", r.RemoteAddr, "err", err)
					return
				}
			}
		}
	}
}

// FrameMessage converts a runner frame to its wire form.
func FrameMessage(f runner.Frame) Message {
	m := Message{
		Type:    TypeTick,
		Tick:    f.Tick,
		Digest:  f.Digest,
		Paused:  f.Paused,
		Dropped: f.Dropped,
		Events:  f.Events,
	}
	if f.World != nil {
		m.WorldID = f.World.ID
		m.Owners = owners(f.World)
	}
	return m
}

func owners(w *world.World) map[string]int {
	players := w.Players()
	if len(players) == 0 {
		return nil
	}
	out := make(map[string]int, len(players))
	for _, p := range players {
		out[p] = w.NodesOwnedBy(p)
	}
	return out
}

func writeJSON(conn *websocket.Conn, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
