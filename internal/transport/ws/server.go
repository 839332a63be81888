// Package ws carries the binary protocol over websocket binary messages, for
// browser clients. Message boundaries carry no meaning: the payloads are
// concatenated into the session's byte stream exactly like TCP reads.
package ws

import (
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/poizan42/mineserver/internal/session"
)

const writeTimeout = 5 * time.Second

type Config struct {
	IdleTimeout time.Duration
	// IdleReason is the kick message sent when a client stays silent for
	// IdleTimeout.
	IdleReason string
}

type Server struct {
	hub *session.Hub
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(hub *session.Hub, cfg Config, logger *log.Logger) *Server {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.IdleReason == "" {
		cfg.IdleReason = "Timed out"
	}
	return &Server{
		hub: hub,
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.hub.NewSession(r.RemoteAddr)
		defer s.hub.Remove(sess)

		// Writer goroutine.
		wdone := make(chan struct{})
		go func() {
			defer close(wdone)
			for b := range sess.Out() {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
					sess.Close()
					_ = conn.Close()
					return
				}
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					s.log.Printf("session %s idle, kicking", sess.ID)
					sess.Kick(s.cfg.IdleReason)
				}
				break
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			if err := sess.Feed(msg); err != nil {
				break
			}
			if sess.Closed() {
				break
			}
		}
		sess.Close()
		<-wdone
	}
}
