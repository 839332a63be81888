// Package tcp serves the binary protocol over raw TCP connections.
package tcp

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/poizan42/mineserver/internal/session"
)

const writeTimeout = 5 * time.Second

type Config struct {
	// IdleTimeout kicks a connection that sends nothing for this long
	// (0 disables it).
	IdleTimeout time.Duration
	IdleReason  string
}

type Server struct {
	hub *session.Hub
	cfg Config
	log *log.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(hub *session.Hub, cfg Config, logger *log.Logger) *Server {
	if cfg.IdleReason == "" {
		cfg.IdleReason = "Timed out"
	}
	return &Server{
		hub:   hub,
		cfg:   cfg,
		log:   logger,
		conns: map[net.Conn]struct{}{},
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It closes ln and every
// open connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		s.closeAll()
	}()

	s.log.Printf("tcp listening on %s", ln.Addr())
	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil && !errors.Is(aerr, net.ErrClosed) {
				err = aerr
			}
			break
		}
		if !s.track(conn) {
			_ = conn.Close()
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
	s.closeAll()
	s.wg.Wait()
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	sess := s.hub.NewSession(conn.RemoteAddr().String())
	defer s.hub.Remove(sess)

	// Writer goroutine: drains the session queue, including a final kick,
	// then closes the connection so the reader unblocks.
	wdone := make(chan struct{})
	go func() {
		defer close(wdone)
		defer conn.Close()
		for pkt := range sess.Out() {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := conn.Write(pkt); err != nil {
				sess.Close()
				return
			}
		}
	}()

	// Reader loop.
	buf := make([]byte, 4096)
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			if ferr := sess.Feed(buf[:n]); ferr != nil {
				break
			}
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Printf("session %s idle, kicking", sess.ID)
				sess.Kick(s.cfg.IdleReason)
			}
			break
		}
		if sess.Closed() {
			break
		}
	}
	sess.Close()
	<-wdone
}
