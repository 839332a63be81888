package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/poizan42/mineserver/internal/protocol"
)

// bot logs in over the websocket transport, places the held block on the
// ground next to spawn, digs it again and then idles until interrupted.
func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "bot", "player name")
		version = flag.Int("protocol", 39, "protocol version")
		chat    = flag.String("say", "hello", "chat message sent after login (empty to skip)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(m protocol.Message) {
		if err := conn.WriteMessage(websocket.BinaryMessage, m.Encode()); err != nil {
			logger.Fatalf("write: %v", err)
		}
	}

	in := make(chan protocol.Message, 64)
	go func() {
		defer close(in)
		lim := protocol.DefaultLimits()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			for len(data) > 0 {
				m, n, err := protocol.Decode(data, lim)
				if err != nil {
					logger.Printf("decode 0x%02x: %v", data[0], err)
					break
				}
				in <- m
				data = data[n:]
			}
		}
	}()

	send(&protocol.Handshake{Version: int8(*version), Username: *name, Host: "localhost", Port: 25565})

	var pos *protocol.PlayerPositionAndLook
	timeout := time.After(10 * time.Second)
	for pos == nil {
		select {
		case m, ok := <-in:
			if !ok {
				logger.Fatalf("connection closed during login")
			}
			switch m := m.(type) {
			case *protocol.Disconnect:
				logger.Fatalf("kicked: %s", m.Reason)
			case *protocol.Login:
				logger.Printf("logged in: eid=%d mode=%d max=%d", m.EntityID, m.GameMode, m.MaxPlayers)
			case *protocol.PlayerPositionAndLook:
				pos = m
			}
		case <-timeout:
			logger.Fatalf("login timed out")
		}
	}
	logger.Printf("spawned at %.1f %.1f %.1f", pos.X, pos.Stance, pos.Z)

	if *chat != "" {
		send(&protocol.ChatMessage{Message: *chat})
	}

	// Ground below the feet, two blocks east.
	gx := int32(math.Floor(pos.X)) + 2
	gy := uint8(int(math.Floor(pos.Stance)) - 1)
	gz := int32(math.Floor(pos.Z))

	send(&protocol.HoldingChange{Slot: 0})
	send(&protocol.PlayerBlockPlacement{
		X: gx, Y: gy, Z: gz, Face: 1,
		Held: protocol.Slot{ItemID: 1, Count: 1},
	})
	// The placed block sits on top of the clicked one.
	send(&protocol.PlayerDigging{Status: protocol.DigStarted, X: gx, Y: gy + 1, Z: gz, Face: 1})
	send(&protocol.PlayerDigging{Status: protocol.DigFinished, X: gx, Y: gy + 1, Z: gz, Face: 1})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	wander := time.NewTicker(2 * time.Second)
	defer wander.Stop()
	for {
		select {
		case <-interrupt:
			send(&protocol.Disconnect{Reason: "Quitting"})
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			switch m := m.(type) {
			case *protocol.KeepAlive:
				send(&protocol.KeepAlive{KeepAliveID: m.KeepAliveID})
			case *protocol.BlockChange:
				logger.Printf("block %d,%d,%d -> %d:%d", m.X, m.Y, m.Z, m.Type, m.Meta)
			case *protocol.ChatMessage:
				logger.Printf("chat: %s", m.Message)
			case *protocol.Disconnect:
				logger.Printf("kicked: %s", m.Reason)
				return
			}
		case <-wander.C:
			send(&protocol.PlayerLook{Yaw: float32(rand.Intn(360)), Pitch: 0, OnGround: true})
		}
	}
}
