package session

import "time"

// Event kinds.
const (
	EventLogin = "login"
	EventLeave = "leave"
	EventKick  = "kick"
)

// Event is one line of the session log.
type Event struct {
	Time    string `json:"time"`
	Session string `json:"session"`
	Name    string `json:"name,omitempty"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Remote  string `json:"remote,omitempty"`
}

type EventLogger interface {
	WriteSessionEvent(ev Event) error
}

// SetEventLogger installs l; it must be called before sessions are accepted.
func (h *Hub) SetEventLogger(l EventLogger) { h.events = l }

func (h *Hub) logEvent(s *Session, kind, name, reason string) {
	if h.events == nil {
		return
	}
	ev := Event{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Session: s.ID,
		Name:    name,
		Kind:    kind,
		Reason:  reason,
		Remote:  s.Remote,
	}
	if err := h.events.WriteSessionEvent(ev); err != nil {
		h.logger.Printf("session log write failed: %v", err)
	}
}
