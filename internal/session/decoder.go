package session

import (
	"github.com/poizan42/mineserver/internal/protocol"
)

var errNotLoggedIn = &protocol.Error{Code: protocol.ErrProtoNotLoggedIn, Msg: "Not logged in"}

// Feed appends bytes read from the connection and dispatches every complete
// message. A returned error is fatal: the session has already been kicked
// with a reason and the caller should stop reading.
func (s *Session) Feed(p []byte) error {
	if s.Closed() {
		return nil
	}
	if err := s.buf.Append(p); err != nil {
		return s.fail(&protocol.Error{Code: protocol.ErrProtoMalformed, Msg: "Too much unparsed data", Err: err})
	}
	for !s.Closed() {
		b := s.buf.Bytes()
		if len(b) < 1 {
			return nil
		}
		id := b[0]
		e, ok := s.table.Lookup(id)
		if !ok {
			return s.fail(protocol.UnknownPacket(id))
		}
		if e.MinLen != Variable && len(b) < 1+e.MinLen {
			return nil
		}
		if !e.PreLogin && !s.LoggedIn() {
			return s.fail(errNotLoggedIn)
		}

		r := protocol.NewReader(b[1:], s.lim)
		v, err := e.Handle(s, r)
		if err != nil {
			return s.fail(err)
		}
		if v == NeedMoreData {
			return nil
		}
		s.buf.Discard(1 + r.Offset())
		s.packetsIn.Add(1)
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.logger.Printf("session %s (%s): %v", s.ID, s.Name(), err)
	s.hub.stats.kicks.Add(1)
	reason := protocol.Reason(err)
	s.hub.logEvent(s, EventKick, s.Name(), reason)
	s.Kick(reason)
	return err
}
