package world

import "time"

type AuditEntry struct {
	Seq    uint64 `json:"seq"`
	Time   string `json:"time"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // e.g. "SET_BLOCK"
	Dim    int8   `json:"dim"`
	Pos    [3]int `json:"pos"`
	From   byte   `json:"from"`
	To     byte   `json:"to"`
	Reason string `json:"reason,omitempty"`
}

func (w *World) auditSetBlock(actor string, p Pos, from, to Cell, reason string) {
	if w.audit == nil {
		return
	}
	entry := AuditEntry{
		Seq:    w.seq.Add(1),
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Actor:  actor,
		Action: "SET_BLOCK",
		Dim:    p.Dim,
		Pos:    p.ToArray(),
		From:   from.Kind,
		To:     to.Kind,
		Reason: reason,
	}
	if err := w.audit.WriteAudit(entry); err != nil {
		w.logger.Printf("audit write failed: %v", err)
	}
}
