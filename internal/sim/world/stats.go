package world

import "sync/atomic"

type Stats struct {
	breaks        atomic.Uint64
	places        atomic.Uint64
	interactions  atomic.Uint64
	reverts       atomic.Uint64
	vetoes        atomic.Uint64
	notifications atomic.Uint64
	fallSteps     atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the world counters.
type StatsSnapshot struct {
	Breaks        uint64 `json:"breaks"`
	Places        uint64 `json:"places"`
	Interactions  uint64 `json:"interactions"`
	Reverts       uint64 `json:"reverts"`
	Vetoes        uint64 `json:"vetoes"`
	Notifications uint64 `json:"notifications"`
	FallSteps     uint64 `json:"fall_steps"`
}

func (w *World) Stats() StatsSnapshot {
	return StatsSnapshot{
		Breaks:        w.stats.breaks.Load(),
		Places:        w.stats.places.Load(),
		Interactions:  w.stats.interactions.Load(),
		Reverts:       w.stats.reverts.Load(),
		Vetoes:        w.stats.vetoes.Load(),
		Notifications: w.stats.notifications.Load(),
		FallSteps:     w.stats.fallSteps.Load(),
	}
}
