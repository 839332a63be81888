package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUntilVeto_StopsAtFirstVeto(t *testing.T) {
	r := New()
	var calls []string
	r.Register(BeforeBreak, func(ev Event) Result {
		calls = append(calls, "a")
		return Continue()
	})
	r.Register(BeforeBreak, func(ev Event) Result {
		calls = append(calls, "b")
		return Veto("protected")
	})
	r.Register(BeforeBreak, func(ev Event) Result {
		calls = append(calls, "c")
		return Continue()
	})

	res := r.RunUntilVeto(BeforeBreak, Event{Actor: "p1", X: 1, Y: 2, Z: 3})
	require.True(t, res.Vetoed())
	assert.Equal(t, "protected", res.Reason())
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestRunAll_IgnoresVetoes(t *testing.T) {
	r := New()
	n := 0
	for i := 0; i < 3; i++ {
		r.Register(AfterPlace, func(ev Event) Result {
			n++
			assert.Equal(t, AfterPlace, ev.Name)
			return Veto("ignored")
		})
	}
	r.RunAll(AfterPlace, Event{})
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, r.Len(AfterPlace))
}

func TestEmptyChainContinues(t *testing.T) {
	var r *Registry
	assert.False(t, r.RunUntilVeto(BeforePlace, Event{}).Vetoed())
	r.RunAll(AfterPlace, Event{})

	r = New()
	r.Register(BeforePlace, nil)
	assert.Equal(t, 0, r.Len(BeforePlace))
	assert.False(t, r.RunUntilVeto(BeforePlace, Event{}).Vetoed())
}
