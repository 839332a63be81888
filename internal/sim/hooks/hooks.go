// Package hooks holds externally registered callbacks consulted around game
// actions. "Before" chains stop at the first veto; "after" chains are
// observational and always run to completion.
package hooks

import "sync"

// Event names.
const (
	BeforeBreak     = "before_break"
	AfterBreak      = "after_break"
	BeforePlace     = "before_place"
	AfterPlace      = "after_place"
	BeforeReplace   = "before_replace"
	AfterReplace    = "after_replace"
	Interact        = "interact"
	ItemRightClick  = "item_right_click"
	DiggingStarted  = "digging_started"
	NeighborBroken  = "neighbor_broken"
	NeighborPlaced  = "neighbor_placed"
	NeighborChanged = "neighbor_changed"
	LoginPre        = "login_pre"
	LoginPost       = "login_post"
	ArmSwing        = "arm_swing"
	Chat            = "chat"
)

// Event carries the arguments of a hook invocation. Fields that do not apply
// to an event are left zero.
type Event struct {
	Name  string
	Actor string

	Dim     int8
	X, Y, Z int
	Face    int8

	// Source is the changed cell for neighbor events.
	SX, SY, SZ int

	Kind   byte
	Meta   byte
	ItemID int16
	Text   string

	// Prev is the kind a placement overwrites (0 for air).
	Prev byte
}

// Result is the verdict of a hook: Continue or Veto(reason).
type Result struct {
	vetoed bool
	reason string
}

func Continue() Result { return Result{} }

func Veto(reason string) Result { return Result{vetoed: true, reason: reason} }

func (r Result) Vetoed() bool   { return r.vetoed }
func (r Result) Reason() string { return r.reason }

type Func func(Event) Result

// Registry is safe for concurrent use; callbacks run on the caller's goroutine.
type Registry struct {
	mu     sync.RWMutex
	chains map[string][]Func
}

func New() *Registry {
	return &Registry{chains: map[string][]Func{}}
}

func (r *Registry) Register(name string, f Func) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[name] = append(r.chains[name], f)
}

func (r *Registry) chain(name string) []Func {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chains[name]
}

// Len returns the number of callbacks registered under name.
func (r *Registry) Len(name string) int { return len(r.chain(name)) }

// RunUntilVeto calls the chain in registration order and returns the first veto.
func (r *Registry) RunUntilVeto(name string, ev Event) Result {
	ev.Name = name
	for _, f := range r.chain(name) {
		if res := f(ev); res.Vetoed() {
			return res
		}
	}
	return Continue()
}

// RunAll calls every callback; results are ignored.
func (r *Registry) RunAll(name string, ev Event) {
	ev.Name = name
	for _, f := range r.chain(name) {
		_ = f(ev)
	}
}
