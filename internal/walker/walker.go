package walker

import (
	"slices"
	"sync"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/zclconf/go-cty/cty"
)

// State is the lifecycle state of a walker.
type State uint8

const (
	// StateReady is a spawned walker that has not stepped yet.
	StateReady State = iota
	StateActive
	StateCompleted
	StateDisengaged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateDisengaged:
		return "disengaged"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether a walker in state s will never step again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDisengaged || s == StateFailed
}

// Walker is a walker instance.
type Walker struct {
	id     string
	arch   *arch.Architype
	fields *arch.Fields
	args   cty.Value

	mu         sync.Mutex
	state      State
	position   handle.Handle
	queue      []handle.Handle
	ignored    map[handle.Handle]struct{}
	reports    []cty.Value
	errs       []error
	steps      int
	disengaged bool
}

func (w *Walker) ID() string { return w.id }
func (w *Walker) Architype() *arch.Architype { return w.arch }
func (w *Walker) Fields() *arch.Fields { return w.fields }
func (w *Walker) Args() cty.Value { return w.args }

// State returns the current lifecycle state.
func (w *Walker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Position returns the current position. It is the last position for a
// walker that has finished.
func (w *Walker) Position() handle.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position
}

// Queue returns a copy of the pending positions.
func (w *Walker) Queue() []handle.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.queue)
}

// Reports returns a copy of the reported values in report order.
func (w *Walker) Reports() []cty.Value {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.reports)
}

// Errors returns every ability error the walker has hit.
func (w *Walker) Errors() []error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.errs)
}

// Steps returns the number of positions processed.
func (w *Walker) Steps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

func (w *Walker) enqueue(first bool, targets []handle.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if first {
		w.queue = append(slices.Clone(targets), w.queue...)
		return
	}
	w.queue = append(w.queue, targets...)
}

func (w *Walker) pop() (handle.Handle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return handle.Nil, false
	}
	next := w.queue[0]
	w.queue = w.queue[1:]
	return next, true
}

func (w *Walker) ignore(targets []handle.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range targets {
		w.ignored[h] = struct{}{}
	}
}

func (w *Walker) isIgnored(h handle.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.ignored[h]
	return ok
}

func (w *Walker) report(v cty.Value) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, v)
}

func (w *Walker) recordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
}

func (w *Walker) lastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) == 0 {
		return nil
	}
	return w.errs[len(w.errs)-1]
}

func (w *Walker) disengage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.disengaged = true
}

func (w *Walker) isDisengaged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disengaged
}

func (w *Walker) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// moveTo sets a new position and returns the previous one.
func (w *Walker) moveTo(h handle.Handle) handle.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.position
	w.position = h
	return prev
}

func (w *Walker) countStep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.steps++
}
