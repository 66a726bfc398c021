package walker

import (
	"context"
	"fmt"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/ctxlog"
	"github.com/vk/walkgrid/internal/dispatch"
	"github.com/vk/walkgrid/internal/handle"
)

// OutcomeKind is the walker state after a step.
type OutcomeKind uint8

const (
	// OutcomeContinue means the walker moved to its next position.
	OutcomeContinue OutcomeKind = iota
	OutcomeCompleted
	OutcomeDisengaged
	// OutcomeFailed means the walker halted on an error, or the context
	// was done before the step started. In the latter case the walker is
	// only paused: its state, position, pin and queue are untouched, no
	// error is recorded, and a later Step with a live context resumes it.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeCompleted:
		return "completed"
	case OutcomeDisengaged:
		return "disengaged"
	default:
		return "failed"
	}
}

// StepOutcome reports what one Step did. Err is set whenever an ability
// failed during the step, even if the policy let the walker continue.
type StepOutcome struct {
	Kind        OutcomeKind
	Position    handle.Handle
	Invocations int
	Err         error
}

// Step processes the walker's current position: entry dispatch, exit
// dispatch, then advance. Calling Step on a finished walker returns its
// final outcome again.
func (e *Engine) Step(ctx context.Context, w *Walker) StepOutcome {
	switch w.State() {
	case StateCompleted:
		return StepOutcome{Kind: OutcomeCompleted, Position: w.Position()}
	case StateDisengaged:
		return StepOutcome{Kind: OutcomeDisengaged, Position: w.Position()}
	case StateFailed:
		return StepOutcome{Kind: OutcomeFailed, Position: w.Position(), Err: w.lastError()}
	}
	pos := w.Position()
	if err := ctx.Err(); err != nil {
		return StepOutcome{Kind: OutcomeFailed, Position: pos, Err: err}
	}

	ctx, logger := ctxlog.With(ctx, "walker", w.id, "walker_arch", w.arch.Name)
	w.setState(StateActive)
	w.countStep()

	here, err := e.store.Instance(pos)
	if err != nil {
		w.recordError(err)
		return e.finish(ctx, w, StateFailed, 0, err)
	}
	logger.Debug("Visiting position.", "position", pos.String(), "arch", here.Architype().Name)
	e.notify(ctx, w, TraceEvent{Kind: TraceVisit, Position: pos, PositionArch: here.Architype().Name})

	var stepErr error
	invoked := 0
	for _, ev := range []arch.Event{arch.EventEntry, arch.EventExit} {
		n, err := e.dispatch(ctx, w, pos, here, ev)
		invoked += n
		if w.isDisengaged() {
			return e.finish(ctx, w, StateDisengaged, invoked, err)
		}
		if err != nil {
			stepErr = err
			w.recordError(err)
			e.notify(ctx, w, TraceEvent{Kind: TraceError, Position: pos, Event: ev, Err: err})
			if e.policy.HaltOnError {
				return e.finish(ctx, w, StateFailed, invoked, err)
			}
			logger.Warn("Ability failed, continuing with queue.", "position", pos.String(), "error", err)
			break
		}
	}

	if !e.advance(ctx, w) {
		return e.finish(ctx, w, StateCompleted, invoked, stepErr)
	}
	return StepOutcome{Kind: OutcomeContinue, Position: pos, Invocations: invoked, Err: stepErr}
}

// dispatch runs the abilities matching ev at pos and returns how many ran.
func (e *Engine) dispatch(ctx context.Context, w *Walker, pos handle.Handle, here arch.Instance, ev arch.Event) (int, error) {
	logger := ctxlog.FromContext(ctx)
	invoked := 0
	for _, inv := range e.table.Match(w.arch, here.Architype(), ev) {
		ab := inv.Ability
		if !ab.Bound() {
			logger.Debug("Skipping abstract ability.", "ability", ab.Path().String())
			continue
		}
		self := arch.Instance(w)
		if inv.Side == dispatch.SidePosition {
			self = here
		}
		env := &abilityEnv{
			ctx:    ctx,
			engine: e,
			walker: w,
			pos:    pos,
			here:   here,
			self:   self,
			event:  ev,
			path:   ab.Path(),
			module: ab.DefModule,
		}
		e.notify(ctx, w, TraceEvent{Kind: TraceAbility, Position: pos, Event: ev, Ability: ab.Path().String(), Side: inv.Side.String()})
		if err := invoke(ctx, ab.Body, env); err != nil {
			return invoked, &AbilityError{Walker: w.id, Path: ab.Path(), Position: pos, Event: ev, Err: err}
		}
		invoked++
		if w.isDisengaged() {
			return invoked, nil
		}
	}
	return invoked, nil
}

func invoke(ctx context.Context, body arch.Body, env arch.Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAbilityPanic, r)
		}
	}()
	return body.Execute(ctx, env)
}

// advance moves w to the next live, non-ignored queue entry.
func (e *Engine) advance(ctx context.Context, w *Walker) bool {
	logger := ctxlog.FromContext(ctx)
	for {
		next, ok := w.pop()
		if !ok {
			return false
		}
		if w.isIgnored(next) {
			e.notify(ctx, w, TraceEvent{Kind: TraceSkip, Position: next, Detail: "ignored"})
			continue
		}
		if err := e.store.Pin(next); err != nil {
			logger.Debug("Skipping deleted position.", "position", next.String())
			e.notify(ctx, w, TraceEvent{Kind: TraceSkip, Position: next, Detail: "deleted"})
			continue
		}
		prev := w.moveTo(next)
		e.store.Unpin(prev)
		return true
	}
}

func (e *Engine) finish(ctx context.Context, w *Walker, state State, invoked int, err error) StepOutcome {
	pos := w.Position()
	e.store.Unpin(pos)
	w.setState(state)

	out := StepOutcome{Position: pos, Invocations: invoked, Err: err}
	kind := TraceComplete
	switch state {
	case StateCompleted:
		out.Kind = OutcomeCompleted
	case StateDisengaged:
		out.Kind = OutcomeDisengaged
		kind = TraceDisengage
	default:
		out.Kind = OutcomeFailed
		kind = TraceFail
	}
	ctxlog.FromContext(ctx).Debug("Walker finished.", "state", state.String(), "steps", w.Steps(), "reports", len(w.Reports()))
	e.notify(ctx, w, TraceEvent{Kind: kind, Position: pos, Err: err})
	return out
}
