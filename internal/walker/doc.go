/*
Package walker runs walkers over the graph store.

A Walker is an explicit state machine: a current position (a pinned node or
edge), a FIFO queue of positions to visit next, an ignore set, its own field
values and the values it reported. The Engine drives it one Step at a time:

 1. Entry dispatch: the abilities dispatch.Match selects for the entry event
    run in order. Walker-side abilities come before position-side ones.
 2. Exit dispatch: exit abilities run right before the walker leaves the
    position, including when the queue is empty and the walker completes.
 3. Advance: the next queue entry that is neither ignored nor deleted becomes
    the position. An empty queue completes the walker.

An ability that calls Disengage stops the remaining abilities of the step,
skips the exit phase and ends the walker. An ability that fails, by error or
panic, aborts the rest of its step and surfaces as an *AbilityError. The
engine Policy decides whether the walker then halts (OutcomeFailed) or moves
on with its queue, carrying the error in the step outcome.

Revisits are allowed: nothing deduplicates the queue.

# Concurrency

Each walker is driven by a single goroutine at a time. Several walkers may
run concurrently over the same store through RunAll; the store and the
per-instance field sets serialize their mutations.
*/
package walker
