// Package loop implements the iteration-loop state machine.
//
// The controller is event-driven: the host invokes HandleIdle whenever the
// agent finishes a turn, and CompactionReport just before it summarizes or
// discards conversation history. Each idle signal either advances the loop
// by re-dispatching the original task prompt or terminates it (iteration
// limit, completion promise, explicit cancellation, or a collaborator
// failure). All state lives in the workspace control document, so the loop
// survives process restarts and context loss.
//
// A per-session in-memory guard drops re-entrant idle signals: dispatching
// a prompt can itself trigger another idle signal before the first handler
// returns, and processing both would double-advance the iteration counter.
package loop
