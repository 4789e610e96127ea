// Package swarm implements the bounded collaboration loop among selected
// experts. The engine is an explicit state machine: a session starts ACTIVE
// on the first participant and every turn produces exactly one transition
// (answer, handoff, or forced termination by a budget or timer). All
// non-determinism lives behind the SpecialistBehavior interface; the engine
// itself is deterministic given the behaviors' outputs and therefore fully
// testable with scripted behaviors.
//
// Two independent timers bound a run: a per-node timeout covering one
// specialist turn including its tool calls, and an execution timeout covering
// the whole session. On any forced termination the partial answer and the
// trace collected so far are still returned.
package swarm
