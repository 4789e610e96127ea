package swarm

import (
	"sync"
	"time"

	"github.com/hupe1980/expertswarm/core"
)

// Session is the mutable run state for one query. It is owned by the engine
// for the lifetime of one Run call and sealed when a terminal status is
// reached. The tool-call trace is appended concurrently by the invocation
// bridge, so all mutation goes through the mutex.
type Session struct {
	// ID uniquely identifies this run.
	ID string

	// Query is the user query driving the run.
	Query core.Query

	// Participants is the validated, ordered expert subset seated for this
	// run. Immutable after construction.
	Participants core.Roster

	mu               sync.Mutex
	status           core.Status
	reason           core.Reason
	activeID         string
	partialAnswer    string
	answer           string
	handoffs         []core.HandoffEvent
	toolCalls        []core.ToolCall
	participantsUsed []string
	iterations       int
	handoffCount     int
	startedAt        time.Time
	endedAt          time.Time
}

// NewSession creates a session in INIT with the first participant active.
func NewSession(query core.Query, participants core.Roster) *Session {
	s := &Session{
		ID:           core.NewID(),
		Query:        query,
		Participants: participants,
		status:       core.StatusInit,
	}
	if len(participants) > 0 {
		s.activeID = participants[0].ID
	}
	return s
}

// Status returns the current lifecycle state.
func (s *Session) Status() core.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ActiveID returns the expert currently owning the turn.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// RecordToolCall appends one retrieval invocation to the trace. Implements
// the bridge recorder contract.
func (s *Session) RecordToolCall(call core.ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolCalls = append(s.toolCalls, call)
}

// ToolCalls returns a snapshot of the tool-call trace in append order.
func (s *Session) ToolCalls() []core.ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.ToolCall, len(s.toolCalls))
	copy(out, s.toolCalls)
	return out
}

// Handoffs returns a snapshot of the handoff trace in append order.
func (s *Session) Handoffs() []core.HandoffEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.HandoffEvent, len(s.handoffs))
	copy(out, s.handoffs)
	return out
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = core.StatusActive
	s.startedAt = time.Now()
}

// markTurn accounts one specialist turn and tracks turn takers in first-seen
// order.
func (s *Session) markTurn(expertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.iterations++
	for _, id := range s.participantsUsed {
		if id == expertID {
			return
		}
	}
	s.participantsUsed = append(s.participantsUsed, expertID)
}

func (s *Session) iterationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

func (s *Session) handoffsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handoffCount
}

// setPartial retains the most recent non-empty answer so forced terminations
// can still return it.
func (s *Session) setPartial(answer string) {
	if answer == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialAnswer = answer
}

// recordHandoff appends a handoff event and transfers turn control.
func (s *Session) recordHandoff(fromID, toID, rationale string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handoffCount++
	s.activeID = toID
	s.handoffs = append(s.handoffs, core.HandoffEvent{
		FromID:    fromID,
		ToID:      toID,
		Rationale: rationale,
		Timestamp: time.Now(),
	})
}

// complete seals the session with a final answer.
func (s *Session) complete(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return
	}
	s.status = core.StatusCompleted
	s.answer = answer
	s.endedAt = time.Now()
}

// fail seals the session in a degraded terminal state, returning the most
// recent partial answer.
func (s *Session) fail(status core.Status, reason core.Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return
	}
	s.status = status
	s.reason = reason
	s.answer = s.partialAnswer
	s.endedAt = time.Now()
}

// result builds the immutable outcome snapshot.
func (s *Session) result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make([]string, len(s.participantsUsed))
	copy(used, s.participantsUsed)
	handoffs := make([]core.HandoffEvent, len(s.handoffs))
	copy(handoffs, s.handoffs)
	toolCalls := make([]core.ToolCall, len(s.toolCalls))
	copy(toolCalls, s.toolCalls)

	elapsed := s.endedAt.Sub(s.startedAt)
	if s.endedAt.IsZero() {
		elapsed = time.Since(s.startedAt)
	}

	return &Result{
		SessionID:        s.ID,
		Status:           s.status,
		Reason:           s.reason,
		Answer:           s.answer,
		ParticipantsUsed: used,
		Handoffs:         handoffs,
		ToolCalls:        toolCalls,
		Iterations:       s.iterations,
		Elapsed:          elapsed,
	}
}
