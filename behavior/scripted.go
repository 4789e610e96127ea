package behavior

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/expertswarm/core"
)

// Scripted replays a fixed sequence of turn outputs. It is useful in tests
// and demos where no model backend is available.
type Scripted struct {
	mu      sync.Mutex
	outputs []core.TurnOutput
	next    int
}

var _ core.SpecialistBehavior = (*Scripted)(nil)

// NewScripted creates a behavior that returns the given outputs in order.
func NewScripted(outputs ...core.TurnOutput) *Scripted {
	return &Scripted{outputs: outputs}
}

// Turn implements core.SpecialistBehavior. A turn past the end of the script
// is an error so a misconfigured demo fails loudly instead of looping.
func (s *Scripted) Turn(_ context.Context, in core.TurnInput) (*core.TurnOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.outputs) {
		return nil, fmt.Errorf("scripted behavior for %s: no output for turn %d", in.Expert.ID, s.next+1)
	}

	out := s.outputs[s.next]
	s.next++
	return &out, nil
}
