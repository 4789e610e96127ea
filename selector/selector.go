// Package selector decides which experts participate in a swarm run. An
// oracle proposes candidate expert IDs for a query; the Selector validates
// the proposal against the configured roster and clamps it to the configured
// bounds before the engine ever sees it, so a hallucinated or malformed
// proposal cannot seat an unknown expert.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/telemetry"
)

// Options configures the selector.
type Options struct {
	// MinExperts is the minimum number of validated experts required; a
	// proposal that clamps below it is a selection failure.
	MinExperts int

	// MaxExperts caps how many experts a run may seat; excess proposals are
	// truncated preserving proposal order.
	MaxExperts int

	// Telemetry receives a selection event per query. Optional.
	Telemetry *telemetry.Collector

	// Logger receives selection diagnostics.
	Logger logging.Logger
}

// Selector validates oracle proposals against a roster.
type Selector struct {
	oracle core.SelectionOracle
	opts   Options
}

// New creates a selector around the given oracle.
func New(oracle core.SelectionOracle, optFns ...func(o *Options)) *Selector {
	opts := Options{
		MinExperts: 1,
		MaxExperts: 3,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Selector{
		oracle: oracle,
		opts:   opts,
	}
}

// Select asks the oracle for candidates and returns the validated subset of
// the roster. Unknown IDs are dropped, duplicates collapse to their first
// occurrence, and the result is truncated to the configured maximum. An
// oracle failure or a validated set below the minimum yields a
// SelectionError.
func (s *Selector) Select(ctx context.Context, query core.Query, roster core.Roster) (core.Roster, error) {
	proposed, err := s.oracle.Propose(ctx, query.Text, roster)
	if err != nil {
		return nil, &core.SelectionError{
			Query:  query.Text,
			Detail: fmt.Sprintf("oracle failed: %v", err),
		}
	}

	valid := s.clamp(proposed, roster)
	if len(valid) < s.opts.MinExperts {
		return nil, &core.SelectionError{
			Query:  query.Text,
			Detail: fmt.Sprintf("proposal %v yielded %d valid experts, need at least %d", proposed, len(valid), s.opts.MinExperts),
		}
	}

	selected := roster.Subset(valid)

	s.opts.Logger.Debug("experts selected", "proposed", proposed, "selected", valid)
	s.opts.Telemetry.Record(core.EventExpertsSelected, "", strings.Join(valid, ","))

	return selected, nil
}

func (s *Selector) clamp(proposed []string, roster core.Roster) []string {
	seen := make(map[string]struct{}, len(proposed))
	valid := make([]string, 0, len(proposed))

	for _, id := range proposed {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ok := roster.Find(id); !ok {
			s.opts.Logger.Debug("dropping unknown expert from proposal", "id", id)
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)

		if s.opts.MaxExperts > 0 && len(valid) == s.opts.MaxExperts {
			break
		}
	}

	return valid
}
