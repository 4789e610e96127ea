package selector

import (
	"context"
	"sort"
	"strings"

	"github.com/hupe1980/expertswarm/core"
)

// KeywordOracle proposes experts by matching roster domain tags against the
// query text. Deterministic and dependency-free, it serves as the fallback
// when no model oracle is configured and as the baseline in tests.
type KeywordOracle struct {
	// Fallback is proposed when no tag matches. Empty means no fallback and
	// an unmatched query yields an empty proposal.
	Fallback []string
}

var _ core.SelectionOracle = (*KeywordOracle)(nil)

// Propose implements core.SelectionOracle. Experts are ranked by the number
// of domain tags found in the query, ties resolved by roster order.
func (o *KeywordOracle) Propose(_ context.Context, queryText string, roster core.Roster) ([]string, error) {
	lower := strings.ToLower(queryText)

	type scored struct {
		id    string
		score int
		order int
	}

	var hits []scored
	for i, expert := range roster {
		score := 0
		for _, tag := range expert.DomainTags {
			if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{id: expert.ID, score: score, order: i})
		}
	}

	if len(hits) == 0 {
		return o.Fallback, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}

	return ids, nil
}
