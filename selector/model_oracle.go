package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/model"
)

const modelOracleInstructions = `You are a routing coordinator for a team of domain experts.
Given a user query and the available experts, respond with ONLY a comma-separated
list of expert IDs that should collaborate on the query, most relevant first.
Do not explain. Do not invent IDs that are not listed.`

// ModelOracle asks a language model which experts fit the query. Output is
// parsed leniently; the Selector still validates every proposed ID, so the
// oracle only needs to be roughly right.
type ModelOracle struct {
	model model.Model
}

var _ core.SelectionOracle = (*ModelOracle)(nil)

// NewModelOracle creates an oracle backed by the given model.
func NewModelOracle(m model.Model) *ModelOracle {
	return &ModelOracle{model: m}
}

// Propose implements core.SelectionOracle.
func (o *ModelOracle) Propose(ctx context.Context, queryText string, roster core.Roster) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("Available experts:\n")
	for _, expert := range roster {
		fmt.Fprintf(&sb, "- %s: %s\n", expert.ID, expert.Capability)
	}
	fmt.Fprintf(&sb, "\nQuery: %s", queryText)

	resp, err := o.model.Generate(ctx, model.Request{
		Instructions: modelOracleInstructions,
		Contents: []core.Content{
			core.NewTextContent("user", sb.String()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model oracle: %w", err)
	}

	return parseIDList(resp.Content.Text()), nil
}

// parseIDList splits a model reply into candidate IDs, tolerating newlines,
// bullets and stray quoting.
func parseIDList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		id := strings.Trim(strings.TrimSpace(f), `"'-* `)
		if id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}
