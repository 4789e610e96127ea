package core

// ExpertProfile is the static descriptor of one specialist in the roster.
// The roster is fixed configuration and read-only at runtime.
type ExpertProfile struct {
	// ID is the stable expert identifier (e.g. "hpc", "quantum").
	ID string `json:"id" yaml:"id"`

	// DomainTags are keyword indicators used by rule-based selection.
	DomainTags []string `json:"domain_tags" yaml:"domain_tags"`

	// Capability is a short natural language description of what the expert
	// covers, shown to selection oracles and used in handoff prompts.
	Capability string `json:"capability" yaml:"capability"`
}

// Roster is an ordered, read-only set of expert profiles.
type Roster []ExpertProfile

// Find returns the profile for id and whether it exists.
func (r Roster) Find(id string) (ExpertProfile, bool) {
	for _, p := range r {
		if p.ID == id {
			return p, true
		}
	}
	return ExpertProfile{}, false
}

// IDs returns the expert identifiers in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, len(r))
	for i, p := range r {
		ids[i] = p.ID
	}
	return ids
}

// Subset resolves ids to profiles preserving order. Unknown ids are skipped.
func (r Roster) Subset(ids []string) Roster {
	sub := make(Roster, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.Find(id); ok {
			sub = append(sub, p)
		}
	}
	return sub
}
