package domain

import "strings"

// Personality selects the recommendation template for a user.
type Personality string

const (
	PersonalityFoody    Personality = "foody"
	PersonalityTechy    Personality = "techy"
	PersonalityGenZ     Personality = "genz"
	PersonalityCreative Personality = "creative"
	PersonalityFitness  Personality = "fitness"
	PersonalityBookworm Personality = "bookworm"
)

// DefaultPersonality is used when a profile carries no recognized personality.
const DefaultPersonality = PersonalityCreative

var knownPersonalities = map[Personality]struct{}{
	PersonalityFoody:    {},
	PersonalityTechy:    {},
	PersonalityGenZ:     {},
	PersonalityCreative: {},
	PersonalityFitness:  {},
	PersonalityBookworm: {},
}

// UserProfile is produced by onboarding. Only Personality drives the engine.
type UserProfile struct {
	Name        string      `json:"name,omitempty"`
	Personality Personality `json:"personality,omitempty"`
}

// ResolvedPersonality normalizes case and whitespace and falls back to
// DefaultPersonality for empty or unknown values.
func (p UserProfile) ResolvedPersonality() Personality {
	v := Personality(strings.ToLower(strings.TrimSpace(string(p.Personality))))
	if _, ok := knownPersonalities[v]; !ok {
		return DefaultPersonality
	}
	return v
}
