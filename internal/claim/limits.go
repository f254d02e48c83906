package claim

import "github.com/osse101/chunkward/internal/domain"

// Limits maps permission groups to base claim limits
type Limits struct {
	Default int            `yaml:"default" validate:"gte=0"`
	Groups  map[string]int `yaml:"groups" validate:"dive,gte=0"`
}

// DefaultLimits is used when no limits file is configured
func DefaultLimits() Limits {
	return Limits{Default: DefaultBaseLimit}
}

// Base returns the largest limit among groups, or Default when no group is configured
func (l Limits) Base(groups []string) int {
	base := l.Default
	for _, g := range groups {
		if v, ok := l.Groups[g]; ok && v > base {
			base = v
		}
	}
	return base
}

// GroupResolver maps an identity to its permission groups. The host's permission layer
// implements it.
type GroupResolver interface {
	Groups(id domain.Identity) []string
}

// NoGroups resolves every identity to no group
type NoGroups struct{}

func (NoGroups) Groups(domain.Identity) []string { return nil }

// StaticGroups is a fixed identity to groups table
type StaticGroups map[domain.Identity][]string

func (s StaticGroups) Groups(id domain.Identity) []string { return s[id] }
