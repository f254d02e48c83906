package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/osse101/chunkward/internal/claim"
	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/validation"
)

// ClaimLimitsFile is the on-disk layout of the claim limits file:
//
//	default: 8
//	groups:
//	  vip: 16
//	members:
//	  "7c9e6679-7425-40de-944b-e07fc1f90ae7": [vip]
type ClaimLimitsFile struct {
	Default int                 `yaml:"default"`
	Groups  map[string]int      `yaml:"groups"`
	Members map[string][]string `yaml:"members"`
}

// LoadClaimLimits reads the permission group limits and the static group membership table
func LoadClaimLimits(path string) (claim.Limits, claim.StaticGroups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return claim.Limits{}, nil, fmt.Errorf("%s %q: %w", ErrMsgReadClaimLimits, path, err)
	}
	return ParseClaimLimits(data)
}

// ParseClaimLimits decodes a claim limits document. A missing default keeps the built-in limit.
func ParseClaimLimits(data []byte) (claim.Limits, claim.StaticGroups, error) {
	file := ClaimLimitsFile{Default: claim.DefaultBaseLimit}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return claim.Limits{}, nil, fmt.Errorf("%s: %w", ErrMsgParseClaimLimits, err)
	}

	limits := claim.Limits{Default: file.Default, Groups: file.Groups}
	if err := validation.Get().Struct(limits); err != nil {
		return claim.Limits{}, nil, fmt.Errorf("%s: %s", ErrMsgInvalidClaimLimit, validation.Describe(err))
	}

	members := make(claim.StaticGroups, len(file.Members))
	for raw, groups := range file.Members {
		id, err := domain.ParseIdentity(raw)
		if err != nil {
			return claim.Limits{}, nil, fmt.Errorf("%s: member %q: %w", ErrMsgInvalidClaimLimit, raw, err)
		}
		members[id] = groups
	}

	return limits, members, nil
}
