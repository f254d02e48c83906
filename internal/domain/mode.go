package domain

import "fmt"

// Mode is the per-identity behavioral state.
type Mode string

const (
	ModeUnset    Mode = "UNSET"
	ModePeaceful Mode = "PEACEFUL"
	ModeNormal   Mode = "NORMAL"
)

// ParseMode accepts the mode names case-sensitively as stored.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUnset, ModePeaceful, ModeNormal:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// Capability is an action an invited identity may be granted inside a claim.
type Capability int

const (
	CapabilityBuild Capability = iota + 1
	CapabilityAccessContainers
	CapabilityManageInvitations
)

func (c Capability) String() string {
	switch c {
	case CapabilityBuild:
		return "build"
	case CapabilityAccessContainers:
		return "access_containers"
	case CapabilityManageInvitations:
		return "manage_invitations"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Capabilities is the capability set carried by an invitation.
type Capabilities struct {
	CanBuild             bool `json:"can_build"`
	CanAccessContainers  bool `json:"can_access_containers"`
	CanManageInvitations bool `json:"can_manage_invitations"`
}

// Allows reports whether the set grants capability.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapabilityBuild:
		return c.CanBuild
	case CapabilityAccessContainers:
		return c.CanAccessContainers
	case CapabilityManageInvitations:
		return c.CanManageInvitations
	default:
		return false
	}
}

// AllCapabilities grants everything.
func AllCapabilities() Capabilities {
	return Capabilities{CanBuild: true, CanAccessContainers: true, CanManageInvitations: true}
}
