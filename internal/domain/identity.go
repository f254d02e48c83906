package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the stable reference to a player, independent of display name.
type Identity = uuid.UUID

// NilIdentity is the zero identity; it never refers to a real player.
var NilIdentity = uuid.Nil

// ParseIdentity parses the canonical string form of an identity.
func ParseIdentity(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid identity %q", ErrInvalidInput, s)
	}
	return id, nil
}
