package game

import (
	"fmt"
	"math/rand/v2"
)

// RoleName is the display name of a role, e.g. "Мафія"
type RoleName string

// DefaultRoleName is given to every player left over once the special
// roles have been handed out.
const DefaultRoleName RoleName = "Мирний мешканець"

// RoleSlot is one entry of a RoleDistribution
type RoleSlot struct {
	Role  RoleName
	Count int
}

// RoleDistribution lists the special roles in the order they are dealt.
// Players not covered by it receive the default role.
type RoleDistribution struct {
	Slots       []RoleSlot
	DefaultRole RoleName
}

// NewRoleDistribution builds a distribution, falling back to
// DefaultRoleName when defaultRole is empty.
func NewRoleDistribution(defaultRole RoleName, slots ...RoleSlot) RoleDistribution {
	if defaultRole == "" {
		defaultRole = DefaultRoleName
	}
	copied := make([]RoleSlot, len(slots))
	copy(copied, slots)
	return RoleDistribution{Slots: copied, DefaultRole: defaultRole}
}

// Total returns the number of special roles configured
func (d RoleDistribution) Total() int {
	total := 0
	for _, s := range d.Slots {
		total += s.Count
	}
	return total
}

// Count returns the configured count for role, 0 if absent
func (d RoleDistribution) Count(role RoleName) int {
	for _, s := range d.Slots {
		if s.Role == role {
			return s.Count
		}
	}
	return 0
}

// Validate checks that counts are non-negative and names are unique
func (d RoleDistribution) Validate() error {
	seen := make(map[RoleName]bool, len(d.Slots))
	for _, s := range d.Slots {
		if s.Role == "" {
			return fmt.Errorf("role with empty name")
		}
		if s.Count < 0 {
			return fmt.Errorf("role %s: negative count %d", s.Role, s.Count)
		}
		if s.Role == d.DefaultRole {
			return fmt.Errorf("role %s: collides with the default role", s.Role)
		}
		if seen[s.Role] {
			return fmt.Errorf("role %s: listed more than once", s.Role)
		}
		seen[s.Role] = true
	}
	return nil
}

// RoleAssignment maps every player of a round to a role
type RoleAssignment map[PlayerID]RoleName

// AssignRoles deals the distribution over players. Players are shuffled
// first, then consumed slot by slot in distribution order; once players
// run out the remaining slots stay empty. Everyone not consumed gets the
// default role.
func AssignRoles(players []PlayerID, dist RoleDistribution, rng *rand.Rand) RoleAssignment {
	shuffled := shuffle(players, rng)
	assigned := make(RoleAssignment, len(shuffled))

	next := 0
	for _, slot := range dist.Slots {
		for i := 0; i < slot.Count && next < len(shuffled); i++ {
			assigned[shuffled[next]] = slot.Role
			next++
		}
		if next == len(shuffled) {
			break
		}
	}

	defaultRole := dist.DefaultRole
	if defaultRole == "" {
		defaultRole = DefaultRoleName
	}
	for _, id := range shuffled[next:] {
		assigned[id] = defaultRole
	}
	return assigned
}

// shuffle returns a uniformly permuted copy of ids
func shuffle(ids []PlayerID, rng *rand.Rand) []PlayerID {
	shuffled := make([]PlayerID, len(ids))
	copy(shuffled, ids)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
