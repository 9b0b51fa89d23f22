package game

import (
	"sort"
	"strings"
	"time"
)

// PlayerID is the stable identity a chat platform assigns to a user.
type PlayerID int64

// Player represents a player registered for the current round
type Player struct {
	ID          PlayerID
	Handle      string
	DisplayName string
	JoinedAt    time.Time
}

// NewPlayer creates a new player without a display name
func NewPlayer(id PlayerID, handle string) *Player {
	return &Player{
		ID:       id,
		Handle:   strings.TrimPrefix(handle, "@"),
		JoinedAt: time.Now(),
	}
}

// HasName reports whether the player has provided a display name.
func (p *Player) HasName() bool {
	return p.DisplayName != ""
}

// RegisterResult reports the outcome of PlayerRegistry.Register.
type RegisterResult int

const (
	Registered RegisterResult = iota
	AlreadyRegistered
)

// PlayerRegistry tracks who has joined the round and under which name.
// It does no locking of its own; Session serializes access to it.
type PlayerRegistry struct {
	players map[PlayerID]*Player
	order   []PlayerID
}

// NewPlayerRegistry creates an empty registry
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[PlayerID]*Player),
	}
}

// Register adds a player with an unset display name. Registering an
// existing player is a no-op.
func (r *PlayerRegistry) Register(id PlayerID, handle string) RegisterResult {
	if _, exists := r.players[id]; exists {
		return AlreadyRegistered
	}
	r.players[id] = NewPlayer(id, handle)
	r.order = append(r.order, id)
	return Registered
}

// SetDisplayName sets a player's display name exactly once.
func (r *PlayerRegistry) SetDisplayName(id PlayerID, name string) error {
	p, exists := r.players[id]
	if !exists {
		return ErrNotJoined
	}
	if p.HasName() {
		return ErrNameAlreadySet
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	p.DisplayName = name
	return nil
}

// Get returns a copy of the player with the given id
func (r *PlayerRegistry) Get(id PlayerID) (Player, bool) {
	p, exists := r.players[id]
	if !exists {
		return Player{}, false
	}
	return *p, true
}

// Contains reports whether id has joined
func (r *PlayerRegistry) Contains(id PlayerID) bool {
	_, exists := r.players[id]
	return exists
}

// Count returns the number of registered players
func (r *PlayerRegistry) Count() int {
	return len(r.players)
}

// List returns copies of all players in join order
func (r *PlayerRegistry) List() []Player {
	players := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, *r.players[id])
	}
	return players
}

// IDs returns the registered player ids sorted ascending, so a seeded
// shuffle over them is reproducible.
func (r *PlayerRegistry) IDs() []PlayerID {
	ids := make([]PlayerID, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reset removes every player
func (r *PlayerRegistry) Reset() {
	r.players = make(map[PlayerID]*Player)
	r.order = nil
}
