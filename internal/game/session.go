package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase represents the current stage of the session
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseRolesAssigned Phase = "roles_assigned"
)

// MinPlayers is the smallest round that can be started
const MinPlayers = 2

// JoinResult reports how a join was handled
type JoinResult int

const (
	JoinedAsPlayer JoinResult = iota
	AlreadyJoined
	JoinedAsHost
)

// NoticeKind identifies what an outbound notice is about
type NoticeKind string

const (
	NoticePlayerNamed NoticeKind = "player_named"
	NoticeRole        NoticeKind = "role"
	NoticeSeat        NoticeKind = "seat"
	NoticeFarewell    NoticeKind = "farewell"
)

// Notice is a message the session wants delivered to Recipient. Sessions
// never do I/O themselves; callers render and send notices after the
// session lock has been released.
type Notice struct {
	Recipient PlayerID
	Kind      NoticeKind
	Player    Player
	Role      RoleName
	Seat      int
}

// RosterEntry is one player as seen by the host
type RosterEntry struct {
	Player Player
	Seat   int
	Role   RoleName
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Phase     Phase
	HostID    PlayerID
	HasHost   bool
	RoundID   string
	StartedAt time.Time
	Players   []RosterEntry
}

// SessionConfig holds the immutable inputs of a session
type SessionConfig struct {
	HostHandle string
	Roles      RoleDistribution
	MinPlayers int
}

// Session is the single game round. All mutations are serialized by mu;
// reads take a snapshot under the read lock.
type Session struct {
	hostHandle string
	roles      RoleDistribution
	minPlayers int
	randSource RandSource

	mu        sync.RWMutex
	phase     Phase
	hostID    PlayerID
	hasHost   bool
	registry  *PlayerRegistry
	assigned  RoleAssignment
	seats     SeatAssignment
	roundID   string
	startedAt time.Time
}

// Option configures a Session
type Option func(*Session)

// WithRandSource replaces the per-round generator
func WithRandSource(src RandSource) Option {
	return func(s *Session) {
		s.randSource = src
	}
}

// NewSession creates a session in the lobby phase
func NewSession(cfg SessionConfig, opts ...Option) *Session {
	minPlayers := cfg.MinPlayers
	if minPlayers < MinPlayers {
		minPlayers = MinPlayers
	}
	s := &Session{
		hostHandle: normalizeHandle(cfg.HostHandle),
		roles:      NewRoleDistribution(cfg.Roles.DefaultRole, cfg.Roles.Slots...),
		minPlayers: minPlayers,
		randSource: NewRoundRand,
		phase:      PhaseLobby,
		registry:   NewPlayerRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// isHost must be called with mu held
func (s *Session) isHost(id PlayerID) bool {
	return s.hasHost && s.hostID == id
}

// IsHostHandle reports whether handle is the privileged host handle
func (s *Session) IsHostHandle(handle string) bool {
	return s.hostHandle != "" && normalizeHandle(handle) == s.hostHandle
}

// Join registers the caller. The privileged handle becomes the host and
// is kept out of the player registry.
func (s *Session) Join(id PlayerID, handle string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return 0, ErrGameAlreadyStarted
	}

	if s.IsHostHandle(handle) {
		if !s.hasHost {
			s.hostID = id
			s.hasHost = true
		}
		if s.hostID != id {
			return 0, ErrHostAlreadySet
		}
		return JoinedAsHost, nil
	}

	if s.registry.Register(id, handle) == AlreadyRegistered {
		return AlreadyJoined, nil
	}
	return JoinedAsPlayer, nil
}

// ProvideName sets the caller's display name. When a host is known the
// returned notices hold one announcement for the host.
func (s *Session) ProvideName(id PlayerID, name string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.SetDisplayName(id, name); err != nil {
		return nil, err
	}
	if !s.hasHost {
		return nil, nil
	}
	player, _ := s.registry.Get(id)
	return []Notice{{
		Recipient: s.hostID,
		Kind:      NoticePlayerNamed,
		Player:    player,
	}}, nil
}

// StartGame deals roles and seats. Both engines run exactly once per
// round and their results are committed together with the phase change;
// on error nothing is written.
func (s *Session) StartGame(caller PlayerID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isHost(caller) {
		return Snapshot{}, ErrNotHost
	}
	if s.phase != PhaseLobby {
		return Snapshot{}, ErrAlreadyStarted
	}
	if s.registry.Count() < s.minPlayers {
		return Snapshot{}, ErrNotEnoughPlayers
	}

	rng, err := s.randSource()
	if err != nil {
		return Snapshot{}, fmt.Errorf("seed round: %w", err)
	}
	ids := s.registry.IDs()
	assigned := AssignRoles(ids, s.roles, rng)
	seats := AssignSeats(ids, rng)

	s.assigned = assigned
	s.seats = seats
	s.roundID = uuid.NewString()
	s.startedAt = time.Now()
	s.phase = PhaseRolesAssigned

	return s.snapshotLocked(), nil
}

// RoleFor returns the notice revealing target's role to target.
func (s *Session) RoleFor(caller, target PlayerID) (Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isHost(caller) {
		return Notice{}, ErrNotHost
	}
	if s.phase != PhaseRolesAssigned {
		return Notice{}, ErrNotStarted
	}
	player, ok := s.registry.Get(target)
	if !ok {
		return Notice{}, ErrUnknownPlayer
	}
	role, ok := s.assigned[target]
	if !ok {
		role = s.roles.DefaultRole
	}
	return Notice{
		Recipient: target,
		Kind:      NoticeRole,
		Player:    player,
		Role:      role,
		Seat:      s.seats[target],
	}, nil
}

// NumberNotices returns one seat notice per player, ordered by seat.
func (s *Session) NumberNotices(caller PlayerID) ([]Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isHost(caller) {
		return nil, ErrNotHost
	}
	if len(s.seats) == 0 {
		return nil, ErrNumbersNotReady
	}

	notices := make([]Notice, 0, len(s.seats))
	for id, seat := range s.seats {
		player, _ := s.registry.Get(id)
		notices = append(notices, Notice{
			Recipient: id,
			Kind:      NoticeSeat,
			Player:    player,
			Seat:      seat,
		})
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].Seat < notices[j].Seat })
	return notices, nil
}

// Stop ends the round and resets the session to a fresh lobby. It
// returns a farewell notice for every registered player.
func (s *Session) Stop(caller PlayerID) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isHost(caller) {
		return nil, ErrNotHost
	}

	players := s.registry.List()
	notices := make([]Notice, 0, len(players))
	for _, p := range players {
		notices = append(notices, Notice{
			Recipient: p.ID,
			Kind:      NoticeFarewell,
			Player:    p,
		})
	}

	s.registry.Reset()
	s.assigned = nil
	s.seats = nil
	s.hostID = 0
	s.hasHost = false
	s.roundID = ""
	s.startedAt = time.Time{}
	s.phase = PhaseLobby

	return notices, nil
}

// IsHost reports whether id is the current host
func (s *Session) IsHost(id PlayerID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isHost(id)
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Snapshot returns a consistent copy of the session state. Once roles
// are assigned players are ordered by seat, otherwise by join order.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	players := s.registry.List()
	entries := make([]RosterEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, RosterEntry{
			Player: p,
			Seat:   s.seats[p.ID],
			Role:   s.assigned[p.ID],
		})
	}
	if s.phase == PhaseRolesAssigned {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seat < entries[j].Seat })
	}
	return Snapshot{
		Phase:     s.phase,
		HostID:    s.hostID,
		HasHost:   s.hasHost,
		RoundID:   s.roundID,
		StartedAt: s.startedAt,
		Players:   entries,
	}
}
