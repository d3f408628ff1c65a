// Package dungeon coordinates short-lived party instances. An instance
// moves Created → Ready → Started → Resolved and is discarded once
// resolved. Instances are never persisted.
package dungeon

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nathoo/dpcq/types"
)

// State is a dungeon instance's lifecycle phase.
type State int

const (
	Created State = iota
	Ready
	Started
	Resolved
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Started:
		return "started"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Instance is one party run.
type Instance struct {
	ID        string
	Tier      types.DungeonTier
	CreatorID string
	Members   []string // creator first
	Pending   map[string]bool
	CreatedAt int64
	State     State
}

// Waiting lists members who have not confirmed, sorted.
func (in *Instance) Waiting() []string {
	out := make([]string, 0, len(in.Pending))
	for id := range in.Pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Manager owns the live instances of one group. Not safe for
// concurrent use; callers hold the group lock.
type Manager struct {
	instances map[string]*Instance
	byMember  map[string]string
	newID     func() string
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		instances: map[string]*Instance{},
		byMember:  map[string]string{},
		newID:     func() string { return uuid.NewString()[:8] },
	}
}

func phase(format string, args ...any) *types.Failure {
	return &types.Failure{Kind: types.FailPhase, Message: fmt.Sprintf(format, args...)}
}

// Create forms a party. The creator is confirmed implicitly; everyone
// else must confirm before the creator can start.
func (m *Manager) Create(creatorID string, members []string, tier types.DungeonTier, partySize int, now int64) (*Instance, error) {
	party := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		party = append(party, id)
	}
	if len(party) > partySize {
		return nil, &types.Failure{Kind: types.FailInvariant, Message: fmt.Sprintf("a party holds at most %d members", partySize)}
	}
	for _, id := range party {
		if _, busy := m.byMember[id]; busy {
			return nil, phase("%s is already in a dungeon party", id)
		}
	}

	in := &Instance{
		ID:        m.newID(),
		Tier:      tier,
		CreatorID: creatorID,
		Members:   party,
		Pending:   map[string]bool{},
		CreatedAt: now,
	}
	for _, id := range party[1:] {
		in.Pending[id] = true
	}
	if len(in.Pending) == 0 {
		in.State = Ready
	}
	m.instances[in.ID] = in
	for _, id := range party {
		m.byMember[id] = in.ID
	}
	return in, nil
}

// Of returns the instance a member belongs to.
func (m *Manager) Of(memberID string) (*Instance, bool) {
	id, ok := m.byMember[memberID]
	if !ok {
		return nil, false
	}
	in, ok := m.instances[id]
	return in, ok
}

// Confirm marks a member ready. The last confirmation moves the
// instance to Ready.
func (m *Manager) Confirm(memberID string) (*Instance, error) {
	in, ok := m.Of(memberID)
	if !ok {
		return nil, phase("you are not in a dungeon party")
	}
	if in.State != Created {
		return nil, phase("the party is already %s", in.State)
	}
	if !in.Pending[memberID] {
		return nil, phase("you have already confirmed")
	}
	delete(in.Pending, memberID)
	if len(in.Pending) == 0 {
		in.State = Ready
	}
	return in, nil
}

// Start moves a Ready instance to Started. Only the creator may start.
func (m *Manager) Start(memberID string) (*Instance, error) {
	in, ok := m.Of(memberID)
	if !ok {
		return nil, phase("you are not in a dungeon party")
	}
	if in.CreatorID != memberID {
		return nil, &types.Failure{Kind: types.FailInvariant, Message: "only the party leader can start the dungeon"}
	}
	if in.State != Ready {
		return nil, phase("waiting on %d confirmations", len(in.Pending))
	}
	in.State = Started
	return in, nil
}

// Finish marks a started instance resolved and discards it.
func (m *Manager) Finish(id string) {
	in, ok := m.instances[id]
	if !ok {
		return
	}
	in.State = Resolved
	m.remove(in)
}

// Disband discards a member's instance before it starts.
func (m *Manager) Disband(memberID string) (*Instance, error) {
	in, ok := m.Of(memberID)
	if !ok {
		return nil, phase("you are not in a dungeon party")
	}
	if in.State == Started {
		return nil, phase("the dungeon is already under way")
	}
	m.remove(in)
	return in, nil
}

// Expire discards instances that did not start within ttl seconds and
// returns them.
func (m *Manager) Expire(now int64, ttl int) []*Instance {
	var out []*Instance
	for _, in := range m.instances {
		if in.State != Started && now-in.CreatedAt >= int64(ttl) {
			out = append(out, in)
		}
	}
	for _, in := range out {
		m.remove(in)
	}
	return out
}

// Len is the number of live instances.
func (m *Manager) Len() int {
	return len(m.instances)
}

func (m *Manager) remove(in *Instance) {
	delete(m.instances, in.ID)
	for _, id := range in.Members {
		if m.byMember[id] == in.ID {
			delete(m.byMember, id)
		}
	}
}
