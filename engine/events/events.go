// Package events implements single-pass event dispatch. Handlers observe
// events after a command has finished mutating state; they cannot emit
// further events.
package events

import (
	"sync"

	"github.com/nathoo/dpcq/types"
)

// Event types emitted by the engine.
const (
	PlayerJoined   = "player_joined"
	PlayerLeft     = "player_left"
	LevelUp        = "level_up"
	RealmAdvanced  = "realm_advanced"
	PlayerDying    = "player_dying"
	PlayerRevived  = "player_revived"
	DuelFought     = "duel_fought"
	DungeonCleared = "dungeon_cleared"
	DungeonFailed  = "dungeon_failed"
	RulerChanged   = "ruler_changed"
	BossSlain      = "boss_slain"
	AuctionSettled = "auction_settled"
	GameStarted    = "game_started"
	GameStopped    = "game_stopped"
	WorldWiped     = "world_wiped"
)

// Handler observes one event.
type Handler func(types.Event)

// Bus fans events out to subscribers. Safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Subscribe registers h for an event type. "*" receives every event.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Dispatch runs handlers against the emitted events. Single pass, no
// recursion.
func (b *Bus) Dispatch(events []types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, event := range events {
		for _, h := range b.handlers[event.Type] {
			h(event)
		}
		for _, h := range b.handlers["*"] {
			h(event)
		}
	}
}

// flagEvents maps outcome flags to the events they imply.
var flagEvents = []struct {
	flag types.Flag
	typ  string
}{
	{types.FlagLevelUp, LevelUp},
	{types.FlagRealmAdvanced, RealmAdvanced},
	{types.FlagDying, PlayerDying},
	{types.FlagRevived, PlayerRevived},
	{types.FlagRulerChanged, RulerChanged},
	{types.FlagBossSlain, BossSlain},
	{types.FlagSettled, AuctionSettled},
}

// FromOutcome derives events from an outcome's flags.
func FromOutcome(groupID, playerID string, out types.Outcome) []types.Event {
	if out.Failure != nil {
		return nil
	}
	var evs []types.Event
	for _, fe := range flagEvents {
		if out.Has(fe.flag) {
			evs = append(evs, types.Event{Type: fe.typ, GroupID: groupID, PlayerID: playerID})
		}
	}
	return evs
}
