// Package player implements the character aggregate. Every mutation that
// must keep an invariant (health bounds, inventory capacity, boost expiry,
// qi/level bookkeeping) goes through a method here; other packages never
// assign those fields directly.
package player

import (
	"math"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/types"
)

// Boost is a temporary modifier. Active iff now < Expires.
type Boost struct {
	Value   float64 `json:"value"`
	Expires int64   `json:"expires"`
}

// Player is one character in a world. Timestamps are unix seconds.
type Player struct {
	ID   string `json:"user_id"`
	Name string `json:"user_name"`

	Realm       int `json:"realm_index"`
	Level       int `json:"level"`
	Qi          int `json:"current_qi"`
	RequiredQi  int `json:"required_qi"`
	Health      int `json:"health"`
	MaxHealth   int `json:"max_health"`
	BonusHealth int `json:"bonus_health"`
	Gold        int `json:"gold"`

	Inventory []string                 `json:"inventory"`
	Equipped  []string                 `json:"equipped"`
	Boosts    map[types.BoostTag]Boost `json:"temp_boosts"`

	LastTrain   int64 `json:"last_train_time"`
	LastExplore int64 `json:"last_explore_time"`
	LastDuel    int64 `json:"last_duel_time"`

	// LastSignIn is the local calendar date (2006-01-02) of the last
	// daily sign-in.
	LastSignIn string `json:"last_sign_date,omitempty"`

	Dying     bool  `json:"is_dying"`
	DeathTime int64 `json:"death_time"`
	AutoTrain bool  `json:"auto_train"`
	JoinedAt  int64 `json:"joined_at"`
}

// New creates a player with starting stats and starter items.
func New(id, name string, t *catalog.Tables, now int64) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Level:     1,
		Gold:      t.Rules.StartGold,
		Inventory: []string{},
		Equipped:  []string{},
		Boosts:    map[types.BoostTag]Boost{},
		JoinedAt:  now,
	}
	p.RecomputeRequiredQi(t)
	p.RecomputeMaxHealth()
	p.Health = p.MaxHealth
	for _, item := range t.Rules.StarterItems {
		p.AddItem(t, item)
	}
	return p
}

// Normalize fills nil collections after decoding.
func (p *Player) Normalize() {
	if p.Inventory == nil {
		p.Inventory = []string{}
	}
	if p.Equipped == nil {
		p.Equipped = []string{}
	}
	if p.Boosts == nil {
		p.Boosts = map[types.BoostTag]Boost{}
	}
	if p.Level < 1 {
		p.Level = 1
	}
}

// RealmName is the display name of the current realm.
func (p *Player) RealmName(t *catalog.Tables) string {
	return t.Realm(p.Realm).Name
}

// Title is the honorific for the current realm.
func (p *Player) Title(t *catalog.Tables) string {
	return t.Realm(p.Realm).Title
}

// RequiredFor is the qi needed to pass a star: base + (level-1)*floor(0.1*base).
func RequiredFor(t *catalog.Tables, realm, level int) int {
	base := t.Realm(realm).BaseQi
	return base + (level-1)*int(math.Floor(0.1*float64(base)))
}

// RecomputeRequiredQi refreshes the qi threshold for the current star.
func (p *Player) RecomputeRequiredQi(t *catalog.Tables) {
	p.RequiredQi = RequiredFor(t, p.Realm, p.Level)
}

// RecomputeMaxHealth sets max health to 100 + realm²·10 + bonus and
// clamps current health to it.
func (p *Player) RecomputeMaxHealth() {
	p.MaxHealth = 100 + p.Realm*p.Realm*10 + p.BonusHealth
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// AddBonusHealth permanently raises max health and heals the same amount.
func (p *Player) AddBonusHealth(n int) {
	p.BonusHealth += n
	p.RecomputeMaxHealth()
	if !p.Dying {
		p.Heal(n)
	}
}

// Heal restores health up to max. A dying player is not healed; revival
// is a separate, explicit step. Returns the amount restored.
func (p *Player) Heal(n int) int {
	if p.Dying || n <= 0 {
		return 0
	}
	before := p.Health
	p.Health = min(p.MaxHealth, p.Health+n)
	return p.Health - before
}

// Damage describes the result of TakeDamage.
type Damage struct {
	Dealt int
	Dying bool
	Saved types.BoostTag // auto-revival boost that fired, if any
}

// TakeDamage subtracts health, floored at 0. An active immortal boost keeps
// health at 1 or more. At 0 health an auto_revive or reincarnate boost is
// consumed to revive instead of entering the dying state.
func (p *Player) TakeDamage(n int, now int64) Damage {
	if n <= 0 || p.Dying {
		return Damage{Dying: p.Dying}
	}
	before := p.Health
	if _, ok := p.Boost(types.BoostImmortal, now); ok {
		p.Health = max(1, p.Health-n)
		return Damage{Dealt: before - p.Health}
	}
	p.Health = max(0, p.Health-n)
	dmg := Damage{Dealt: before - p.Health}
	if p.Health > 0 {
		return dmg
	}
	if _, ok := p.ConsumeBoost(types.BoostAutoRevive, now); ok {
		p.Revive(false)
		dmg.Saved = types.BoostAutoRevive
		return dmg
	}
	if _, ok := p.ConsumeBoost(types.BoostReincarnate, now); ok {
		p.Revive(true)
		dmg.Saved = types.BoostReincarnate
		return dmg
	}
	p.Dying = true
	p.DeathTime = now
	p.AutoTrain = false
	dmg.Dying = true
	return dmg
}

// Revive leaves the dying state at 30% health, or full health if full.
func (p *Player) Revive(full bool) {
	p.ReviveTo(0.3)
	if full {
		p.Health = p.MaxHealth
	}
}

// ReviveTo leaves the dying state at a fraction of max health, at least 1.
func (p *Player) ReviveTo(fraction float64) {
	p.Dying = false
	p.DeathTime = 0
	p.Health = min(p.MaxHealth, max(1, int(float64(p.MaxHealth)*fraction)))
}

// Wound subtracts health but never below 1. Used for backlash that
// cannot kill.
func (p *Player) Wound(n int) int {
	if n <= 0 || p.Dying {
		return 0
	}
	before := p.Health
	p.Health = max(1, p.Health-n)
	return before - p.Health
}

// AddGold credits gold. Negative amounts are ignored.
func (p *Player) AddGold(n int) {
	if n > 0 {
		p.Gold += n
	}
}

// SpendGold debits gold if the balance covers it.
func (p *Player) SpendGold(n int) bool {
	if n < 0 || p.Gold < n {
		return false
	}
	p.Gold -= n
	return true
}

// Remaining returns the seconds left on a cooldown, 0 when ready.
func Remaining(last int64, cooldown int, now int64) int64 {
	left := last + int64(cooldown) - now
	if left < 0 {
		return 0
	}
	return left
}

// Clone returns a deep copy.
func (p *Player) Clone() *Player {
	c := *p
	c.Inventory = append([]string(nil), p.Inventory...)
	c.Equipped = append([]string(nil), p.Equipped...)
	c.Boosts = make(map[types.BoostTag]Boost, len(p.Boosts))
	for k, v := range p.Boosts {
		c.Boosts[k] = v
	}
	return &c
}
