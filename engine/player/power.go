package player

import (
	"math"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/types"
)

// maxPower keeps top-realm arithmetic well inside int64.
const maxPower = 1 << 62

// Power is the combat strength: every completed realm contributes
// base_qi×10, the current realm base_qi×level. Equipped techniques and
// active battle boosts multiply the total.
func (p *Player) Power(t *catalog.Tables, now int64) int {
	base := 0.0
	for i := 0; i < p.Realm; i++ {
		base += float64(t.Realm(i).BaseQi) * 10
	}
	base += float64(t.Realm(p.Realm).BaseQi) * float64(p.Level)

	for _, name := range p.Equipped {
		if tech, ok := t.Technique(name); ok {
			base *= tech.PowerBoost
		}
	}
	if v, ok := p.Boost(types.BoostAll, now); ok {
		base *= 1 + v
	}
	if v, ok := p.Boost(types.BoostStrength, now); ok {
		base *= 1 + v
	}
	if v, ok := p.Boost(types.BoostDesperate, now); ok && p.Health*10 < p.MaxHealth*3 {
		base *= 1 + v
	}
	if base > maxPower || math.IsInf(base, 1) {
		return maxPower
	}
	return int(base)
}

// TrainMultiplier is the product of equipped techniques' training boosts.
func (p *Player) TrainMultiplier(t *catalog.Tables) float64 {
	m := 1.0
	for _, name := range p.Equipped {
		if tech, ok := t.Technique(name); ok {
			m *= tech.TrainBoost
		}
	}
	return m
}

// Defense is the fraction of incoming duel damage absorbed, capped at 0.9.
func (p *Player) Defense(now int64) float64 {
	d := p.BoostValue(types.BoostDefense, now)
	return math.Min(0.9, d)
}

// Invincible reports whether duel damage is ignored.
func (p *Player) Invincible(now int64) bool {
	_, ok := p.Boost(types.BoostInvincible, now)
	return ok
}
