package player

import (
	"sort"

	"github.com/nathoo/dpcq/types"
)

// ApplyBoost sets a temporary boost. Re-applying a tag overwrites it.
func (p *Player) ApplyBoost(tag types.BoostTag, value float64, duration int, now int64) {
	if p.Boosts == nil {
		p.Boosts = map[types.BoostTag]Boost{}
	}
	p.Boosts[tag] = Boost{Value: value, Expires: now + int64(duration)}
}

// Boost returns the magnitude of an active boost.
func (p *Player) Boost(tag types.BoostTag, now int64) (float64, bool) {
	b, ok := p.Boosts[tag]
	if !ok || now >= b.Expires {
		return 0, false
	}
	return b.Value, true
}

// BoostValue is Boost with inactive boosts reading as 0.
func (p *Player) BoostValue(tag types.BoostTag, now int64) float64 {
	v, _ := p.Boost(tag, now)
	return v
}

// ConsumeBoost returns an active boost and removes it.
func (p *Player) ConsumeBoost(tag types.BoostTag, now int64) (float64, bool) {
	v, ok := p.Boost(tag, now)
	if ok {
		delete(p.Boosts, tag)
	}
	return v, ok
}

// PruneBoosts drops expired entries.
func (p *Player) PruneBoosts(now int64) {
	for tag, b := range p.Boosts {
		if now >= b.Expires {
			delete(p.Boosts, tag)
		}
	}
}

// ActiveBoost is a boost with its remaining lifetime, for display.
type ActiveBoost struct {
	Tag       types.BoostTag
	Value     float64
	Remaining int64
}

// ActiveBoosts lists active boosts sorted by tag.
func (p *Player) ActiveBoosts(now int64) []ActiveBoost {
	var out []ActiveBoost
	for tag, b := range p.Boosts {
		if now < b.Expires {
			out = append(out, ActiveBoost{Tag: tag, Value: b.Value, Remaining: b.Expires - now})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
