package player

import (
	"github.com/nathoo/dpcq/catalog"
)

// LevelResult summarizes qi-driven star changes.
type LevelResult struct {
	Gained     int      // stars gained
	Ready      bool     // star cap passed, breakthrough available
	RolledBack bool     // cap passage undone for missing materials
	Missing    []string // materials that were missing
	Consumed   []string // materials consumed to pass the cap
}

// GainQi adds qi and levels up while the threshold is met.
func (p *Player) GainQi(t *catalog.Tables, n int) LevelResult {
	if n > 0 {
		p.Qi += n
	}
	var res LevelResult
	for p.Qi >= p.RequiredQi && p.Level <= t.Realm(p.Realm).Levels {
		step := p.LevelUp(t)
		res.Gained += step.Gained
		res.Ready = res.Ready || step.Ready
		res.Consumed = append(res.Consumed, step.Consumed...)
		if step.RolledBack {
			res.RolledBack = true
			res.Missing = step.Missing
			break
		}
	}
	res.Ready = res.Ready || p.Level > t.Realm(p.Realm).Levels
	return res
}

// LevelUp spends one threshold of qi on a star. Stars stop one past the
// realm's cap. Realms with ascension items consume them to pass the cap;
// if any is missing the level-up is rolled back with qi pinned one short
// of the threshold.
func (p *Player) LevelUp(t *catalog.Tables) LevelResult {
	realm := t.Realm(p.Realm)
	if p.Level > realm.Levels {
		return LevelResult{Ready: true}
	}
	p.Qi -= p.RequiredQi
	p.Level++
	p.RecomputeRequiredQi(t)
	if p.Level <= realm.Levels {
		return LevelResult{Gained: 1}
	}

	if missing := p.missing(realm.AscensionItems); len(missing) > 0 {
		p.Level--
		p.RecomputeRequiredQi(t)
		p.Qi = p.RequiredQi - 1
		return LevelResult{RolledBack: true, Missing: missing}
	}
	for _, item := range realm.AscensionItems {
		p.RemoveItem(item)
	}
	return LevelResult{Gained: 1, Ready: true, Consumed: realm.AscensionItems}
}

func (p *Player) missing(items []string) []string {
	need := map[string]int{}
	for _, item := range items {
		need[item]++
	}
	var out []string
	for _, item := range items {
		if need[item] > p.CountItem(item) {
			out = append(out, item)
			need[item] = 0
		}
	}
	return out
}

// CanBreakthrough reports whether the stars are full. Realms that gate
// the cap on materials require the cap to have been passed.
func (p *Player) CanBreakthrough(t *catalog.Tables) bool {
	realm := t.Realm(p.Realm)
	if len(realm.AscensionItems) > 0 {
		return p.Level > realm.Levels
	}
	return p.Level >= realm.Levels
}

// EnterNextRealm advances one realm after a successful breakthrough.
// Surplus stars carry over unless the new realm resets to level 1.
func (p *Player) EnterNextRealm(t *catalog.Tables) {
	levels := t.Realm(p.Realm).Levels
	p.Realm++
	next := t.Realm(p.Realm)
	p.Level = max(1, p.Level-(levels-1))
	if next.ResetLevel || p.Level > next.Levels {
		p.Level = 1
	}
	p.Qi = 0
	p.RecomputeRequiredQi(t)
	p.RecomputeMaxHealth()
}

// AdvanceLevels raises stars directly, up to the realm's cap. Qi resets.
func (p *Player) AdvanceLevels(t *catalog.Tables, n int) int {
	limit := t.Realm(p.Realm).Levels
	before := p.Level
	if before >= limit {
		return 0
	}
	p.Level = min(limit, p.Level+n)
	p.Qi = 0
	p.RecomputeRequiredQi(t)
	return p.Level - before
}

// AdvanceRealm raises the realm directly, up to the top, at level 1.
func (p *Player) AdvanceRealm(t *catalog.Tables, n int) int {
	before := p.Realm
	p.Realm = min(t.LastRealm(), p.Realm+n)
	p.Level = 1
	p.Qi = 0
	p.RecomputeRequiredQi(t)
	p.RecomputeMaxHealth()
	return p.Realm - before
}

// OverallLevel counts every star below the current realm plus the
// current stars.
func (p *Player) OverallLevel(t *catalog.Tables) int {
	n := p.Level
	for i := 0; i < p.Realm; i++ {
		n += t.Realm(i).Levels
	}
	return n
}
