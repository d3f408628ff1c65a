package progress

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

// Breakthrough attempts to enter the next realm from full stars.
//
// An active breakthrough boost is consumed by the attempt. On failure a
// guard pill held in the inventory, or an active guard boost, absorbs the
// backlash; otherwise the player takes realm-scaled damage that cannot
// kill.
func Breakthrough(p *player.Player, ctx Context) types.Outcome {
	t := ctx.Tables
	if p.Dying {
		return DyingFailure()
	}
	if p.Realm >= t.LastRealm() {
		return types.Fail(types.FailInvariant, "you already stand at the top realm")
	}
	if !p.CanBreakthrough(t) {
		realm := t.Realm(p.Realm)
		if len(realm.AscensionItems) > 0 {
			return types.Fail(types.FailInvariant, "you must pass %d stars with %v before breaking through", realm.Levels, realm.AscensionItems)
		}
		return types.Fail(types.FailInvariant, "your stars are not full yet (%d/%d)", p.Level, realm.Levels)
	}

	chance := t.Realm(p.Realm).BreakthroughChance
	if v, ok := p.ConsumeBoost(types.BoostBreakthrough, ctx.Now); ok {
		chance += v
	}

	if ctx.RNG.Chance(chance) {
		p.EnterNextRealm(t)
		p.Heal((p.Realm + 1) * (p.Realm + 1) * 2)
		lines := []string{fmt.Sprintf("★ Breakthrough! You are now %s, %d stars, %s ★", p.RealmName(t), p.Level, p.Title(t))}
		for _, name := range removeAssists(p, ctx) {
			lines = append(lines, fmt.Sprintf("【%s】was spent by the breakthrough.", name))
		}
		return types.Succeed(types.FlagRealmAdvanced, lines...)
	}

	if guard, ok := guardPill(p, ctx); ok {
		p.RemoveItem(guard)
		return types.Outcome{
			Flags: types.FlagProtected,
			Lines: []string{fmt.Sprintf("Breakthrough failed, but【%s】shielded you from the backlash.", guard)},
		}
	}
	if _, ok := p.ConsumeBoost(types.BoostGuard, ctx.Now); ok {
		return types.Outcome{
			Flags: types.FlagProtected,
			Lines: []string{"Breakthrough failed, but your meridian guard absorbed the backlash."},
		}
	}

	scale := p.Realm + 1
	dmg := ctx.RNG.Between(10, scale*scale*5) * scale
	dealt := p.Wound(dmg)
	return types.Outcome{Lines: []string{fmt.Sprintf("Breakthrough failed. The backlash dealt %d damage.", dealt)}}
}

func guardPill(p *player.Player, ctx Context) (string, bool) {
	for _, pill := range ctx.Tables.PillsOfEffect(types.EffectBreakthroughProtect) {
		if p.HasItem(pill.Name) {
			return pill.Name, true
		}
	}
	return "", false
}

func removeAssists(p *player.Player, ctx Context) []string {
	var removed []string
	for _, pill := range ctx.Tables.Pills {
		if !pill.Assist {
			continue
		}
		for p.RemoveItem(pill.Name) {
			removed = append(removed, pill.Name)
		}
	}
	return removed
}
