package progress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

const maxDanger = 0.9

// Risk is the realm-adjusted danger and reward of one exploration tier.
type Risk struct {
	Diff        int     // player realm minus recommended realm
	DangerBoost float64 // extra danger for being under-leveled
	Danger      float64 // final danger coefficient, at most 0.9
	Reward      float64 // multiplier on qi and gold rewards
}

// Assess computes the danger and reward of a tier for a realm.
func Assess(tier types.ExploreTier, realm int) Risk {
	diff := realm - tier.RecommendedRealm
	under := float64(max(0, -diff))
	over := float64(max(0, diff))
	r := Risk{Diff: diff, DangerBoost: 0.3 * under}
	r.Danger = min(maxDanger, max(0, tier.Danger+r.DangerBoost-0.15*over))
	r.Reward = max(0.1, tier.RewardFactor*(1+0.1*over-0.2*under))
	return r
}

// ExploreCooldown is the explore cooldown after an active explore_cd boost.
func ExploreCooldown(p *player.Player, base int, now int64) int {
	return int(float64(base) * max(0, 1-p.BoostValue(types.BoostExploreCD, now)))
}

// Explore runs one exploration of the named tier. An empty name picks
// the first tier.
func Explore(p *player.Player, tierName string, ctx Context) types.Outcome {
	t := ctx.Tables
	tier := t.Tiers[0]
	if tierName != "" {
		var ok bool
		if tier, ok = t.Tier(tierName); !ok {
			names := make([]string, len(t.Tiers))
			for i, tt := range t.Tiers {
				names[i] = tt.Name
			}
			return types.Fail(types.FailInvalidTarget, "unknown exploration tier %q (choose %s)", tierName, strings.Join(names, "/"))
		}
	}
	if p.Dying {
		return DyingFailure()
	}
	cd := ExploreCooldown(p, t.Rules.ExploreCooldown, ctx.Now)
	if left := player.Remaining(p.LastExplore, cd, ctx.Now); left > 0 {
		return CooldownFailure("exploration", left)
	}
	p.LastExplore = ctx.Now

	risk := Assess(tier, p.Realm)
	weights := make([]float64, len(t.Events))
	for i, ev := range t.Events {
		weights[i] = ev.Weight
		if ev.Beast {
			weights[i] *= 1 + risk.Danger
		}
	}
	ev := t.Events[max(0, ctx.RNG.WeightedSelect(weights))]

	lines := []string{fmt.Sprintf("【%s】%s exploration", ev.Name, tier.Name), ev.Description}
	var flags types.Flag
	for _, eff := range ev.Effects {
		line, f := applyEventEffect(p, eff, tier.Index, risk, ctx)
		flags |= f
		if line != "" {
			lines = append(lines, line)
		}
	}

	if ctx.RNG.Chance(risk.Danger) {
		dmg := int(float64(ctx.RNG.Between(15, 40)*(1+tier.Index)) * (1 + risk.DangerBoost))
		res := p.TakeDamage(dmg, ctx.Now)
		if res.Dealt > 0 {
			lines = append(lines, fmt.Sprintf("A deadly hazard struck you for %d damage!", res.Dealt))
		}
		line, f := DamageLine(p, res)
		flags |= f
		if line != "" {
			lines = append(lines, line)
		}
	}

	switch {
	case risk.Diff < 0:
		lines = append(lines, fmt.Sprintf("Warning: you are %d realms below the recommended realm.", -risk.Diff))
	case risk.Diff > 3:
		lines = append(lines, "This tier no longer challenges you.")
	}
	return types.Succeed(flags, lines...)
}

func fires(eff types.EventEffect, tier int, ctx Context) bool {
	if eff.Chance == 0 && eff.ChanceStep == 0 {
		return true
	}
	return ctx.RNG.Chance(eff.Chance + eff.ChanceStep*float64(tier))
}

func scaledRoll(eff types.EventEffect, tier, realm int, ctx Context) float64 {
	v := float64(ctx.RNG.Between(eff.Min, eff.Max))
	if eff.TierOffset != 0 || eff.TierStep != 0 {
		v *= eff.TierOffset + eff.TierStep*float64(ipow(tier, eff.TierExp))
	}
	if eff.RealmScale != 0 {
		v *= eff.RealmScale * float64(ipow(realm, eff.RealmExp))
	}
	return v
}

func applyEventEffect(p *player.Player, eff types.EventEffect, tier int, risk Risk, ctx Context) (string, types.Flag) {
	if !fires(eff, tier, ctx) {
		return "", 0
	}
	t := ctx.Tables

	switch eff.Kind {
	case types.EventQi:
		if p.Dying {
			return "", 0
		}
		qi := int(float64(p.RequiredQi) * (eff.Base + eff.Step*float64(tier*tier)) * risk.Reward)
		res := p.GainQi(t, qi)
		lines := append([]string{fmt.Sprintf("%s, gained %d qi.", eff.Text, qi)}, LevelLines(p, t, res)...)
		return strings.Join(lines, "\n"), LevelFlags(res)

	case types.EventGold:
		gold := int(scaledRoll(eff, tier, p.Realm, ctx) * risk.Reward)
		p.AddGold(gold)
		return fmt.Sprintf("%s: %d gold.", eff.Text, gold), 0

	case types.EventPill:
		pool := t.PillsOfCategory(eff.Category)
		n := min(len(pool), eff.Count+eff.CountStep*ipow(tier, eff.CountExp))
		i := ctx.RNG.Pick(n)
		if i < 0 {
			return "", 0
		}
		return grant(p, eff.Text, pool[i].Name, ctx), 0

	case types.EventTechnique:
		weights := eff.Weights
		if tier == len(t.Tiers)-1 && len(eff.HighWeights) > 0 {
			weights = eff.HighWeights
		}
		names := make([]string, 0, len(weights))
		for name := range weights {
			names = append(names, name)
		}
		sort.Strings(names)
		w := make([]float64, len(names))
		for i, name := range names {
			w[i] = weights[name]
		}
		i := ctx.RNG.WeightedSelect(w)
		if i < 0 {
			return "", 0
		}
		return grant(p, eff.Text, names[i], ctx), 0

	case types.EventDamage:
		if eff.HealthFraction > 0 {
			return hurt(p, eff.Text, int(float64(p.Health)*eff.HealthFraction), ctx)
		}
		return hurt(p, eff.Text, int(scaledRoll(eff, tier, p.Realm, ctx)), ctx)

	case types.EventBeast:
		if ctx.RNG.Chance(eff.WinChance) {
			return grant(p, eff.Text, eff.Item, ctx), 0
		}
		line, flags := hurt(p, "The beast overpowered you", int(scaledRoll(eff, tier, p.Realm, ctx)), ctx)
		if ctx.RNG.Chance(eff.LoseItemChance + eff.LoseItemStep*float64(tier)) {
			if lost, ok := p.LoseItem(t); ok {
				line = strings.TrimSpace(line + fmt.Sprintf("\nYou fled and dropped【%s】.", lost))
			}
		}
		return line, flags

	case types.EventItem:
		return grant(p, eff.Text, eff.Item, ctx), 0
	}
	return "", 0
}

func grant(p *player.Player, text, item string, ctx Context) string {
	if !p.AddItem(ctx.Tables, item) {
		return fmt.Sprintf("%s, but your inventory is full and【%s】was left behind.", text, item)
	}
	return fmt.Sprintf("%s, obtained【%s】.", text, item)
}

func hurt(p *player.Player, text string, dmg int, ctx Context) (string, types.Flag) {
	res := p.TakeDamage(dmg, ctx.Now)
	if res.Dealt == 0 {
		return "", 0
	}
	lines := []string{fmt.Sprintf("%s, lost %d health.", text, res.Dealt)}
	line, flags := DamageLine(p, res)
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), flags
}
