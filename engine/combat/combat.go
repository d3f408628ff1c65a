// Package combat resolves duels, dungeon encounters, supreme-ruler
// challenges and world-boss strikes from power values.
package combat

import (
	"fmt"
	"math"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/types"
)

const (
	duelExponent = 2.5
	duelNoise    = 0.03

	dungeonCenter    = 0.7
	dungeonSteepness = 6.0
	dungeonNoise     = 0.05

	minChance = 0.01
	maxChance = 0.99

	// oneShotGap is the realm lead that turns a duel win into a one-shot.
	oneShotGap = 2
)

// DuelChance is the attacker's win probability: r^2.5 / (r^2.5 + 1)
// with r the power ratio. Equal power gives 0.5.
func DuelChance(attacker, defender int) float64 {
	switch {
	case defender <= 0 && attacker <= 0:
		return 0.5
	case defender <= 0:
		return 1
	case attacker <= 0:
		return 0
	}
	r := math.Pow(float64(attacker)/float64(defender), duelExponent)
	if math.IsInf(r, 1) {
		return 1
	}
	return r / (r + 1)
}

// DungeonChance is a logistic curve over team/boss power centred on a
// ratio of 0.7.
func DungeonChance(team, boss int) float64 {
	if boss <= 0 {
		return 1
	}
	ratio := float64(team) / float64(boss)
	return 1 / (1 + math.Exp(-dungeonSteepness*(ratio-dungeonCenter)))
}

// Noisy perturbs p by up to ±noise and clamps it to [0.01, 0.99].
func Noisy(p, noise float64, r *rng.RNG) float64 {
	return min(maxChance, max(minChance, p+r.Uniform(-noise, noise)))
}

// CheckDuelists validates that two players can fight each other now.
func CheckDuelists(challenger, defender *player.Player, ctx progress.Context) *types.Failure {
	if challenger.ID == defender.ID {
		return &types.Failure{Kind: types.FailInvalidTarget, Message: "you cannot duel yourself"}
	}
	if challenger.Dying {
		return progress.DyingFailure().Failure
	}
	if defender.Dying {
		return &types.Failure{Kind: types.FailInvalidTarget, Message: fmt.Sprintf("%s is dying and cannot fight", defender.Name)}
	}
	cd := ctx.Tables.Rules.DuelCooldown
	if left := player.Remaining(challenger.LastDuel, cd, ctx.Now); left > 0 {
		return progress.CooldownFailure("dueling", left).Failure
	}
	if left := player.Remaining(defender.LastDuel, cd, ctx.Now); left > 0 {
		return &types.Failure{Kind: types.FailCooldown, Message: fmt.Sprintf("%s is still recovering from a duel, %ds left", defender.Name, left)}
	}
	return nil
}

// DuelResult is the structured record of one duel.
type DuelResult struct {
	Winner  *player.Player
	Loser   *player.Player
	Chance  float64 // challenger's win probability after noise
	Qi      int
	Gold    int
	Damage  int
	OneShot bool
}

// rewardFactor shrinks the prize when the winner outranks the loser and
// grows it for an underdog win.
func rewardFactor(gap int) float64 {
	if gap > 0 {
		return 1 / float64(1+gap)
	}
	return 1 + 0.5*float64(-gap)
}

// Duel resolves a fight between two validated players. Both duel
// cooldowns are stamped whatever the result.
func Duel(challenger, defender *player.Player, ctx progress.Context) (DuelResult, types.Outcome) {
	t := ctx.Tables
	cp, dp := challenger.Power(t, ctx.Now), defender.Power(t, ctx.Now)
	res := DuelResult{Chance: Noisy(DuelChance(cp, dp), duelNoise, ctx.RNG)}

	res.Winner, res.Loser = defender, challenger
	if ctx.RNG.Float64() < res.Chance {
		res.Winner, res.Loser = challenger, defender
	}
	challenger.LastDuel = ctx.Now
	defender.LastDuel = ctx.Now

	w, l := res.Winner, res.Loser
	gap := w.Realm - l.Realm
	factor := rewardFactor(gap)
	res.Qi = int(float64(l.RequiredQi) * 0.1 * factor)
	res.Gold = int(float64(10*l.Level*(l.Realm+1)) * factor)

	switch {
	case gap >= oneShotGap:
		res.OneShot = true
		res.Damage = l.Health
	case l.Invincible(ctx.Now):
		res.Damage = 0
	default:
		dmg := float64(10 * l.Level * (w.Realm + 1))
		if gap < 0 {
			dmg /= 2
		}
		res.Damage = int(dmg * (1 - l.Defense(ctx.Now)))
	}

	lvl := w.GainQi(t, res.Qi)
	w.AddGold(res.Gold)
	hit := l.TakeDamage(res.Damage, ctx.Now)

	var flags types.Flag
	if w == challenger {
		flags |= types.FlagVictory
	} else {
		flags |= types.FlagDefeat
	}
	lines := []string{
		fmt.Sprintf("%s (%d) vs %s (%d): %s wins (challenger odds %.0f%%).", challenger.Name, cp, defender.Name, dp, w.Name, res.Chance*100),
		fmt.Sprintf("%s gains %d qi and %d gold.", w.Name, res.Qi, res.Gold),
	}
	if res.OneShot {
		flags |= types.FlagOneShot
		lines = append(lines, fmt.Sprintf("%s is struck down in a single blow!", l.Name))
	} else {
		lines = append(lines, fmt.Sprintf("%s takes %d damage.", l.Name, hit.Dealt))
	}
	if line, f := progress.DamageLine(l, hit); line != "" {
		flags |= f
		lines = append(lines, fmt.Sprintf("%s: %s", l.Name, line))
	}
	flags |= progress.LevelFlags(lvl)
	lines = append(lines, progress.LevelLines(w, t, lvl)...)
	return res, types.Succeed(flags, lines...)
}

// DungeonResult is the structured record of one dungeon run.
type DungeonResult struct {
	Victory   bool
	Chance    float64
	TeamPower int
	Gold      int                 // per participant
	Loot      map[string][]string // player id -> items received
	Damage    int                 // per participant on defeat
}

// Dungeon resolves a party against a dungeon boss. Victory pays every
// participant and rolls each loot entry independently per participant.
// Defeat splits the boss penalty across the party.
func Dungeon(tier types.DungeonTier, party []*player.Player, ctx progress.Context) (DungeonResult, types.Outcome) {
	if len(party) == 0 {
		return DungeonResult{}, types.Fail(types.FailInvariant, "the party is empty")
	}
	res := DungeonResult{Loot: map[string][]string{}}
	for _, p := range party {
		res.TeamPower += p.Power(ctx.Tables, ctx.Now)
	}
	res.Chance = Noisy(DungeonChance(res.TeamPower, tier.BossPower), dungeonNoise, ctx.RNG)
	res.Victory = ctx.RNG.Float64() < res.Chance

	lines := []string{fmt.Sprintf("【%s】party power %d vs boss %d, win chance %.0f%%.", tier.Name, res.TeamPower, tier.BossPower, res.Chance*100)}
	var flags types.Flag

	if res.Victory {
		flags |= types.FlagVictory
		res.Gold = int(float64(tier.Gold) * (1.5 - res.Chance))
		lines = append(lines, fmt.Sprintf("Victory! Each member receives %d gold.", res.Gold))
		for _, p := range party {
			p.AddGold(res.Gold)
			for _, entry := range tier.Loot {
				if !ctx.RNG.Chance(entry.Chance) {
					continue
				}
				if p.AddItem(ctx.Tables, entry.Item) {
					res.Loot[p.ID] = append(res.Loot[p.ID], entry.Item)
					lines = append(lines, fmt.Sprintf("%s obtained【%s】.", p.Name, entry.Item))
				} else {
					lines = append(lines, fmt.Sprintf("%s had no room for【%s】.", p.Name, entry.Item))
				}
			}
		}
		return res, types.Succeed(flags, lines...)
	}

	flags |= types.FlagDefeat
	res.Damage = int(float64(tier.BossPower) * tier.PenaltyRate / float64(len(party)))
	lines = append(lines, fmt.Sprintf("Defeat. Each member takes %d damage.", res.Damage))
	for _, p := range party {
		hit := p.TakeDamage(res.Damage, ctx.Now)
		if line, f := progress.DamageLine(p, hit); line != "" {
			flags |= f
			lines = append(lines, fmt.Sprintf("%s: %s", p.Name, line))
		}
	}
	return res, types.Outcome{Flags: flags, Lines: lines}
}

// RulerChallenge resolves a bid for the supreme-ruler title against the
// holder, or against the baseline power when the title is vacant. The
// challenger is wounded harder on a loss than a deposed holder is.
func RulerChallenge(challenger, holder *player.Player, ctx progress.Context) (bool, types.Outcome) {
	rules := ctx.Tables.Rules
	cp := challenger.Power(ctx.Tables, ctx.Now)
	dp, name := rules.RulerBaselinePower, "the guardian of the throne"
	if holder != nil {
		dp, name = holder.Power(ctx.Tables, ctx.Now), holder.Name
	}
	chance := Noisy(DuelChance(cp, dp), duelNoise, ctx.RNG)
	challenger.LastDuel = ctx.Now

	if ctx.RNG.Float64() < chance {
		challenger.AddGold(rules.RulerReward)
		lines := []string{
			fmt.Sprintf("%s (%d) overcame %s (%d) with %.0f%% odds.", challenger.Name, cp, name, dp, chance*100),
			fmt.Sprintf("%s is the new supreme ruler and receives %d gold.", challenger.Name, rules.RulerReward),
		}
		if holder != nil {
			holder.Wound(holder.MaxHealth / 10)
		}
		return true, types.Succeed(types.FlagVictory|types.FlagRulerChanged, lines...)
	}

	dealt := challenger.Wound(challenger.MaxHealth / 5)
	return false, types.Outcome{
		Flags: types.FlagDefeat,
		Lines: []string{fmt.Sprintf("%s (%d) failed to unseat %s (%d) and took %d damage.", challenger.Name, cp, name, dp, dealt)},
	}
}

// BossDamage is the damage one strike deals: power scaled by 0.8–1.2.
func BossDamage(power int, r *rng.RNG) int {
	return int(float64(power) * r.Uniform(0.8, 1.2))
}
