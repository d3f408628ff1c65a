package progress

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

const (
	baseDeviation    = 0.5
	continuousDamp   = 0.7
	continuousBonus  = 1.3
	levelGainStep    = 0.05
	realmSuppression = 0.02
	trainHeal        = 10
)

// DeviationChance is the probability that a training session goes wrong.
func DeviationChance(p *player.Player, continuous bool, now int64) float64 {
	if _, ok := p.Boost(types.BoostTrainImmune, now); ok {
		return 0
	}
	c := max(0, baseDeviation-p.BoostValue(types.BoostTrainSafe, now))
	if continuous {
		c *= continuousDamp
	}
	return c
}

// Train runs one training session. Continuous sessions (auto-train) skip
// the cooldown gate and do not stamp it.
func Train(p *player.Player, continuous bool, ctx Context) types.Outcome {
	rules := ctx.Tables.Rules
	if p.Dying {
		return DyingFailure()
	}
	if !continuous {
		if left := player.Remaining(p.LastTrain, rules.TrainCooldown, ctx.Now); left > 0 {
			return CooldownFailure("training", left)
		}
	}

	if ctx.RNG.Chance(DeviationChance(p, continuous, ctx.Now)) {
		return types.Outcome{
			Flags: types.FlagDeviation,
			Lines: []string{"Your qi ran wild and the session was wasted."},
		}
	}

	realm := ctx.Tables.Realm(p.Realm)
	roll := ctx.RNG.Between(realm.TrainGain[0], realm.TrainGain[1])
	base := float64(roll) * (1 + levelGainStep*float64(p.Level-1))
	base *= 1 + p.BoostValue(types.BoostTrainExtra, ctx.Now)

	mult := p.TrainMultiplier(ctx.Tables) * (1 + p.BoostValue(types.BoostTrain, ctx.Now))
	gain := base * mult * max(0, 1-realmSuppression*float64(p.Realm))
	if continuous {
		gain *= continuousBonus
	}
	qi := int(gain)

	p.Heal(trainHeal)
	if !continuous {
		p.LastTrain = ctx.Now
	}
	res := p.GainQi(ctx.Tables, qi)

	lines := []string{fmt.Sprintf("Gained %d qi (roll %d ×%.2f), progress %d/%d.", qi, roll, mult, p.Qi, p.RequiredQi)}
	lines = append(lines, LevelLines(p, ctx.Tables, res)...)
	return types.Succeed(LevelFlags(res), lines...)
}
