package progress

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/effects"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

// naturalRecovery is the health fraction restored after the revive grace.
const naturalRecovery = 0.1

// UseItem consumes a pill, or equips a technique when the item is not a
// pill.
func UseItem(p *player.Player, name string, ctx Context) types.Outcome {
	t := ctx.Tables
	switch t.Kind(name) {
	case types.ItemPill:
		return effects.UsePill(p, name, ctx.effects())
	case types.ItemTechnique:
		displaced, err := p.Equip(t, name)
		if err != nil {
			return failure(err)
		}
		lines := []string{fmt.Sprintf("Equipped【%s】: %s", name, t.Describe(name))}
		if displaced != "" {
			lines = append(lines, fmt.Sprintf("【%s】was returned to your inventory.", displaced))
		}
		return types.Succeed(types.FlagEquipped, lines...)
	case types.ItemArtifact:
		return types.Fail(types.FailInvalidTarget, "【%s】cannot be used directly", name)
	}
	return types.Fail(types.FailInvalidTarget, "unknown item %q", name)
}

// revivalEffects are the pill effects that end the dying state.
var revivalEffects = map[types.EffectKind]bool{
	types.EffectRevive:     true,
	types.EffectFullRevive: true,
	types.EffectRecover:    true,
	types.EffectImmortal:   true,
}

// BestRevivalPill is the highest-rank held pill that can revive.
func BestRevivalPill(p *player.Player, ctx Context) (types.Pill, bool) {
	var best types.Pill
	found := false
	for _, item := range p.Inventory {
		pill, ok := ctx.Tables.Pill(item)
		if !ok || !revivalEffects[pill.Effect] {
			continue
		}
		if !found || pill.Rank > best.Rank {
			best, found = pill, true
		}
	}
	return best, found
}

// Revive ends the dying state with the best revival pill held. Without
// one, the player recovers naturally to a tenth of max health once the
// grace period since death has passed.
func Revive(p *player.Player, ctx Context) types.Outcome {
	if !p.Dying {
		return types.Fail(types.FailInvariant, "you are not dying")
	}
	if pill, ok := BestRevivalPill(p, ctx); ok {
		return effects.UsePill(p, pill.Name, ctx.effects())
	}
	grace := ctx.Tables.Rules.ReviveGrace
	if left := player.Remaining(p.DeathTime, grace, ctx.Now); left > 0 {
		return types.Fail(types.FailInsufficient, "no revival pill; you recover naturally in %ds, or ask someone to rescue you", left)
	}
	p.ReviveTo(naturalRecovery)
	return types.Succeed(types.FlagRevived, fmt.Sprintf("You slowly come to with %d health.", p.Health))
}

// RescueCost is the gold a rescuer pays to revive a target.
func RescueCost(target *player.Player, ctx Context) int {
	return ctx.Tables.Rules.RescueCost * (target.Realm + 1)
}

// Rescue revives a dying target at the rescuer's expense: their best
// revival pill if they hold one, otherwise gold.
func Rescue(rescuer, target *player.Player, ctx Context) types.Outcome {
	if rescuer.ID == target.ID {
		return types.Fail(types.FailInvalidTarget, "you cannot rescue yourself; use revive")
	}
	if rescuer.Dying {
		return DyingFailure()
	}
	if !target.Dying {
		return types.Fail(types.FailInvalidTarget, "%s is not dying", target.Name)
	}

	if pill, ok := BestRevivalPill(rescuer, ctx); ok {
		rescuer.RemoveItem(pill.Name)
		switch pill.Effect {
		case types.EffectFullRevive, types.EffectImmortal:
			target.Revive(true)
		default:
			target.ReviveTo(pill.Value)
		}
		return types.Succeed(types.FlagRevived,
			fmt.Sprintf("You fed【%s】to %s, who wakes with %d health.", pill.Name, target.Name, target.Health))
	}

	cost := RescueCost(target, ctx)
	if !rescuer.SpendGold(cost) {
		return types.Fail(types.FailInsufficient, "rescuing %s costs %d gold; you have %d", target.Name, cost, rescuer.Gold)
	}
	target.Revive(false)
	return types.Succeed(types.FlagRevived,
		fmt.Sprintf("You spent %d gold on a healer for %s, who wakes with %d health.", cost, target.Name, target.Health))
}

func failure(err error) types.Outcome {
	if f, ok := err.(*types.Failure); ok {
		return types.Outcome{Failure: f}
	}
	return types.Outcome{Failure: &types.Failure{Kind: types.FailInternal, Message: err.Error(), Cause: err}}
}
