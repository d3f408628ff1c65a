// Package effects is the consumable dispatch table. Every pill effect kind
// maps to exactly one handler; no item-specific branching lives outside it.
package effects

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

// Context carries what handlers need beyond the player and pill.
type Context struct {
	Tables *catalog.Tables
	Now    int64
	Log    *slog.Logger
}

func (c Context) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// Handler applies one pill to a player. A returned error rejects the use
// and the pill stays in the inventory.
type Handler func(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error)

// guardDuration applies to breakthrough guards taken from inventory.
const guardDuration = 86400

var handlers = map[types.EffectKind]Handler{
	types.EffectTrainBoost:          boost(types.BoostTrain),
	types.EffectTrainSafe:           boost(types.BoostTrainSafe),
	types.EffectTrainImmune:         boost(types.BoostTrainImmune),
	types.EffectTrainPerfect:        trainPerfect,
	types.EffectTrainExtra:          boost(types.BoostTrainExtra),
	types.EffectBreakthroughBoost:   boost(types.BoostBreakthrough),
	types.EffectBreakthroughProtect: guard,
	types.EffectBattleStrength:      boost(types.BoostStrength),
	types.EffectBattleDefense:       boost(types.BoostDefense),
	types.EffectBattleAll:           boost(types.BoostAll),
	types.EffectBattleDesperate:     boost(types.BoostDesperate),
	types.EffectBattleInvincible:    boost(types.BoostInvincible),
	types.EffectRestoreQi:           restoreQi,
	types.EffectHeal:                heal,
	types.EffectRecover:             recoverAll,
	types.EffectRevive:              revive(false),
	types.EffectAutoRevive:          boost(types.BoostAutoRevive),
	types.EffectReincarnate:         boost(types.BoostReincarnate),
	types.EffectFullRevive:          revive(true),
	types.EffectImmortal:            immortal,
	types.EffectLevelUp:             levelUp,
	types.EffectRealmUp:             realmUp,
	types.EffectExploreCooldown:     boost(types.BoostExploreCD),
	types.EffectPermHealth:          permHealth,
}

// Registered reports whether kind has a handler.
func Registered(kind types.EffectKind) bool {
	_, ok := handlers[kind]
	return ok
}

// UsePill consumes one pill from the player's inventory and applies its
// handler. A handler panic restores the player to its prior state and is
// reported as an internal failure.
func UsePill(p *player.Player, name string, ctx Context) (out types.Outcome) {
	pill, ok := ctx.Tables.Pill(name)
	if !ok {
		return types.Fail(types.FailInvalidTarget, "%s is not a pill", name)
	}
	if !p.HasItem(name) {
		return types.Fail(types.FailInsufficient, "you do not have %s", name)
	}
	h, ok := handlers[pill.Effect]
	if !ok {
		return types.Fail(types.FailInvalidTarget, "%s cannot be used right now", name)
	}

	snapshot := p.Clone()
	defer func() {
		if r := recover(); r != nil {
			*p = *snapshot
			ctx.logger().Error("pill handler panicked",
				"item", name, "effect", pill.Effect.String(), "panic", r)
			out = types.Outcome{Failure: &types.Failure{
				Kind:    types.FailInternal,
				Message: "failed to use item",
				Cause:   fmt.Errorf("%v", r),
			}}
		}
	}()

	flags, err := h(p, pill, ctx)
	if err != nil {
		*p = *snapshot
		return failureOutcome(err)
	}
	p.RemoveItem(name)

	line := fmt.Sprintf("Used【%s】: %s%s", name, pill.Description, durationSuffix(pill.Duration))
	return types.Succeed(flags, line)
}

func failureOutcome(err error) types.Outcome {
	if f, ok := err.(*types.Failure); ok {
		return types.Outcome{Failure: f}
	}
	return types.Outcome{Failure: &types.Failure{Kind: types.FailInternal, Message: "failed to use item", Cause: err}}
}

func durationSuffix(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf(", lasts %d min", minutes)
	}
	return fmt.Sprintf(", lasts %d h", minutes/60)
}

func reject(kind types.FailureKind, msg string) error {
	return &types.Failure{Kind: kind, Message: msg}
}

func boost(tag types.BoostTag) Handler {
	return func(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
		p.ApplyBoost(tag, pill.Value, pill.Duration, ctx.Now)
		return 0, nil
	}
}

func trainPerfect(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	p.ApplyBoost(types.BoostTrain, pill.Value, pill.Duration, ctx.Now)
	p.ApplyBoost(types.BoostTrainImmune, 1.0, pill.Duration, ctx.Now)
	return 0, nil
}

func guard(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	d := pill.Duration
	if d <= 0 {
		d = guardDuration
	}
	p.ApplyBoost(types.BoostGuard, pill.Value, d, ctx.Now)
	return types.FlagProtected, nil
}

func restoreQi(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	if p.Dying {
		return 0, reject(types.FailStatus, "you are dying and cannot absorb qi")
	}
	res := p.GainQi(ctx.Tables, int(float64(p.RequiredQi)*pill.Value))
	return levelFlags(res), nil
}

func heal(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	if p.Dying {
		return 0, reject(types.FailStatus, "you are dying; use a revival pill")
	}
	if p.Health >= p.MaxHealth {
		return 0, reject(types.FailInvariant, "you are already at full health")
	}
	p.Heal(int(float64(p.MaxHealth) * pill.Value))
	return 0, nil
}

func recoverAll(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	var flags types.Flag
	if p.Dying {
		p.ReviveTo(pill.Value)
		flags |= types.FlagRevived
	} else {
		p.Heal(int(float64(p.MaxHealth) * pill.Value))
	}
	res := p.GainQi(ctx.Tables, int(float64(p.RequiredQi)*pill.Value))
	return flags | levelFlags(res), nil
}

func revive(full bool) Handler {
	return func(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
		if !p.Dying {
			return 0, reject(types.FailInvariant, "you are not dying")
		}
		if full {
			p.Revive(true)
		} else {
			p.ReviveTo(pill.Value)
		}
		return types.FlagRevived, nil
	}
}

func immortal(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	var flags types.Flag
	if p.Dying {
		flags |= types.FlagRevived
	}
	p.Revive(true)
	p.ApplyBoost(types.BoostImmortal, pill.Value, pill.Duration, ctx.Now)
	return flags, nil
}

func levelUp(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	if p.AdvanceLevels(ctx.Tables, int(pill.Value)) == 0 {
		return 0, reject(types.FailInvariant, "your stars are already full; break through instead")
	}
	flags := types.FlagLevelUp
	if p.CanBreakthrough(ctx.Tables) {
		flags |= types.FlagBreakthroughReady
	}
	return flags, nil
}

func realmUp(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	if p.AdvanceRealm(ctx.Tables, int(pill.Value)) == 0 {
		return 0, reject(types.FailInvariant, "you already stand at the top realm")
	}
	return types.FlagRealmAdvanced, nil
}

func permHealth(p *player.Player, pill types.Pill, ctx Context) (types.Flag, error) {
	p.AddBonusHealth(int(pill.Value))
	return 0, nil
}

func levelFlags(res player.LevelResult) types.Flag {
	var f types.Flag
	if res.Gained > 0 {
		f |= types.FlagLevelUp
	}
	if res.Ready {
		f |= types.FlagBreakthroughReady
	}
	if res.RolledBack {
		f |= types.FlagRolledBack
	}
	return f
}
