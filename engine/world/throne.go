package world

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/combat"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// Ruler is the supreme-ruler title. At most one player holds it.
type Ruler struct {
	PlayerID string `json:"user_id,omitempty"`
	Since    int64  `json:"since"`
}

// Boss is the shared world boss. Health 0 means slain until the next
// respawn tick.
type Boss struct {
	Health     int   `json:"hp"`
	MaxHealth  int   `json:"max_hp"`
	SlainAt    int64 `json:"slain_time"`
	Generation int   `json:"generation"`
}

// RulerHolder returns the current title holder, if still on the roster.
func (w *World) RulerHolder() (*player.Player, bool) {
	if w.Ruler.PlayerID == "" {
		return nil, false
	}
	return w.Player(w.Ruler.PlayerID)
}

// ChallengeRuler contests the supreme-ruler title.
func (w *World) ChallengeRuler(id string, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	rules := ctx.Tables.Rules
	if p.Dying {
		return progress.DyingFailure()
	}
	if w.Ruler.PlayerID == id {
		return types.Fail(types.FailInvariant, "you already hold the title")
	}
	if p.Realm < rules.RulerMinRealm {
		return types.Fail(types.FailInsufficient, "only %s or above may contest the throne", ctx.Tables.Realm(rules.RulerMinRealm).Name)
	}
	if left := player.Remaining(p.LastDuel, rules.DuelCooldown, ctx.Now); left > 0 {
		return progress.CooldownFailure("fighting", left)
	}

	holder, _ := w.RulerHolder()
	if holder == nil {
		w.Ruler = Ruler{}
	}
	won, out := combat.RulerChallenge(p, holder, ctx)
	if won {
		w.Ruler = Ruler{PlayerID: id, Since: ctx.Now}
	}
	return out
}

// RespawnBoss restores a slain or never-spawned boss. Reports whether it
// spawned.
func (w *World) RespawnBoss(ctx progress.Context) bool {
	if w.Boss.Health > 0 {
		return false
	}
	hp := ctx.Tables.Rules.BossHealth
	w.Boss = Boss{Health: hp, MaxHealth: hp, SlainAt: w.Boss.SlainAt, Generation: w.Boss.Generation + 1}
	return true
}

// StrikeBoss deals one blow to the world boss. Each blow pays gold in
// proportion to damage; the killing blow pays the kill reward and item.
func (w *World) StrikeBoss(id string, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	rules := ctx.Tables.Rules
	if w.Boss.Health <= 0 {
		return types.Fail(types.FailPhase, "the world boss has fallen; it returns on the next tick")
	}
	if p.Dying {
		return progress.DyingFailure()
	}
	if left := player.Remaining(p.LastDuel, rules.DuelCooldown, ctx.Now); left > 0 {
		return progress.CooldownFailure("fighting", left)
	}
	p.LastDuel = ctx.Now

	dmg := min(w.Boss.Health, max(1, combat.BossDamage(p.Power(ctx.Tables, ctx.Now), ctx.RNG)))
	w.Boss.Health -= dmg
	gold := int(float64(dmg) * rules.BossGoldRate)
	p.AddGold(gold)
	lines := []string{fmt.Sprintf("You strike the world boss for %d damage and earn %d gold. (%d/%d)", dmg, gold, w.Boss.Health, w.Boss.MaxHealth)}

	var flags types.Flag
	if w.Boss.Health == 0 {
		flags |= types.FlagBossSlain
		w.Boss.SlainAt = ctx.Now
		p.AddGold(rules.BossKillReward)
		lines = append(lines, fmt.Sprintf("★ %s landed the killing blow and receives %d gold ★", p.Name, rules.BossKillReward))
		if rules.BossKillItem != "" {
			if p.AddItem(ctx.Tables, rules.BossKillItem) {
				lines = append(lines, fmt.Sprintf("Obtained【%s】.", rules.BossKillItem))
			} else {
				lines = append(lines, fmt.Sprintf("Your inventory is full;【%s】was lost.", rules.BossKillItem))
			}
		}
	}
	return types.Succeed(flags, lines...)
}
