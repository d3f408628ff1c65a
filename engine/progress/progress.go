// Package progress implements the single-player progression operations:
// training, breakthroughs, exploration, item use and revival.
//
// Every operation validates first and mutates second. A returned Failure
// means nothing changed.
package progress

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine/effects"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/types"
)

// Context is the per-call environment shared by every operation.
type Context struct {
	Tables *catalog.Tables
	RNG    *rng.RNG
	Now    int64
	Log    *slog.Logger
}

func (c Context) effects() effects.Context {
	return effects.Context{Tables: c.Tables, Now: c.Now, Log: c.Log}
}

// DyingFailure is the status failure returned to dying players.
func DyingFailure() types.Outcome {
	return types.Fail(types.FailStatus, "you are dying; revive before doing anything else")
}

// CooldownFailure reports the seconds left on an action's cooldown.
func CooldownFailure(action string, left int64) types.Outcome {
	return types.Fail(types.FailCooldown, "%s is on cooldown, %ds left", action, left)
}

// LevelFlags converts a qi result into outcome flags.
func LevelFlags(res player.LevelResult) types.Flag {
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

// LevelLines describes a qi result for the player.
func LevelLines(p *player.Player, t *catalog.Tables, res player.LevelResult) []string {
	var lines []string
	for _, item := range res.Consumed {
		lines = append(lines, fmt.Sprintf("Consumed【%s】to pass the star cap.", item))
	}
	switch {
	case res.RolledBack:
		lines = append(lines, fmt.Sprintf("Your stars are full but you lack %v; qi is held at the threshold.", res.Missing))
	case res.Ready:
		lines = append(lines, "Breakthrough conditions met. Use breakthrough to advance.")
	case res.Gained > 0:
		lines = append(lines, fmt.Sprintf("★ Advanced to %s, %d stars ★", p.RealmName(t), p.Level))
	}
	return lines
}

// DamageLine describes what TakeDamage did.
func DamageLine(p *player.Player, dmg player.Damage) (string, types.Flag) {
	switch {
	case dmg.Saved != "":
		return fmt.Sprintf("A %s boost pulled you back from death with %d health.", dmg.Saved, p.Health), types.FlagRevived
	case dmg.Dying:
		return "You collapse, dying. Use revive or wait for a rescue.", types.FlagDying
	}
	return "", 0
}

func ipow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
