package engine

import (
	"context"
	"errors"

	"github.com/nathoo/dpcq/engine/events"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/state"
	"github.com/nathoo/dpcq/types"
)

// Start opens the game in the actor's group.
func (e *Engine) Start(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gateAdmin, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		if w.Started {
			return done(types.Fail(types.FailPhase, "the game is already running"))
		}
		w.Started = true
		w.RespawnBoss(pc)
		w.OpenLottery(pc)
		res := done(types.Succeed(0, "The path of cultivation is open. Use join to begin."))
		res.events = []types.Event{{Type: events.GameStarted, GroupID: a.GroupID}}
		return res
	})
}

// Stop closes the game; only status keeps working.
func (e *Engine) Stop(ctx context.Context, a Actor) types.Outcome {
	out := e.run(ctx, a, gateAdmin, func(ent *state.Entry, pc progress.Context) result {
		if !ent.World.Started {
			return done(types.Fail(types.FailPhase, "the game is not running"))
		}
		ent.World.Started = false
		res := done(types.Succeed(0, "The game is paused."))
		res.events = []types.Event{{Type: events.GameStopped, GroupID: a.GroupID}}
		return res
	})
	if out.Failure == nil {
		e.stopGroup(a.GroupID)
	}
	return out
}

// Wipe deletes the group's world and starts it afresh, stopped.
func (e *Engine) Wipe(ctx context.Context, a Actor) types.Outcome {
	if !a.Admin {
		return types.Fail(types.FailInvariant, "only an admin may do that")
	}
	if err := e.registry.Wipe(ctx, a.GroupID); err != nil {
		e.log.Error("wipe failed", "group", a.GroupID, "err", err)
		return types.Outcome{Failure: &types.Failure{Kind: types.FailPersistence, Message: "the world could not be wiped", Cause: err}}
	}
	e.bus.Dispatch([]types.Event{{Type: events.WorldWiped, GroupID: a.GroupID}})
	e.log.Info("world wiped", "group", a.GroupID, "by", a.UserID)
	return types.Succeed(0, "The world has been wiped.")
}

// Reload discards the in-memory world so the next command reads the
// last save.
func (e *Engine) Reload(ctx context.Context, a Actor) types.Outcome {
	if !a.Admin {
		return types.Fail(types.FailInvariant, "only an admin may do that")
	}
	e.registry.Reload(a.GroupID)
	e.stopGroup(a.GroupID)
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		return done(types.Succeed(0, "World reloaded from the last save."))
	})
	if out.Failure != nil {
		return out
	}
	if err := e.ResumeAutoTrain(ctx); err != nil {
		e.log.Warn("auto-train resume failed", "group", a.GroupID, "err", err)
	}
	return out
}

// Tick fires the due timers of every started world: market and auction
// refresh, auction settlement, the lottery draw, request and party
// expiry and boss respawn. Announcements go to the sink. A failing
// world does not stop the others.
func (e *Engine) Tick(ctx context.Context) error {
	groups, err := e.registry.Groups(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		var out types.Outcome
		err := e.registry.With(ctx, g, func(ent *state.Entry) bool {
			if !ent.World.Started {
				return false
			}
			pc := e.context()
			ent.Dungeons.Expire(pc.Now, pc.Tables.Rules.DungeonTTL)
			out = ent.World.Tick(pc)
			return true
		})
		if err != nil {
			e.log.Error("tick failed", "group", g, "err", err)
			errs = append(errs, err)
			continue
		}
		e.bus.Dispatch(events.FromOutcome(g, "", out))
		e.announce(g, out.Lines)
	}
	return errors.Join(errs...)
}
