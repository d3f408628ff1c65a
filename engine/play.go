package engine

import (
	"context"
	"time"

	"github.com/nathoo/dpcq/engine/events"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/resolve"
	"github.com/nathoo/dpcq/engine/state"
	"github.com/nathoo/dpcq/narrate"
	"github.com/nathoo/dpcq/types"
)

// Join registers the actor as a new cultivator.
func (e *Engine) Join(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gateStarted, func(ent *state.Entry, pc progress.Context) result {
		_, out := ent.World.Join(a.UserID, a.Name, pc)
		res := done(out)
		if out.Failure == nil {
			res.events = []types.Event{{Type: events.PlayerJoined, GroupID: a.GroupID, PlayerID: a.UserID}}
		}
		return res
	})
}

// Leave removes the actor from the world.
func (e *Engine) Leave(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		ent.Dungeons.Disband(a.UserID)
		res := done(ent.World.Leave(a.UserID))
		res.events = []types.Event{{Type: events.PlayerLeft, GroupID: a.GroupID, PlayerID: a.UserID}}
		return res
	})
}

// Profile is a read-only snapshot of one player for display.
type Profile struct {
	Name       string
	Realm      string
	Title      string
	Level      int
	MaxLevel   int
	Qi         int
	RequiredQi int
	Health     int
	MaxHealth  int
	Gold       int
	Power      int
	Dying      bool
	AutoTrain  bool
	Equipped   []string
	Boosts     []player.ActiveBoost
	Inventory  []string
	Capacity   int
	Ruler      bool
	LastSignIn string
	SignedIn   bool
}

// Profile reports the actor's character. Status works in every phase.
func (e *Engine) Profile(ctx context.Context, a Actor) (Profile, types.Outcome) {
	var prof Profile
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		p, ok := ent.World.Player(a.UserID)
		if !ok {
			return done(types.Fail(types.FailInvalidTarget, "you have not joined yet; use join"))
		}
		t := pc.Tables
		prof = Profile{
			Name:       p.Name,
			Realm:      p.RealmName(t),
			Title:      p.Title(t),
			Level:      p.Level,
			MaxLevel:   t.Realm(p.Realm).Levels,
			Qi:         p.Qi,
			RequiredQi: p.RequiredQi,
			Health:     p.Health,
			MaxHealth:  p.MaxHealth,
			Gold:       p.Gold,
			Power:      p.Power(t, pc.Now),
			Dying:      p.Dying,
			AutoTrain:  p.AutoTrain,
			Equipped:   append([]string(nil), p.Equipped...),
			Boosts:     p.ActiveBoosts(pc.Now),
			Inventory:  append([]string(nil), p.Inventory...),
			Capacity:   p.Capacity(t),
			Ruler:      ent.World.Ruler.PlayerID == p.ID,
			LastSignIn: p.LastSignIn,
			SignedIn:   p.LastSignIn == progress.SignInDate(pc.Now),
		}
		return done(types.Succeed(0))
	})
	return prof, out
}

// Train runs one manual training session.
func (e *Engine) Train(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(progress.Train(me(ent.World, a), false, pc))
	})
}

// SignIn claims the actor's daily reward.
func (e *Engine) SignIn(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(progress.SignIn(me(ent.World, a), pc))
	})
}

// Breakthrough attempts to enter the next realm.
func (e *Engine) Breakthrough(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		p := me(ent.World, a)
		out := progress.Breakthrough(p, pc)
		res := done(out)
		if out.Failure == nil {
			res.story = &narrate.Summary{Kind: "breakthrough", Actors: []string{p.Name}, Victory: out.Has(types.FlagRealmAdvanced), Lines: out.Lines}
		}
		return res
	})
}

// Explore ventures into the named tier; empty picks the easiest.
func (e *Engine) Explore(ctx context.Context, a Actor, tier string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(progress.Explore(me(ent.World, a), tier, pc))
	})
}

// UseItem consumes or equips an inventory item named by ref.
func (e *Engine) UseItem(ctx context.Context, a Actor, ref string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		p := me(ent.World, a)
		name, err := resolve.Item(pc.Tables, ref, held(p))
		if err != nil {
			return done(failed(err))
		}
		return done(progress.UseItem(p, name, pc))
	})
}

// Revive ends the actor's dying state with a pill or natural recovery.
func (e *Engine) Revive(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(progress.Revive(me(ent.World, a), pc))
	})
}

// Rescue revives another, dying player at the actor's expense.
func (e *Engine) Rescue(ctx context.Context, a Actor, targetRef string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		target, err := resolve.Player(ent.World, targetRef)
		if err != nil {
			return done(failed(err))
		}
		out := progress.Rescue(me(ent.World, a), target, pc)
		return result{out: out, explicit: true, events: eventsFor(a.GroupID, target.ID, out, types.FlagRevived)}
	})
}

// AutoTrain toggles continuous background training for the actor.
func (e *Engine) AutoTrain(ctx context.Context, a Actor, on bool) types.Outcome {
	out := e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		p := me(ent.World, a)
		if !on {
			if !p.AutoTrain {
				return done(types.Fail(types.FailInvariant, "auto-training is not running"))
			}
			p.AutoTrain = false
			return done(types.Succeed(0, "Auto-training stopped."))
		}
		if p.Dying {
			return done(progress.DyingFailure())
		}
		if p.AutoTrain {
			return done(types.Fail(types.FailInvariant, "auto-training is already running"))
		}
		p.AutoTrain = true
		return done(types.Succeed(0, "Auto-training started. You will cultivate until you stop it."))
	})
	if out.Failure != nil {
		return out
	}
	key := loopKey{a.GroupID, a.UserID}
	if on {
		e.startLoop(key, a)
	} else {
		e.stopLoop(key)
	}
	return out
}

// ResumeAutoTrain restarts the loops of every saved player who had
// auto-training enabled.
func (e *Engine) ResumeAutoTrain(ctx context.Context) error {
	groups, err := e.registry.Groups(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		var actors []Actor
		err := e.registry.With(ctx, g, func(ent *state.Entry) bool {
			if !ent.World.Started {
				return false
			}
			for _, p := range ent.World.Roster() {
				if p.AutoTrain && !p.Dying {
					actors = append(actors, Actor{GroupID: g, UserID: p.ID, Name: p.Name})
				}
			}
			return false
		})
		if err != nil {
			return err
		}
		for _, a := range actors {
			e.startLoop(loopKey{a.GroupID, a.UserID}, a)
		}
	}
	return nil
}

// AutoTraining reports whether a loop is running for the actor.
func (e *Engine) AutoTraining(a Actor) bool {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	_, ok := e.loops[loopKey{a.GroupID, a.UserID}]
	return ok
}

func (e *Engine) startLoop(key loopKey, a Actor) {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	if _, running := e.loops[key]; running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel}
	e.loops[key] = l
	e.wg.Add(1)
	go e.autoTrainLoop(ctx, key, l, a)
}

func (e *Engine) stopLoop(key loopKey) {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	if l, ok := e.loops[key]; ok {
		l.cancel()
		delete(e.loops, key)
	}
}

func (e *Engine) stopGroup(groupID string) {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	for k, l := range e.loops {
		if k.group == groupID {
			l.cancel()
			delete(e.loops, k)
		}
	}
}

// release drops l from the table unless a newer loop replaced it.
func (e *Engine) release(key loopKey, l *loop) {
	e.loopsMu.Lock()
	defer e.loopsMu.Unlock()
	l.cancel()
	if e.loops[key] == l {
		delete(e.loops, key)
	}
}

func (e *Engine) autoTrainLoop(ctx context.Context, key loopKey, l *loop, a Actor) {
	defer e.wg.Done()
	defer e.release(key, l)
	ticker := time.NewTicker(e.autoEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !e.autoTrainStep(ctx, a) {
			e.log.Debug("auto-train stopped", "group", a.GroupID, "player", a.UserID)
			return
		}
	}
}

// autoTrainStep trains once and reports whether the loop should go on.
func (e *Engine) autoTrainStep(ctx context.Context, a Actor) bool {
	keep := true
	out := e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		p := me(ent.World, a)
		if !p.AutoTrain {
			keep = false
			return done(types.Fail(types.FailPhase, "auto-training is off"))
		}
		if p.Dying {
			keep = false
			p.AutoTrain = false
			return result{out: progress.DyingFailure(), dirty: true}
		}
		out := progress.Train(p, true, pc)
		if out.Has(types.FlagDying) {
			p.AutoTrain = false
			keep = false
		}
		return done(out)
	})
	if out.Failure != nil && out.Failure.Kind != types.FailCooldown {
		return false
	}
	if out.Flags&(types.FlagLevelUp|types.FlagBreakthroughReady|types.FlagDeviation|types.FlagDying) != 0 {
		e.announce(a.GroupID, append([]string{a.Name + " (auto-training):"}, out.Lines...))
	}
	return keep
}
