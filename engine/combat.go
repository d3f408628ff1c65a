package engine

import (
	"context"
	"fmt"

	"github.com/nathoo/dpcq/engine/combat"
	"github.com/nathoo/dpcq/engine/dungeon"
	"github.com/nathoo/dpcq/engine/events"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/resolve"
	"github.com/nathoo/dpcq/engine/state"
	"github.com/nathoo/dpcq/engine/world"
	"github.com/nathoo/dpcq/narrate"
	"github.com/nathoo/dpcq/types"
)

// Duel challenges another player. The target must accept.
func (e *Engine) Duel(ctx context.Context, a Actor, targetRef string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		target, err := resolve.Player(ent.World, targetRef)
		if err != nil {
			return done(failed(err))
		}
		return done(ent.World.ChallengeDuel(a.UserID, target.ID, pc))
	})
}

// challenger resolves an optional challenger reference; empty means the
// newest challenge.
func challenger(w *world.World, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	p, err := resolve.Player(w, ref)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// AcceptDuel fights the challenge aimed at the actor.
func (e *Engine) AcceptDuel(ctx context.Context, a Actor, challengerRef string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		cid, err := challenger(ent.World, challengerRef)
		if err != nil {
			return done(failed(err))
		}
		res, out := ent.World.AcceptDuel(a.UserID, cid, pc)
		if out.Failure != nil {
			return done(out)
		}
		r := result{out: out, explicit: true}
		r.events = append(r.events, types.Event{
			Type: events.DuelFought, GroupID: a.GroupID, PlayerID: res.Winner.ID,
			Data: map[string]any{"loser": res.Loser.ID, "one_shot": res.OneShot},
		})
		r.events = append(r.events, eventsFor(a.GroupID, res.Winner.ID, out, types.FlagLevelUp)...)
		r.events = append(r.events, eventsFor(a.GroupID, res.Loser.ID, out, types.FlagDying|types.FlagRevived)...)
		r.story = &narrate.Summary{Kind: "duel", Actors: []string{res.Winner.Name}, Victory: true, Lines: out.Lines}
		return r
	})
}

// RejectDuel declines the challenge aimed at the actor.
func (e *Engine) RejectDuel(ctx context.Context, a Actor, challengerRef string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		cid, err := challenger(ent.World, challengerRef)
		if err != nil {
			return done(failed(err))
		}
		return done(ent.World.RejectDuel(a.UserID, cid, pc))
	})
}

// PartyView describes the actor's dungeon party.
type PartyView struct {
	ID      string
	Tier    string
	Leader  string
	Members []string
	Waiting []string
	State   string
}

func partyView(w *world.World, in *dungeon.Instance) PartyView {
	name := func(id string) string {
		if p, ok := w.Player(id); ok {
			return p.Name
		}
		return id
	}
	v := PartyView{ID: in.ID, Tier: in.Tier.Name, Leader: name(in.CreatorID), State: in.State.String()}
	for _, id := range in.Members {
		v.Members = append(v.Members, name(id))
	}
	for _, id := range in.Waiting() {
		v.Waiting = append(v.Waiting, name(id))
	}
	return v
}

// DungeonCreate forms a party for a dungeon tier. Every other member must
// confirm before the leader can start.
func (e *Engine) DungeonCreate(ctx context.Context, a Actor, tierName string, memberRefs []string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w, t := ent.World, pc.Tables
		ent.Dungeons.Expire(pc.Now, t.Rules.DungeonTTL)

		tier := t.Dungeons[0]
		if tierName != "" {
			var ok bool
			if tier, ok = t.Dungeon(tierName); !ok {
				return done(types.Fail(types.FailInvalidTarget, "unknown dungeon %q", tierName))
			}
		}
		party := []*player.Player{me(w, a)}
		ids := make([]string, 0, len(memberRefs))
		for _, ref := range memberRefs {
			p, err := resolve.Player(w, ref)
			if err != nil {
				return done(failed(err))
			}
			party = append(party, p)
			ids = append(ids, p.ID)
		}
		for _, p := range party {
			if p.Dying {
				return done(types.Fail(types.FailStatus, "%s is dying", p.Name))
			}
			if p.Realm < tier.MinRealm {
				return done(types.Fail(types.FailInsufficient, "【%s】requires %s; %s is %s", tier.Name, t.Realm(tier.MinRealm).Name, p.Name, p.RealmName(t)))
			}
		}

		in, err := ent.Dungeons.Create(a.UserID, ids, tier, t.Rules.PartySize, pc.Now)
		if err != nil {
			return done(failed(err))
		}
		v := partyView(w, in)
		if in.State == dungeon.Ready {
			return done(types.Succeed(0, fmt.Sprintf("Party %s for【%s】is ready. Start when you are.", in.ID, tier.Name)))
		}
		return done(types.Succeed(0, fmt.Sprintf("Party %s for【%s】formed; waiting on %v to confirm.", in.ID, tier.Name, v.Waiting)))
	})
}

// DungeonConfirm confirms the actor's place in their party.
func (e *Engine) DungeonConfirm(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		in, err := ent.Dungeons.Confirm(a.UserID)
		if err != nil {
			return done(failed(err))
		}
		if in.State == dungeon.Ready {
			return done(types.Succeed(0, "Everyone has confirmed. The leader may start the dungeon."))
		}
		return done(types.Succeed(0, fmt.Sprintf("Confirmed. Still waiting on %d.", len(in.Pending))))
	})
}

// DungeonLeave disbands the actor's party before it starts.
func (e *Engine) DungeonLeave(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		in, err := ent.Dungeons.Disband(a.UserID)
		if err != nil {
			return done(failed(err))
		}
		return done(types.Succeed(0, fmt.Sprintf("Party %s disbanded.", in.ID)))
	})
}

// Party reports the actor's dungeon party.
func (e *Engine) Party(ctx context.Context, a Actor) (PartyView, types.Outcome) {
	var view PartyView
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		in, ok := ent.Dungeons.Of(a.UserID)
		if !ok {
			return done(types.Fail(types.FailPhase, "you are not in a dungeon party"))
		}
		view = partyView(ent.World, in)
		return done(types.Succeed(0))
	})
	return view, out
}

// DungeonStart runs the actor's party through its dungeon. Only the
// leader may start, and only once everyone has confirmed.
func (e *Engine) DungeonStart(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		in, ok := ent.Dungeons.Of(a.UserID)
		if !ok {
			return done(types.Fail(types.FailPhase, "you are not in a dungeon party"))
		}
		var party []*player.Player
		for _, id := range in.Members {
			p, ok := w.Player(id)
			if !ok {
				continue
			}
			if p.Dying {
				return done(types.Fail(types.FailStatus, "%s is dying", p.Name))
			}
			party = append(party, p)
		}
		if _, err := ent.Dungeons.Start(a.UserID); err != nil {
			return done(failed(err))
		}
		res, out := combat.Dungeon(in.Tier, party, pc)
		ent.Dungeons.Finish(in.ID)

		r := result{out: out, explicit: true, dirty: true}
		typ := events.DungeonFailed
		if res.Victory {
			typ = events.DungeonCleared
		}
		names := make([]string, 0, len(party))
		for _, p := range party {
			names = append(names, p.Name)
			r.events = append(r.events, types.Event{Type: typ, GroupID: a.GroupID, PlayerID: p.ID, Data: map[string]any{"dungeon": in.Tier.Name}})
			if p.Dying {
				r.events = append(r.events, types.Event{Type: events.PlayerDying, GroupID: a.GroupID, PlayerID: p.ID})
			}
		}
		r.story = &narrate.Summary{Kind: "dungeon", Actors: names, Victory: res.Victory, Lines: out.Lines}
		return r
	})
}

// Ruler contests the supreme-ruler title.
func (e *Engine) Ruler(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		p := me(ent.World, a)
		out := ent.World.ChallengeRuler(a.UserID, pc)
		res := done(out)
		if out.Failure == nil {
			res.story = &narrate.Summary{Kind: "ruler", Actors: []string{p.Name}, Victory: out.Has(types.FlagRulerChanged), Lines: out.Lines}
		}
		return res
	})
}

// Boss strikes the world boss.
func (e *Engine) Boss(ctx context.Context, a Actor) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		if w.Boss.Generation == 0 {
			w.RespawnBoss(pc)
		}
		out := w.StrikeBoss(a.UserID, pc)
		res := done(out)
		if out.Has(types.FlagBossSlain) {
			res.story = &narrate.Summary{Kind: "boss", Actors: []string{me(w, a).Name}, Victory: true, Lines: out.Lines}
		}
		return res
	})
}

// ThroneView reports the supreme ruler and the world boss.
type ThroneView struct {
	Ruler      string
	RulerSince int64
	BossHealth int
	BossMax    int
	Generation int
}

// Throne reports the ruler and boss. It works in every phase.
func (e *Engine) Throne(ctx context.Context, a Actor) (ThroneView, types.Outcome) {
	var view ThroneView
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		if p, ok := w.RulerHolder(); ok {
			view.Ruler, view.RulerSince = p.Name, w.Ruler.Since
		}
		view.BossHealth, view.BossMax, view.Generation = w.Boss.Health, w.Boss.MaxHealth, w.Boss.Generation
		return done(types.Succeed(0))
	})
	return view, out
}

// Standing is one leaderboard row.
type Standing struct {
	Rank  int
	Name  string
	Realm string
	Level int
	Power int
}

// Leaderboard ranks the top n players by realm, level and qi.
func (e *Engine) Leaderboard(ctx context.Context, a Actor, n int) ([]Standing, types.Outcome) {
	var rows []Standing
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		for i, p := range ent.World.Leaderboard(n) {
			rows = append(rows, Standing{Rank: i + 1, Name: p.Name, Realm: p.RealmName(pc.Tables), Level: p.Level, Power: p.Power(pc.Tables, pc.Now)})
		}
		return done(types.Succeed(0))
	})
	return rows, out
}
