// Package engine is the command surface of the cultivation game. Every
// entry point runs one operation against one group's world under that
// group's lock, persists the result, dispatches events and, once the
// lock is released, requests narration.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine/events"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/resolve"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/engine/state"
	"github.com/nathoo/dpcq/engine/world"
	"github.com/nathoo/dpcq/narrate"
	"github.com/nathoo/dpcq/store"
	"github.com/nathoo/dpcq/types"
)

// Actor identifies who issued a command.
type Actor struct {
	GroupID string
	UserID  string
	Name    string
	Admin   bool
}

// Sink receives text addressed to a whole group: narration and timer
// announcements.
type Sink func(groupID, text string)

type loopKey struct{ group, user string }

type loop struct{ cancel context.CancelFunc }

// Engine wires the catalog, the world registry and the collaborators.
type Engine struct {
	tables   *catalog.Tables
	rng      *rng.RNG
	registry *state.Registry
	bus      *events.Bus
	log      *slog.Logger
	clock    func() time.Time

	narrator         narrate.Narrator
	narrationTimeout time.Duration
	sink             Sink
	autoEvery        time.Duration

	loopsMu sync.Mutex
	loops   map[loopKey]*loop
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG replaces the time-seeded RNG.
func WithRNG(r *rng.RNG) Option { return func(e *Engine) { e.rng = r } }

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option { return func(e *Engine) { e.clock = clock } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithNarrator sets the flavor-text collaborator.
func WithNarrator(n narrate.Narrator) Option { return func(e *Engine) { e.narrator = n } }

// WithNarrationTimeout bounds each narration request.
func WithNarrationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.narrationTimeout = d }
}

// WithSink sets where narration and announcements are delivered.
func WithSink(s Sink) Option { return func(e *Engine) { e.sink = s } }

// WithAutoTrainInterval overrides the auto-train pace, which defaults to
// the training cooldown.
func WithAutoTrainInterval(d time.Duration) Option { return func(e *Engine) { e.autoEvery = d } }

// New creates an engine over a catalog and a store.
func New(t *catalog.Tables, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		tables:           t,
		bus:              events.NewBus(),
		log:              slog.Default(),
		clock:            time.Now,
		narrator:         narrate.Nop{},
		narrationTimeout: 3 * time.Second,
		autoEvery:        time.Duration(t.Rules.TrainCooldown) * time.Second,
		loops:            map[loopKey]*loop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rng.New(time.Now().UnixNano())
	}
	if e.autoEvery <= 0 {
		e.autoEvery = time.Minute
	}
	e.registry = state.NewRegistry(st, e.log)

	stop := func(ev types.Event) { e.stopLoop(loopKey{ev.GroupID, ev.PlayerID}) }
	e.bus.Subscribe(events.PlayerDying, stop)
	e.bus.Subscribe(events.PlayerLeft, stop)
	e.bus.Subscribe(events.WorldWiped, func(ev types.Event) { e.stopGroup(ev.GroupID) })
	return e
}

// Tables returns the catalog the engine was built with.
func (e *Engine) Tables() *catalog.Tables { return e.tables }

// Subscribe registers an event handler. Handlers run after the group
// lock is released.
func (e *Engine) Subscribe(eventType string, h events.Handler) {
	e.bus.Subscribe(eventType, h)
}

// Close stops every auto-train loop and waits for pending narration.
func (e *Engine) Close() {
	e.loopsMu.Lock()
	for k, l := range e.loops {
		l.cancel()
		delete(e.loops, k)
	}
	e.loopsMu.Unlock()
	e.wg.Wait()
}

func (e *Engine) context() progress.Context {
	return progress.Context{Tables: e.tables, RNG: e.rng, Now: e.clock().Unix(), Log: e.log}
}

// result is what one operation hands back to run.
type result struct {
	out    types.Outcome
	events []types.Event
	story  *narrate.Summary
	// dirty forces a save even when out carries a Failure.
	dirty bool
	// explicit skips deriving events from the actor's outcome flags.
	explicit bool
}

func done(out types.Outcome) result { return result{out: out} }

// gate selects the preconditions run enforces before an operation.
type gate int

const (
	gatePlaying  gate = iota // game started, actor joined
	gateStarted              // game started
	gateReadOnly             // nothing; never persisted
	gateAdmin                // admin only, any phase
)

// run executes fn under the group lock. A successful (or dirty) result
// is persisted before the lock is released; events and narration follow.
func (e *Engine) run(ctx context.Context, a Actor, g gate, fn func(ent *state.Entry, pc progress.Context) result) types.Outcome {
	if g == gateAdmin && !a.Admin {
		return types.Fail(types.FailInvariant, "only an admin may do that")
	}
	var res result
	err := e.registry.With(ctx, a.GroupID, func(ent *state.Entry) bool {
		w := ent.World
		if (g == gatePlaying || g == gateStarted) && !w.Started {
			res = done(types.Fail(types.FailPhase, "the game has not started"))
			return false
		}
		if g == gatePlaying {
			if _, ok := w.Player(a.UserID); !ok {
				res = done(types.Fail(types.FailInvalidTarget, "you have not joined yet; use join"))
				return false
			}
		}
		res = fn(ent, e.context())
		if g == gateReadOnly {
			return false
		}
		return res.dirty || res.out.Failure == nil
	})
	if err != nil {
		return e.storeFailure(a.GroupID, err)
	}

	evs := res.events
	if !res.explicit {
		evs = append(events.FromOutcome(a.GroupID, a.UserID, res.out), evs...)
	}
	e.bus.Dispatch(evs)
	if res.story != nil && res.out.Failure == nil {
		e.narrate(a.GroupID, *res.story)
	}
	return res.out
}

func (e *Engine) storeFailure(groupID string, err error) types.Outcome {
	var pe *state.PersistError
	if errors.As(err, &pe) {
		return types.Outcome{Failure: &types.Failure{
			Kind:    types.FailPersistence,
			Message: "the world could not be saved; the change was rolled back",
			Cause:   err,
		}}
	}
	e.log.Error("world unavailable", "group", groupID, "err", err)
	return types.Outcome{Failure: &types.Failure{
		Kind:    types.FailPersistence,
		Message: "the world could not be loaded",
		Cause:   err,
	}}
}

// narrate requests flavor text in the background. Failures and empty
// answers are dropped.
func (e *Engine) narrate(groupID string, s narrate.Summary) {
	if e.sink == nil {
		return
	}
	s.GroupID = groupID
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.narrationTimeout)
		defer cancel()
		text, err := e.narrator.Narrate(ctx, s)
		if err != nil {
			e.log.Warn("narration failed", "group", groupID, "kind", s.Kind, "err", err)
			return
		}
		if strings.TrimSpace(text) == "" {
			return
		}
		e.sink(groupID, text)
	}()
}

func (e *Engine) announce(groupID string, lines []string) {
	if e.sink == nil || len(lines) == 0 {
		return
	}
	e.sink(groupID, strings.Join(lines, "\n"))
}

// eventsFor derives the events for one player from the masked flags of
// an outcome that concerns several players.
func eventsFor(groupID, playerID string, out types.Outcome, mask types.Flag) []types.Event {
	out.Flags &= mask
	return events.FromOutcome(groupID, playerID, out)
}

// failed converts a resolver or state-machine error into an outcome.
func failed(err error) types.Outcome {
	var f *types.Failure
	if errors.As(err, &f) {
		return types.Outcome{Failure: f}
	}
	var amb *resolve.AmbiguityError
	var nf *resolve.NotFoundError
	if errors.As(err, &amb) || errors.As(err, &nf) {
		return types.Fail(types.FailInvalidTarget, "%s", err.Error())
	}
	return types.Outcome{Failure: &types.Failure{Kind: types.FailInternal, Message: "something went wrong", Cause: err}}
}

// held is p's inventory as resolver candidates. Never nil, so an empty
// inventory matches nothing instead of the whole catalog.
func held(p *player.Player) []string {
	if p.Inventory == nil {
		return []string{}
	}
	return p.Inventory
}

// me is the acting player; run has already checked membership.
func me(w *world.World, a Actor) *player.Player {
	p, _ := w.Player(a.UserID)
	return p
}
