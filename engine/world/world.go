// Package world holds the per-group aggregate: the roster plus every
// shared economy subsystem. A World is not safe for concurrent use; the
// state registry serialises access per group.
package world

import (
	"sort"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// World is everything persisted for one chat group.
type World struct {
	GroupID string                    `json:"group_id"`
	Started bool                      `json:"game_started"`
	Players map[string]*player.Player `json:"players"`

	Market  Market  `json:"market"`
	Auction Auction `json:"auction"`
	Lottery Lottery `json:"lottery"`

	Duels  map[string]DuelRequest  `json:"duel_requests"`  // by challenger id
	Trades map[string]TradeRequest `json:"trade_requests"` // by trade id

	Ruler Ruler `json:"ruler"`
	Boss  Boss  `json:"boss"`
}

// New creates an empty, stopped world.
func New(groupID string) *World {
	w := &World{GroupID: groupID}
	w.Normalize()
	return w
}

// Normalize replaces nil collections so a decoded world is usable.
func (w *World) Normalize() {
	if w.Players == nil {
		w.Players = map[string]*player.Player{}
	}
	if w.Duels == nil {
		w.Duels = map[string]DuelRequest{}
	}
	if w.Trades == nil {
		w.Trades = map[string]TradeRequest{}
	}
	for id, p := range w.Players {
		if p == nil {
			delete(w.Players, id)
			continue
		}
		p.Normalize()
	}
}

// Player looks up a roster member by id.
func (w *World) Player(id string) (*player.Player, bool) {
	p, ok := w.Players[id]
	return p, ok
}

// Roster returns players sorted by join time then id.
func (w *World) Roster() []*player.Player {
	out := make([]*player.Player, 0, len(w.Players))
	for _, p := range w.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt < out[j].JoinedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Join adds a new player with starter stats.
func (w *World) Join(id, name string, ctx progress.Context) (*player.Player, types.Outcome) {
	if p, ok := w.Players[id]; ok {
		return p, types.Fail(types.FailInvariant, "you already walk the path as %s", p.Name)
	}
	p := player.New(id, name, ctx.Tables, ctx.Now)
	w.Players[id] = p
	return p, types.Succeed(0,
		"Welcome, "+name+". Your cultivation begins at "+p.RealmName(ctx.Tables)+".",
	)
}

// Leaderboard ranks players by realm, level and qi.
func (w *World) Leaderboard(n int) []*player.Player {
	out := w.Roster()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Realm != b.Realm {
			return a.Realm > b.Realm
		}
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		return a.Qi > b.Qi
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// refund credits gold to a roster member if they still exist.
func (w *World) refund(id string, amount int) {
	if p, ok := w.Players[id]; ok {
		p.AddGold(amount)
	}
}

// Leave removes a player and everything that points at them. Their
// escrowed auction bids are released and the lot reopens.
func (w *World) Leave(id string) types.Outcome {
	p, ok := w.Players[id]
	if !ok {
		return notJoined()
	}
	delete(w.Players, id)
	if w.Ruler.PlayerID == id {
		w.Ruler = Ruler{}
	}
	for i := range w.Auction.Lots {
		lot := &w.Auction.Lots[i]
		if !lot.Sold && lot.BidderID == id {
			lot.BidderID, lot.Bid, lot.BidAt = "", 0, 0
		}
	}
	delete(w.Duels, id)
	for k, req := range w.Duels {
		if req.TargetID == id {
			delete(w.Duels, k)
		}
	}
	for k, req := range w.Trades {
		if req.SellerID == id || req.BuyerID == id {
			delete(w.Trades, k)
		}
	}
	return types.Succeed(0, p.Name+" leaves the path of cultivation.")
}
