package engine

import (
	"context"
	"slices"

	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/resolve"
	"github.com/nathoo/dpcq/engine/state"
	"github.com/nathoo/dpcq/engine/world"
	"github.com/nathoo/dpcq/types"
)

// Offer is a market listing with its catalog details.
type Offer struct {
	Item  string
	Kind  types.ItemKind
	Rank  int
	Price int
	Desc  string
}

// MarketView is the shop as a player sees it.
type MarketView struct {
	Offers      []Offer
	NextRefresh int64
	Gold        int
}

// Market lists the shop, restocking it first when it has never opened.
func (e *Engine) Market(ctx context.Context, a Actor) (MarketView, types.Outcome) {
	var view MarketView
	out := e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		if len(w.Market.Items) == 0 || w.MarketDue(pc.Now) {
			w.RefreshMarket(pc)
		}
		t := pc.Tables
		for _, l := range w.Market.Items {
			view.Offers = append(view.Offers, Offer{Item: l.Item, Kind: t.Kind(l.Item), Rank: t.Rank(l.Item), Price: l.Price, Desc: t.Describe(l.Item)})
		}
		view.NextRefresh = w.Market.NextRefresh
		view.Gold = me(w, a).Gold
		return done(types.Succeed(0))
	})
	return view, out
}

// Buy purchases a market listing named by ref.
func (e *Engine) Buy(ctx context.Context, a Actor, ref string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		names := make([]string, 0, len(w.Market.Items))
		for _, l := range w.Market.Items {
			names = append(names, l.Item)
		}
		name, err := resolve.Item(pc.Tables, ref, names)
		if err != nil {
			return done(failed(err))
		}
		return done(w.Buy(a.UserID, name, pc))
	})
}

// Sell sells an inventory item named by ref for its sale value.
func (e *Engine) Sell(ctx context.Context, a Actor, ref string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		name, err := resolve.Item(pc.Tables, ref, held(me(w, a)))
		if err != nil {
			return done(failed(err))
		}
		return done(w.Sell(a.UserID, name, pc))
	})
}

// LotView is one auction slot with the bidder's display name.
type LotView struct {
	Slot   int
	Item   string
	Rank   int
	MinBid int
	Bid    int
	Bidder string
	Mine   bool
	Sold   bool
	Desc   string
}

// AuctionView is the auction house as a player sees it.
type AuctionView struct {
	Lots   []LotView
	EndsAt int64
}

// Auction lists the current lots, opening the house when it is empty.
func (e *Engine) Auction(ctx context.Context, a Actor) (AuctionView, types.Outcome) {
	var view AuctionView
	out := e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		if len(w.Auction.Lots) == 0 || w.AuctionDue(pc.Now) {
			w.RefreshAuction(pc)
		}
		t := pc.Tables
		for i, lot := range w.Auction.Lots {
			lv := LotView{Slot: i + 1, Item: lot.Item, Rank: t.Rank(lot.Item), MinBid: lot.MinBid, Bid: lot.Bid, Sold: lot.Sold, Desc: t.Describe(lot.Item), Mine: lot.BidderID == a.UserID && lot.BidderID != ""}
			if p, ok := w.Player(lot.BidderID); ok {
				lv.Bidder = p.Name
			}
			view.Lots = append(view.Lots, lv)
		}
		view.EndsAt = w.Auction.EndsAt
		return done(types.Succeed(0))
	})
	return view, out
}

// Bid places a bid on an auction slot (1-based).
func (e *Engine) Bid(ctx context.Context, a Actor, slot, amount int) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(ent.World.Bid(a.UserID, slot, amount, pc))
	})
}

// LotteryView is the lottery as a player sees it.
type LotteryView struct {
	Number  int
	Pool    int
	DrawAt  int64
	Price   int
	Tickets []world.Ticket
	Sold    int
	History []world.Draw
}

// Lottery reports the current draw and the actor's tickets.
func (e *Engine) Lottery(ctx context.Context, a Actor) (LotteryView, types.Outcome) {
	var view LotteryView
	out := e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		w.OpenLottery(pc)
		l := w.Lottery
		view = LotteryView{
			Number:  l.Number + 1,
			Pool:    l.Pool,
			DrawAt:  l.DrawAt,
			Price:   pc.Tables.Rules.LotteryPrice,
			Tickets: w.TicketsOf(a.UserID),
			Sold:    len(l.Tickets),
			History: slices.Clone(l.History),
		}
		return done(types.Succeed(0))
	})
	return view, out
}

// BuyTicket buys a lottery ticket. Empty picks buy a quick pick.
func (e *Engine) BuyTicket(ctx context.Context, a Actor, main, special []int) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(ent.World.BuyTicket(a.UserID, main, special, pc))
	})
}

// TradeView is a pending trade with display names.
type TradeView struct {
	ID       string
	Seller   string
	Buyer    string
	Item     string
	Price    int
	Incoming bool
}

// Trade offers an inventory item to another player for gold.
func (e *Engine) Trade(ctx context.Context, a Actor, targetRef, itemRef string, price int) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		target, err := resolve.Player(w, targetRef)
		if err != nil {
			return done(failed(err))
		}
		item, err := resolve.Item(pc.Tables, itemRef, held(me(w, a)))
		if err != nil {
			return done(failed(err))
		}
		_, out := w.OfferTrade(a.UserID, target.ID, item, price, pc)
		return done(out)
	})
}

// Trades lists the actor's live trades, newest first.
func (e *Engine) Trades(ctx context.Context, a Actor) ([]TradeView, types.Outcome) {
	var views []TradeView
	out := e.run(ctx, a, gateReadOnly, func(ent *state.Entry, pc progress.Context) result {
		w := ent.World
		name := func(id string) string {
			if p, ok := w.Player(id); ok {
				return p.Name
			}
			return id
		}
		for _, req := range w.PendingTrades(a.UserID, pc.Now, pc.Tables.Rules.TradeTTL) {
			views = append(views, TradeView{
				ID: req.ID, Seller: name(req.SellerID), Buyer: name(req.BuyerID),
				Item: req.Item, Price: req.Price, Incoming: req.BuyerID == a.UserID,
			})
		}
		return done(types.Succeed(0))
	})
	return views, out
}

// AcceptTrade completes a trade offered to the actor. An empty id
// accepts the newest one.
func (e *Engine) AcceptTrade(ctx context.Context, a Actor, id string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		n := len(ent.World.Trades)
		out := ent.World.AcceptTrade(a.UserID, id, pc)
		return result{out: out, dirty: len(ent.World.Trades) != n}
	})
}

// RejectTrade cancels a trade; either party may reject.
func (e *Engine) RejectTrade(ctx context.Context, a Actor, id string) types.Outcome {
	return e.run(ctx, a, gatePlaying, func(ent *state.Entry, pc progress.Context) result {
		return done(ent.World.RejectTrade(a.UserID, id, pc))
	})
}
