package world

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// Lot is one auction slot and its best bid. Bid gold is held in escrow
// from the bidder until they are outbid or the lot settles.
type Lot struct {
	Item     string `json:"name"`
	MinBid   int    `json:"min_bid"`
	BidderID string `json:"bidder_id,omitempty"`
	Bid      int    `json:"bid"`
	BidAt    int64  `json:"bid_time"`
	Sold     bool   `json:"sold"`
}

// Auction is the rare-item auction house. EndsAt closes the window.
type Auction struct {
	Lots   []Lot `json:"auction_items"`
	EndsAt int64 `json:"end_time"`
}

// auctionPool lists every catalog item rare enough to be auctioned.
func auctionPool(ctx progress.Context) []string {
	t := ctx.Tables
	minRank := t.Rules.AuctionMinRank
	var out []string
	for _, p := range t.PillsOfRank(minRank, 9) {
		out = append(out, p.Name)
	}
	for _, tech := range t.Techniques {
		if t.Rank(tech.Name) >= minRank {
			out = append(out, tech.Name)
		}
	}
	for _, a := range t.Artifacts {
		if a.Kind != "storage" && a.Rank >= minRank {
			out = append(out, a.Name)
		}
	}
	return out
}

// RefreshAuction closes the current window, settling every lot, and
// opens a new one with freshly sampled rare items.
func (w *World) RefreshAuction(ctx progress.Context) types.Outcome {
	out := w.SettleAuction(ctx, true)
	pool := auctionPool(ctx)
	lots := make([]Lot, 0, ctx.Tables.Rules.AuctionSlots)
	for _, i := range ctx.RNG.Sample(len(pool), ctx.Tables.Rules.AuctionSlots) {
		name := pool[i-1]
		lots = append(lots, Lot{Item: name, MinBid: max(1, ctx.Tables.Price(name)/2)})
	}
	w.Auction.Lots = lots
	w.Auction.EndsAt = ctx.Now + int64(ctx.Tables.Rules.AuctionInterval)
	out.Lines = append(out.Lines, fmt.Sprintf("The auction house opens %d new lots.", len(lots)))
	return out
}

// AuctionDue reports whether the auction window has closed.
func (w *World) AuctionDue(now int64) bool {
	return now >= w.Auction.EndsAt
}

// Bid places a strictly higher bid on a 1-based slot. The outbid player
// is refunded immediately. A rejected bid leaves the lot unchanged.
func (w *World) Bid(id string, slot, amount int, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	if w.AuctionDue(ctx.Now) {
		return types.Fail(types.FailPhase, "the auction has closed; wait for the next one")
	}
	if slot < 1 || slot > len(w.Auction.Lots) {
		return types.Fail(types.FailInvalidTarget, "there is no lot %d", slot)
	}
	lot := &w.Auction.Lots[slot-1]
	if lot.Sold {
		return types.Fail(types.FailPhase, "【%s】has already been sold", lot.Item)
	}
	if amount < lot.MinBid {
		return types.Fail(types.FailInvariant, "the starting bid for【%s】is %d", lot.Item, lot.MinBid)
	}
	if amount <= lot.Bid {
		return types.Fail(types.FailInvariant, "bids on【%s】must exceed %d", lot.Item, lot.Bid)
	}
	held := 0
	if lot.BidderID == id {
		held = lot.Bid
	}
	if p.Gold+held < amount {
		return types.Fail(types.FailInsufficient, "you need %d gold to bid; you have %d", amount-held, p.Gold)
	}

	if lot.BidderID != "" {
		w.refund(lot.BidderID, lot.Bid)
	}
	p.SpendGold(amount)
	lot.BidderID, lot.Bid, lot.BidAt = id, amount, ctx.Now
	return types.Succeed(0, fmt.Sprintf("You lead the bidding for【%s】at %d gold.", lot.Item, amount))
}

// SettleAuction awards lots. With force every open lot settles;
// otherwise only lots whose best bid has stood for the quick-win window.
// A winner without inventory room is refunded. A lot whose bidder has left
// stays open. Settled lots keep their slot so bid numbering stays stable.
func (w *World) SettleAuction(ctx progress.Context, force bool) types.Outcome {
	window := int64(ctx.Tables.Rules.QuickWinWindow)
	var lines []string
	for i := range w.Auction.Lots {
		lot := &w.Auction.Lots[i]
		if lot.Sold || lot.BidderID == "" {
			continue
		}
		if !force && ctx.Now-lot.BidAt < window {
			continue
		}
		winner, ok := w.Player(lot.BidderID)
		if !ok {
			continue
		}
		lot.Sold = true
		if winner.AddItem(ctx.Tables, lot.Item) {
			lines = append(lines, fmt.Sprintf("%s won【%s】for %d gold.", winner.Name, lot.Item, lot.Bid))
		} else {
			winner.AddGold(lot.Bid)
			lines = append(lines, fmt.Sprintf("%s won【%s】but had no room; %d gold refunded.", winner.Name, lot.Item, lot.Bid))
		}
	}
	if len(lines) == 0 {
		return types.Outcome{}
	}
	return types.Succeed(types.FlagSettled, lines...)
}
