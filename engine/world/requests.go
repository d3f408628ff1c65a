package world

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nathoo/dpcq/engine/combat"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// DuelRequest is a pending challenge. One per challenger.
type DuelRequest struct {
	ChallengerID string `json:"challenger_id"`
	TargetID     string `json:"target_id"`
	CreatedAt    int64  `json:"time"`
}

// TradeRequest is a pending offer to sell an item for gold.
type TradeRequest struct {
	ID        string `json:"trade_id"`
	SellerID  string `json:"seller_id"`
	BuyerID   string `json:"buyer_id"`
	Item      string `json:"item"`
	Price     int    `json:"price"`
	CreatedAt int64  `json:"time"`
}

func expired(created int64, ttl int, now int64) bool {
	return ttl > 0 && now-created >= int64(ttl)
}

// ChallengeDuel records a duel request from challenger to target.
func (w *World) ChallengeDuel(challengerID, targetID string, ctx progress.Context) types.Outcome {
	c, ok := w.Player(challengerID)
	if !ok {
		return notJoined()
	}
	target, ok := w.Player(targetID)
	if !ok {
		return types.Fail(types.FailInvalidTarget, "that cultivator has not joined")
	}
	if f := combat.CheckDuelists(c, target, ctx); f != nil {
		return types.Outcome{Failure: f}
	}
	if req, ok := w.Duels[challengerID]; ok && !expired(req.CreatedAt, ctx.Tables.Rules.DuelTTL, ctx.Now) {
		pending := req.TargetID
		if p, ok := w.Player(pending); ok {
			pending = p.Name
		}
		return types.Fail(types.FailInvariant, "you already challenged %s; wait for an answer", pending)
	}
	w.Duels[challengerID] = DuelRequest{ChallengerID: challengerID, TargetID: targetID, CreatedAt: ctx.Now}
	return types.Succeed(0, fmt.Sprintf("%s challenges %s to a duel! %s may accept.", c.Name, target.Name, target.Name))
}

// pendingDuel finds the newest live request aimed at target. An empty
// challengerID matches any challenger.
func (w *World) pendingDuel(targetID, challengerID string, ctx progress.Context) (DuelRequest, bool) {
	var found DuelRequest
	ok := false
	for _, req := range w.Duels {
		if req.TargetID != targetID || expired(req.CreatedAt, ctx.Tables.Rules.DuelTTL, ctx.Now) {
			continue
		}
		if challengerID != "" && req.ChallengerID != challengerID {
			continue
		}
		if !ok || req.CreatedAt > found.CreatedAt || (req.CreatedAt == found.CreatedAt && req.ChallengerID < found.ChallengerID) {
			found, ok = req, true
		}
	}
	return found, ok
}

// AcceptDuel resolves the pending challenge against target.
func (w *World) AcceptDuel(targetID, challengerID string, ctx progress.Context) (combat.DuelResult, types.Outcome) {
	target, ok := w.Player(targetID)
	if !ok {
		return combat.DuelResult{}, notJoined()
	}
	req, ok := w.pendingDuel(targetID, challengerID, ctx)
	if !ok {
		return combat.DuelResult{}, types.Fail(types.FailInvalidTarget, "nobody has challenged you")
	}
	c, ok := w.Player(req.ChallengerID)
	if !ok {
		delete(w.Duels, req.ChallengerID)
		return combat.DuelResult{}, types.Fail(types.FailInvalidTarget, "your challenger has left")
	}
	if f := combat.CheckDuelists(c, target, ctx); f != nil {
		return combat.DuelResult{}, types.Outcome{Failure: f}
	}
	delete(w.Duels, req.ChallengerID)
	return combat.Duel(c, target, ctx)
}

// RejectDuel drops the pending challenge against target.
func (w *World) RejectDuel(targetID, challengerID string, ctx progress.Context) types.Outcome {
	req, ok := w.pendingDuel(targetID, challengerID, ctx)
	if !ok {
		return types.Fail(types.FailInvalidTarget, "nobody has challenged you")
	}
	delete(w.Duels, req.ChallengerID)
	return types.Succeed(0, "You decline the duel.")
}

// OfferTrade records an offer from seller to buyer. The item is not
// escrowed; it is checked again on acceptance.
func (w *World) OfferTrade(sellerID, buyerID, item string, price int, ctx progress.Context) (TradeRequest, types.Outcome) {
	seller, ok := w.Player(sellerID)
	if !ok {
		return TradeRequest{}, notJoined()
	}
	buyer, ok := w.Player(buyerID)
	if !ok {
		return TradeRequest{}, types.Fail(types.FailInvalidTarget, "that cultivator has not joined")
	}
	if sellerID == buyerID {
		return TradeRequest{}, types.Fail(types.FailInvalidTarget, "you cannot trade with yourself")
	}
	if price < 0 {
		return TradeRequest{}, types.Fail(types.FailInvalidTarget, "the price cannot be negative")
	}
	if !seller.HasItem(item) {
		return TradeRequest{}, types.Fail(types.FailInvalidTarget, "you do not carry【%s】", item)
	}
	req := TradeRequest{
		ID:        uuid.NewString()[:8],
		SellerID:  sellerID,
		BuyerID:   buyerID,
		Item:      item,
		Price:     price,
		CreatedAt: ctx.Now,
	}
	w.Trades[req.ID] = req
	return req, types.Succeed(0, fmt.Sprintf("%s offers【%s】to %s for %d gold (trade %s).", seller.Name, item, buyer.Name, price, req.ID))
}

// tradeFor finds a live trade addressed to buyer. An empty id matches
// the newest one.
func (w *World) tradeFor(buyerID, id string, ctx progress.Context) (TradeRequest, bool) {
	if id != "" {
		req, ok := w.Trades[id]
		if !ok || req.BuyerID != buyerID || expired(req.CreatedAt, ctx.Tables.Rules.TradeTTL, ctx.Now) {
			return TradeRequest{}, false
		}
		return req, true
	}
	var found TradeRequest
	ok := false
	for _, req := range w.Trades {
		if req.BuyerID != buyerID || expired(req.CreatedAt, ctx.Tables.Rules.TradeTTL, ctx.Now) {
			continue
		}
		if !ok || req.CreatedAt > found.CreatedAt || (req.CreatedAt == found.CreatedAt && req.ID < found.ID) {
			found, ok = req, true
		}
	}
	return found, ok
}

// AcceptTrade settles a trade: gold moves to the seller, the item to
// the buyer. Nothing moves unless both sides can complete.
func (w *World) AcceptTrade(buyerID, id string, ctx progress.Context) types.Outcome {
	buyer, ok := w.Player(buyerID)
	if !ok {
		return notJoined()
	}
	req, ok := w.tradeFor(buyerID, id, ctx)
	if !ok {
		return types.Fail(types.FailInvalidTarget, "no trade is waiting for you")
	}
	seller, ok := w.Player(req.SellerID)
	if !ok || !seller.HasItem(req.Item) || !seller.CanPart(ctx.Tables, req.Item) {
		delete(w.Trades, req.ID)
		return types.Fail(types.FailInvalidTarget, "the seller can no longer hand over【%s】", req.Item)
	}
	if buyer.Gold < req.Price {
		return types.Fail(types.FailInsufficient, "【%s】costs %d gold; you have %d", req.Item, req.Price, buyer.Gold)
	}
	if buyer.Free(ctx.Tables) <= 0 {
		return types.Fail(types.FailInsufficient, "your inventory is full")
	}
	buyer.SpendGold(req.Price)
	seller.AddGold(req.Price)
	seller.RemoveItem(req.Item)
	buyer.AddItem(ctx.Tables, req.Item)
	delete(w.Trades, req.ID)
	return types.Succeed(0, fmt.Sprintf("%s bought【%s】from %s for %d gold.", buyer.Name, req.Item, seller.Name, req.Price))
}

// RejectTrade cancels a trade. Either party may reject.
func (w *World) RejectTrade(id, tradeID string, ctx progress.Context) types.Outcome {
	req, ok := w.Trades[tradeID]
	if tradeID == "" {
		req, ok = w.tradeFor(id, "", ctx)
	}
	if !ok || (req.BuyerID != id && req.SellerID != id) {
		return types.Fail(types.FailInvalidTarget, "no such trade")
	}
	delete(w.Trades, req.ID)
	return types.Succeed(0, fmt.Sprintf("Trade %s for【%s】cancelled.", req.ID, req.Item))
}

// PendingTrades lists live trades involving a player, newest first.
func (w *World) PendingTrades(id string, now int64, ttl int) []TradeRequest {
	var out []TradeRequest
	for _, req := range w.Trades {
		if (req.BuyerID == id || req.SellerID == id) && !expired(req.CreatedAt, ttl, now) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SweepRequests drops expired duel and trade requests and requests that
// reference players no longer on the roster. Returns how many were removed.
func (w *World) SweepRequests(ctx progress.Context) int {
	rules := ctx.Tables.Rules
	n := 0
	for id, req := range w.Duels {
		_, c := w.Players[req.ChallengerID]
		_, t := w.Players[req.TargetID]
		if !c || !t || expired(req.CreatedAt, rules.DuelTTL, ctx.Now) {
			delete(w.Duels, id)
			n++
		}
	}
	for id, req := range w.Trades {
		_, s := w.Players[req.SellerID]
		_, b := w.Players[req.BuyerID]
		if !s || !b || expired(req.CreatedAt, rules.TradeTTL, ctx.Now) {
			delete(w.Trades, id)
			n++
		}
	}
	return n
}
