package world

import (
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// Tick fires every world timer that has come due: market refresh,
// auction quick wins and rollover, the lottery draw, request expiry and
// boss respawn. The returned lines are announcements for the group.
func (w *World) Tick(ctx progress.Context) types.Outcome {
	var out types.Outcome
	merge := func(o types.Outcome) {
		out.Flags |= o.Flags
		out.Lines = append(out.Lines, o.Lines...)
	}

	if w.MarketDue(ctx.Now) {
		w.RefreshMarket(ctx)
		out.Lines = append(out.Lines, "The market has restocked.")
	}
	if w.AuctionDue(ctx.Now) {
		merge(w.RefreshAuction(ctx))
	} else {
		merge(w.SettleAuction(ctx, false))
	}
	w.OpenLottery(ctx)
	if w.LotteryDue(ctx.Now) {
		merge(w.DrawLottery(ctx))
	}
	w.SweepRequests(ctx)
	if w.RespawnBoss(ctx) && w.Boss.Generation > 1 {
		out.Lines = append(out.Lines, "The world boss has returned.")
	}
	for _, p := range w.Players {
		p.PruneBoosts(ctx.Now)
	}
	out.OK = true
	return out
}
