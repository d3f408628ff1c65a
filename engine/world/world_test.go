package world

import (
	"testing"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/types"
)

const now = int64(1_700_000_000)

func setup(t *testing.T, ids ...string) (*World, progress.Context) {
	t.Helper()
	ctx := progress.Context{Tables: catalog.MustDefault(), RNG: rng.New(1), Now: now}
	w := New("g1")
	for _, id := range ids {
		if _, out := w.Join(id, id, ctx); !out.OK {
			t.Fatalf("join %s: %s", id, out.Message())
		}
	}
	return w, ctx
}

func TestJoin_Twice(t *testing.T) {
	w, ctx := setup(t, "a")
	_, out := w.Join("a", "again", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInvariant {
		t.Fatalf("expected invariant failure, got %+v", out)
	}
	if w.Players["a"].Name != "a" {
		t.Error("second join renamed the player")
	}
}

func TestNormalize_NilMaps(t *testing.T) {
	w := &World{}
	w.Normalize()
	if w.Players == nil || w.Duels == nil || w.Trades == nil {
		t.Fatalf("nil maps after Normalize: %+v", w)
	}
}

func TestMarket_RefreshBuySell(t *testing.T) {
	w, ctx := setup(t, "a")
	w.RefreshMarket(ctx)
	if got := len(w.Market.Items); got != ctx.Tables.Rules.MarketSize {
		t.Fatalf("market size = %d, want %d", got, ctx.Tables.Rules.MarketSize)
	}
	for _, l := range w.Market.Items {
		if l.Price != ctx.Tables.Price(l.Item) || l.Price <= 0 {
			t.Errorf("listing %+v mispriced", l)
		}
	}
	if w.MarketDue(now) {
		t.Error("fresh market should not be due")
	}

	a := w.Players["a"]
	a.Gold = 1_000_000
	item := w.Market.Items[0]
	if out := w.Buy("a", item.Item, ctx); !out.OK {
		t.Fatalf("buy: %s", out.Message())
	}
	if a.Gold != 1_000_000-item.Price || !a.HasItem(item.Item) {
		t.Errorf("gold=%d has=%v", a.Gold, a.HasItem(item.Item))
	}
	if len(w.Market.Items) != ctx.Tables.Rules.MarketSize-1 {
		t.Errorf("listing not removed")
	}

	gold := a.Gold
	if out := w.Sell("a", "1品聚气丹", ctx); !out.OK {
		t.Fatalf("sell: %s", out.Message())
	}
	if a.Gold != gold+ctx.Tables.SaleValue("1品聚气丹") {
		t.Errorf("gold after sale = %d", a.Gold)
	}
}

func TestMarket_BuyRejections(t *testing.T) {
	w, ctx := setup(t, "a")
	w.Market.Items = []Listing{{Item: "9品至尊丹", Price: 135000}}
	out := w.Buy("a", "9品至尊丹", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInsufficient {
		t.Fatalf("expected insufficient, got %+v", out)
	}
	out = w.Buy("a", "不存在", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInvalidTarget {
		t.Fatalf("expected invalid target, got %+v", out)
	}
	if len(w.Market.Items) != 1 {
		t.Error("rejected buy changed the market")
	}
}

func TestSell_StorageRingCannotOverflow(t *testing.T) {
	w, ctx := setup(t, "a")
	a := w.Players["a"]
	a.AddItem(ctx.Tables, "空间戒指")
	for a.Free(ctx.Tables) > 0 {
		a.AddItem(ctx.Tables, "1品疗伤丹")
	}
	out := w.Sell("a", "空间戒指", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInvariant {
		t.Fatalf("expected invariant failure, got %+v", out)
	}
}

func TestAuction_BidMonotonicity(t *testing.T) {
	w, ctx := setup(t, "a", "b")
	w.Auction = Auction{Lots: []Lot{{Item: "8品不朽丹", MinBid: 100}}, EndsAt: now + 1000}
	a, b := w.Players["a"], w.Players["b"]
	a.Gold, b.Gold = 1000, 1000

	if out := w.Bid("a", 1, 99, ctx); out.Failure == nil {
		t.Fatal("bid under the minimum accepted")
	}
	if out := w.Bid("a", 1, 100, ctx); !out.OK {
		t.Fatalf("opening bid: %s", out.Message())
	}
	if a.Gold != 900 {
		t.Errorf("escrow: a gold = %d", a.Gold)
	}

	before := w.Auction.Lots[0]
	if out := w.Bid("b", 1, 100, ctx); out.Failure == nil || out.Failure.Kind != types.FailInvariant {
		t.Fatalf("equal bid accepted: %+v", out)
	}
	if w.Auction.Lots[0] != before || b.Gold != 1000 {
		t.Error("rejected bid changed state")
	}

	if out := w.Bid("b", 1, 150, ctx); !out.OK {
		t.Fatalf("higher bid: %s", out.Message())
	}
	if a.Gold != 1000 || b.Gold != 850 {
		t.Errorf("refund: a=%d b=%d", a.Gold, b.Gold)
	}

	// Raising your own bid only escrows the difference.
	if out := w.Bid("b", 1, 200, ctx); !out.OK {
		t.Fatalf("raise: %s", out.Message())
	}
	if b.Gold != 800 {
		t.Errorf("raise: b gold = %d, want 800", b.Gold)
	}
}

func TestAuction_QuickWin(t *testing.T) {
	w, ctx := setup(t, "a")
	w.Auction = Auction{Lots: []Lot{{Item: "8品不朽丹", MinBid: 100}}, EndsAt: now + 10_000}
	w.Players["a"].Gold = 500
	w.Bid("a", 1, 300, ctx)

	ctx.Now += int64(ctx.Tables.Rules.QuickWinWindow) - 1
	if out := w.SettleAuction(ctx, false); out.Has(types.FlagSettled) {
		t.Fatal("settled before the quick-win window")
	}
	ctx.Now++
	out := w.SettleAuction(ctx, false)
	if !out.Has(types.FlagSettled) {
		t.Fatalf("expected quick win, got %+v", out)
	}
	if !w.Players["a"].HasItem("8品不朽丹") || !w.Auction.Lots[0].Sold {
		t.Error("quick win did not award the lot")
	}
	if o := w.Bid("a", 1, 400, ctx); o.Failure == nil || o.Failure.Kind != types.FailPhase {
		t.Errorf("bid on sold lot: %+v", o)
	}
}

func TestAuction_FullInventoryRefunds(t *testing.T) {
	w, ctx := setup(t, "a")
	a := w.Players["a"]
	w.Auction = Auction{Lots: []Lot{{Item: "8品不朽丹", MinBid: 100}}, EndsAt: now + 10}
	a.Gold = 500
	w.Bid("a", 1, 300, ctx)
	for a.Free(ctx.Tables) > 0 {
		a.AddItem(ctx.Tables, "1品疗伤丹")
	}
	ctx.Now += 10
	w.SettleAuction(ctx, true)
	if a.Gold != 500 || a.HasItem("8品不朽丹") {
		t.Errorf("gold=%d has=%v", a.Gold, a.HasItem("8品不朽丹"))
	}
}

func TestAuction_MissingBidderLeavesLotOpen(t *testing.T) {
	w, ctx := setup(t, "a")
	w.Auction = Auction{Lots: []Lot{{Item: "8品不朽丹", MinBid: 100, BidderID: "ghost", Bid: 300, BidAt: now}}, EndsAt: now + 10}

	ctx.Now += 10
	if out := w.SettleAuction(ctx, true); out.Has(types.FlagSettled) {
		t.Fatalf("settled a lot without a bidder: %+v", out)
	}
	if w.Auction.Lots[0].Sold {
		t.Error("lot marked sold for a missing bidder")
	}
}

func TestAuction_Refresh(t *testing.T) {
	w, ctx := setup(t)
	w.RefreshAuction(ctx)
	if len(w.Auction.Lots) != ctx.Tables.Rules.AuctionSlots {
		t.Fatalf("lots = %d", len(w.Auction.Lots))
	}
	seen := map[string]bool{}
	for _, lot := range w.Auction.Lots {
		if ctx.Tables.Rank(lot.Item) < ctx.Tables.Rules.AuctionMinRank {
			t.Errorf("%s is below the auction rank", lot.Item)
		}
		if seen[lot.Item] {
			t.Errorf("%s auctioned twice", lot.Item)
		}
		seen[lot.Item] = true
	}
	if w.AuctionDue(now) || !w.AuctionDue(now+int64(ctx.Tables.Rules.AuctionInterval)) {
		t.Error("auction window misplaced")
	}
}

func TestLottery_TopTierAndCarryForward(t *testing.T) {
	w, ctx := setup(t, "a", "b", "c")
	rules := ctx.Tables.Rules
	for _, id := range []string{"a", "b", "c"} {
		w.Players[id].Gold = 1000
	}
	jackpot := []int{1, 2, 3, 4, 5}
	buys := []struct {
		id      string
		main    []int
		special []int
	}{
		{"a", jackpot, []int{1, 2}},
		{"b", []int{5, 4, 3, 2, 1}, []int{2, 1}},
		{"c", []int{1, 2, 3, 6, 7}, []int{3, 4}},
	}
	for _, b := range buys {
		if out := w.BuyTicket(b.id, b.main, b.special, ctx); !out.OK {
			t.Fatalf("buy %s: %s", b.id, out.Message())
		}
	}
	pool := w.Lottery.Pool
	if pool != rules.LotterySeed+3*rules.LotteryPrice {
		t.Fatalf("pool = %d", pool)
	}

	out := w.settleDraw(jackpot, []int{1, 2}, ctx)
	if !out.OK {
		t.Fatalf("draw: %+v", out)
	}

	top := int(float64(pool)*rules.LotteryTiers[0].Share) / 2
	last := len(rules.LotteryTiers) - 1
	sixth := int(float64(pool) * rules.LotteryTiers[last].Share)
	if got := w.Players["a"].Gold; got != 900+top {
		t.Errorf("a gold = %d, want %d", got, 900+top)
	}
	if got := w.Players["b"].Gold; got != 900+top {
		t.Errorf("b gold = %d, want %d", got, 900+top)
	}
	if got := w.Players["c"].Gold; got != 900+sixth {
		t.Errorf("c gold = %d, want %d", got, 900+sixth)
	}
	paid := 2*top + sixth
	if w.Lottery.Pool != pool-paid+rules.LotterySeed {
		t.Errorf("pool after = %d, want %d", w.Lottery.Pool, pool-paid+rules.LotterySeed)
	}
	if len(w.Lottery.Tickets) != 0 || len(w.Lottery.History) != 1 || w.Lottery.History[0].Paid != paid {
		t.Errorf("lottery state = %+v", w.Lottery)
	}
}

func TestLottery_TicketRules(t *testing.T) {
	w, ctx := setup(t, "a")
	a := w.Players["a"]
	a.Gold = 10_000
	tests := []struct {
		name    string
		main    []int
		special []int
	}{
		{"too few", []int{1, 2, 3}, []int{1, 2}},
		{"duplicate", []int{1, 1, 2, 3, 4}, []int{1, 2}},
		{"out of range", []int{1, 2, 3, 4, 36}, []int{1, 2}},
		{"special out of range", []int{1, 2, 3, 4, 5}, []int{1, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := w.BuyTicket("a", tt.main, tt.special, ctx)
			if out.Failure == nil || out.Failure.Kind != types.FailInvalidTarget {
				t.Errorf("expected invalid target, got %+v", out)
			}
		})
	}
	for i := 0; i < ctx.Tables.Rules.LotteryMaxTickets; i++ {
		if out := w.BuyTicket("a", nil, nil, ctx); !out.OK {
			t.Fatalf("quick pick %d: %s", i, out.Message())
		}
	}
	if out := w.BuyTicket("a", nil, nil, ctx); out.Failure == nil || out.Failure.Kind != types.FailInvariant {
		t.Errorf("ticket over the limit: %+v", out)
	}
	if len(w.TicketsOf("a")) != ctx.Tables.Rules.LotteryMaxTickets {
		t.Errorf("tickets = %d", len(w.TicketsOf("a")))
	}
}

func TestPrizeTier(t *testing.T) {
	tiers := catalog.MustDefault().Rules.LotteryTiers
	tests := []struct {
		main, special, want int
	}{
		{5, 2, 0},
		{5, 1, 1},
		{4, 2, 2},
		{0, 2, 5},
		{2, 0, -1},
	}
	for _, tt := range tests {
		if got := PrizeTier(tiers, tt.main, tt.special); got != tt.want {
			t.Errorf("PrizeTier(%d, %d) = %d, want %d", tt.main, tt.special, got, tt.want)
		}
	}
}

func TestDuel_StrongChallengerWins(t *testing.T) {
	wins := 0
	const trials = 50
	for seed := int64(1); seed <= trials; seed++ {
		w, ctx := setup(t, "strong", "weak")
		ctx.RNG = rng.New(seed)
		s := w.Players["strong"]
		s.Realm, s.Level = 3, 10
		s.RecomputeRequiredQi(ctx.Tables)
		s.RecomputeMaxHealth()

		if out := w.ChallengeDuel("strong", "weak", ctx); !out.OK {
			t.Fatalf("challenge: %s", out.Message())
		}
		res, out := w.AcceptDuel("weak", "", ctx)
		if !out.OK {
			t.Fatalf("accept: %s", out.Message())
		}
		if res.Winner.ID == "strong" {
			wins++
		}
		if len(w.Duels) != 0 {
			t.Fatal("accepted request was not removed")
		}
	}
	if wins < trials*95/100 {
		t.Errorf("strong challenger won %d/%d", wins, trials)
	}
}

func TestDuel_OnePendingPerChallengerAndTTL(t *testing.T) {
	w, ctx := setup(t, "a", "b", "c")
	if out := w.ChallengeDuel("a", "b", ctx); !out.OK {
		t.Fatalf("challenge: %s", out.Message())
	}
	if out := w.ChallengeDuel("a", "c", ctx); out.Failure == nil {
		t.Fatal("second pending challenge accepted")
	}
	if out := w.RejectDuel("c", "", ctx); out.Failure == nil {
		t.Fatal("c rejected a duel aimed at b")
	}

	ctx.Now += int64(ctx.Tables.Rules.DuelTTL)
	if _, out := w.AcceptDuel("b", "", ctx); out.Failure == nil {
		t.Fatal("expired challenge accepted")
	}
	if out := w.ChallengeDuel("a", "c", ctx); !out.OK {
		t.Fatalf("challenge after expiry: %s", out.Message())
	}
	if out := w.RejectDuel("c", "a", ctx); !out.OK {
		t.Fatalf("reject: %s", out.Message())
	}
	if len(w.Duels) != 0 {
		t.Errorf("duels = %v", w.Duels)
	}
}

func TestTrade_AcceptMovesGoldAndItem(t *testing.T) {
	w, ctx := setup(t, "a", "b")
	a, b := w.Players["a"], w.Players["b"]
	item := "1品疗伤丹"
	req, out := w.OfferTrade("a", "b", item, 60, ctx)
	if !out.OK {
		t.Fatalf("offer: %s", out.Message())
	}
	aGold, bGold, aCount := a.Gold, b.Gold, a.CountItem(item)

	if out := w.AcceptTrade("a", req.ID, ctx); out.Failure == nil {
		t.Fatal("seller accepted their own offer")
	}
	if out := w.AcceptTrade("b", req.ID, ctx); !out.OK {
		t.Fatalf("accept: %s", out.Message())
	}
	if a.Gold != aGold+60 || b.Gold != bGold-60 {
		t.Errorf("gold a=%d b=%d", a.Gold, b.Gold)
	}
	if a.CountItem(item) != aCount-1 || !b.HasItem(item) {
		t.Error("item did not move")
	}
	if _, ok := w.Trades[req.ID]; ok {
		t.Error("trade not removed")
	}
}

func TestTrade_RejectAndExpiry(t *testing.T) {
	w, ctx := setup(t, "a", "b")
	req, _ := w.OfferTrade("a", "b", "1品疗伤丹", 10, ctx)
	if out := w.RejectTrade("a", req.ID, ctx); !out.OK {
		t.Fatalf("seller reject: %s", out.Message())
	}

	req, _ = w.OfferTrade("a", "b", "1品疗伤丹", 10, ctx)
	ctx.Now += int64(ctx.Tables.Rules.TradeTTL)
	if out := w.AcceptTrade("b", req.ID, ctx); out.Failure == nil {
		t.Fatal("expired trade accepted")
	}
	if n := w.SweepRequests(ctx); n != 1 || len(w.Trades) != 0 {
		t.Errorf("swept %d, trades left %d", n, len(w.Trades))
	}
}

func TestTrade_InsufficientGoldLeavesOffer(t *testing.T) {
	w, ctx := setup(t, "a", "b")
	req, _ := w.OfferTrade("a", "b", "1品疗伤丹", 1_000_000, ctx)
	out := w.AcceptTrade("b", "", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInsufficient {
		t.Fatalf("expected insufficient, got %+v", out)
	}
	if _, ok := w.Trades[req.ID]; !ok {
		t.Error("offer dropped on a failed accept")
	}
}

func TestRuler_RequiresRealm(t *testing.T) {
	w, ctx := setup(t, "a")
	out := w.ChallengeRuler("a", ctx)
	if out.Failure == nil || out.Failure.Kind != types.FailInsufficient {
		t.Fatalf("expected insufficient, got %+v", out)
	}
}

func TestRuler_VacantThroneTaken(t *testing.T) {
	w, ctx := setup(t, "a")
	ctx.RNG = rng.FromSource(&rng.Scripted{Float: 0})
	a := w.Players["a"]
	a.Realm = 11
	a.RecomputeRequiredQi(ctx.Tables)
	a.RecomputeMaxHealth()

	out := w.ChallengeRuler("a", ctx)
	if !out.Has(types.FlagRulerChanged) || w.Ruler.PlayerID != "a" {
		t.Fatalf("outcome = %+v ruler = %+v", out, w.Ruler)
	}
	ctx.Now += 3600
	if out := w.ChallengeRuler("a", ctx); out.Failure == nil {
		t.Error("holder challenged their own title")
	}
	w.Leave("a")
	if w.Ruler.PlayerID != "" {
		t.Error("title survived the holder leaving")
	}
}

func TestBoss_KillingBlow(t *testing.T) {
	w, ctx := setup(t, "a")
	ctx.RNG = rng.FromSource(&rng.Scripted{Float: 0.5})
	if !w.RespawnBoss(ctx) || w.Boss.Health != ctx.Tables.Rules.BossHealth {
		t.Fatalf("boss = %+v", w.Boss)
	}
	w.Boss.Health = 10
	a := w.Players["a"]
	gold := a.Gold

	out := w.StrikeBoss("a", ctx)
	if !out.Has(types.FlagBossSlain) || w.Boss.Health != 0 {
		t.Fatalf("outcome = %+v boss = %+v", out, w.Boss)
	}
	rules := ctx.Tables.Rules
	if a.Gold != gold+int(10*rules.BossGoldRate)+rules.BossKillReward {
		t.Errorf("gold = %d", a.Gold)
	}
	if !a.HasItem(rules.BossKillItem) {
		t.Error("kill item missing")
	}

	ctx.Now += 3600
	if out := w.StrikeBoss("a", ctx); out.Failure == nil || out.Failure.Kind != types.FailPhase {
		t.Errorf("strike on a slain boss: %+v", out)
	}
	if !w.RespawnBoss(ctx) || w.Boss.Generation != 2 {
		t.Errorf("respawn: %+v", w.Boss)
	}
}

func TestTick_SchedulesEverything(t *testing.T) {
	w, ctx := setup(t, "a")
	out := w.Tick(ctx)
	if !out.OK {
		t.Fatalf("tick: %+v", out)
	}
	if len(w.Market.Items) == 0 || len(w.Auction.Lots) == 0 {
		t.Error("market or auction not stocked")
	}
	if w.Lottery.DrawAt == 0 || w.Boss.Health == 0 {
		t.Error("lottery or boss not initialised")
	}

	ctx.Now = w.Lottery.DrawAt
	w.Tick(ctx)
	if len(w.Lottery.History) != 1 {
		t.Errorf("draw not run: history %d", len(w.Lottery.History))
	}
}

func TestLeave_ReleasesReferences(t *testing.T) {
	w, ctx := setup(t, "a", "b")
	w.Auction = Auction{Lots: []Lot{{Item: "8品不朽丹", MinBid: 10}}, EndsAt: now + 100}
	w.Bid("a", 1, 50, ctx)
	w.ChallengeDuel("b", "a", ctx)
	w.OfferTrade("b", "a", "1品疗伤丹", 5, ctx)

	if out := w.Leave("a"); !out.OK {
		t.Fatalf("leave: %s", out.Message())
	}
	if w.Auction.Lots[0].BidderID != "" || len(w.Duels) != 0 || len(w.Trades) != 0 {
		t.Errorf("references remain: %+v %v %v", w.Auction.Lots, w.Duels, w.Trades)
	}
}
