package world

import (
	"fmt"

	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

// Listing is one item for sale in the market.
type Listing struct {
	Item  string `json:"name"`
	Price int    `json:"price"`
}

// Market is the rolling shop. NextRefresh is a unix second.
type Market struct {
	Items       []Listing `json:"market_items"`
	NextRefresh int64     `json:"next_refresh"`
}

// highRankWeights biases the rare high-rank draws toward 6品.
var highRankWeights = []struct {
	rank   int
	weight float64
}{{6, 50}, {7, 30}, {8, 15}, {9, 5}}

const (
	lowPills      = 6
	highRankTries = 2
	highRankRate  = 0.6
)

// RefreshMarket regenerates the shop: common low-rank pills, a few
// mid-rank ones, rare high-rank rolls, one or two techniques and an
// occasional storage ring, filled with commons, shuffled and capped.
func (w *World) RefreshMarket(ctx progress.Context) {
	t, r := ctx.Tables, ctx.RNG
	size := t.Rules.MarketSize
	var items []Listing
	add := func(name string) {
		items = append(items, Listing{Item: name, Price: t.Price(name)})
	}

	low := t.PillsOfRank(1, 2)
	mid := t.PillsOfRank(3, 5)
	for i := 0; i < lowPills; i++ {
		if j := r.Pick(len(low)); j >= 0 {
			add(low[j].Name)
		}
	}
	for i, n := 0, r.Between(3, 4); i < n; i++ {
		if j := r.Pick(len(mid)); j >= 0 {
			add(mid[j].Name)
		}
	}

	weights := make([]float64, len(highRankWeights))
	for i, hw := range highRankWeights {
		weights[i] = hw.weight
	}
	for i := 0; i < highRankTries; i++ {
		if !r.Chance(highRankRate) {
			continue
		}
		k := r.WeightedSelect(weights)
		if k < 0 {
			continue
		}
		rank := highRankWeights[k].rank
		pool := t.PillsOfRank(rank, rank)
		if j := r.Pick(len(pool)); j >= 0 {
			add(pool[j].Name)
		}
	}

	techWeights := make([]float64, len(t.Techniques))
	for i, tech := range t.Techniques {
		techWeights[i] = tech.Weight
	}
	for i, n := 0, r.Between(1, 2); i < n; i++ {
		if k := r.WeightedSelect(techWeights); k >= 0 {
			add(t.Techniques[k].Name)
		}
	}

	if ring, ok := t.StorageArtifact(); ok && r.Chance(t.Rules.StorageChance) {
		add(ring.Name)
	}

	for len(items) < size && len(low) > 0 {
		add(low[r.Pick(len(low))].Name)
	}
	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > size {
		items = items[:size]
	}

	w.Market.Items = items
	w.Market.NextRefresh = ctx.Now + int64(t.Rules.MarketInterval)
}

// MarketDue reports whether the market should be regenerated.
func (w *World) MarketDue(now int64) bool {
	return len(w.Market.Items) == 0 || now >= w.Market.NextRefresh
}

// Buy purchases the first listing of the named item. The listing is
// removed from the market.
func (w *World) Buy(id, item string, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	idx := -1
	for i, l := range w.Market.Items {
		if l.Item == item {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Fail(types.FailInvalidTarget, "【%s】is not on sale", item)
	}
	listing := w.Market.Items[idx]
	if p.Gold < listing.Price {
		return types.Fail(types.FailInsufficient, "【%s】costs %d gold; you have %d", item, listing.Price, p.Gold)
	}
	if p.Free(ctx.Tables) <= 0 {
		return types.Fail(types.FailInsufficient, "your inventory is full")
	}
	p.SpendGold(listing.Price)
	p.AddItem(ctx.Tables, listing.Item)
	w.Market.Items = append(w.Market.Items[:idx], w.Market.Items[idx+1:]...)
	return types.Succeed(0, fmt.Sprintf("Bought【%s】for %d gold. %d gold left.", item, listing.Price, p.Gold))
}

// Sell trades one unequipped inventory item to the market for its sale value.
func (w *World) Sell(id, item string, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	if !p.HasItem(item) {
		return types.Fail(types.FailInvalidTarget, "you do not carry【%s】", item)
	}
	value := ctx.Tables.SaleValue(item)
	if value <= 0 {
		return types.Fail(types.FailInvalidTarget, "the market will not buy【%s】", item)
	}
	if !p.CanPart(ctx.Tables, item) {
		return types.Fail(types.FailInvariant, "giving up【%s】would leave your items without room", item)
	}
	p.RemoveItem(item)
	p.AddGold(value)
	return types.Succeed(0, fmt.Sprintf("Sold【%s】for %d gold.", item, value))
}

func notJoined() types.Outcome {
	return types.Fail(types.FailInvalidTarget, "you have not joined yet; use join first")
}
