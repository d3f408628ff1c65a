package world

import (
	"fmt"
	"sort"

	"github.com/nathoo/dpcq/engine/progress"
	"github.com/nathoo/dpcq/types"
)

const (
	mainPicks    = 5
	specialPicks = 2
)

// Ticket is one lottery entry for the current draw.
type Ticket struct {
	PlayerID string `json:"user_id"`
	Main     []int  `json:"main"`
	Special  []int  `json:"special"`
}

// Winner is one paid ticket in a draw.
type Winner struct {
	PlayerID string `json:"user_id"`
	Name     string `json:"user_name"`
	Tier     string `json:"tier"`
	Prize    int    `json:"prize"`
}

// Draw is a completed lottery draw.
type Draw struct {
	Number  int      `json:"number"`
	At      int64    `json:"time"`
	Main    []int    `json:"main"`
	Special []int    `json:"special"`
	Winners []Winner `json:"winners"`
	Paid    int      `json:"paid"`
	Pool    int      `json:"pool_after"`
}

// Lottery is the shared prize pool and the tickets sold for the next draw.
type Lottery struct {
	Pool    int      `json:"lottery_pool"`
	Tickets []Ticket `json:"lottery_tickets"`
	History []Draw   `json:"lottery_history"`
	DrawAt  int64    `json:"draw_time"`
	Number  int      `json:"draw_number"`
}

// LotteryDue reports whether the next draw is due.
func (w *World) LotteryDue(now int64) bool {
	return w.Lottery.DrawAt != 0 && now >= w.Lottery.DrawAt
}

// OpenLottery schedules the first draw and seeds an empty pool.
func (w *World) OpenLottery(ctx progress.Context) {
	if w.Lottery.DrawAt == 0 {
		w.Lottery.DrawAt = ctx.Now + int64(ctx.Tables.Rules.LotteryInterval)
	}
	if w.Lottery.Pool == 0 {
		w.Lottery.Pool = ctx.Tables.Rules.LotterySeed
	}
}

// validPicks checks for n distinct numbers in [1, limit].
func validPicks(nums []int, n, limit int) bool {
	if len(nums) != n {
		return false
	}
	seen := map[int]bool{}
	for _, v := range nums {
		if v < 1 || v > limit || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func sorted(nums []int) []int {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	return out
}

// BuyTicket sells a ticket. Empty picks are drawn at random.
func (w *World) BuyTicket(id string, main, special []int, ctx progress.Context) types.Outcome {
	p, ok := w.Player(id)
	if !ok {
		return notJoined()
	}
	rules := ctx.Tables.Rules
	if len(main) == 0 && len(special) == 0 {
		main = ctx.RNG.Sample(rules.LotteryMainRange, mainPicks)
		special = ctx.RNG.Sample(rules.LotterySpecialRange, specialPicks)
	}
	if !validPicks(main, mainPicks, rules.LotteryMainRange) || !validPicks(special, specialPicks, rules.LotterySpecialRange) {
		return types.Fail(types.FailInvalidTarget,
			"pick %d distinct numbers from 1-%d and %d from 1-%d",
			mainPicks, rules.LotteryMainRange, specialPicks, rules.LotterySpecialRange)
	}
	held := 0
	for _, t := range w.Lottery.Tickets {
		if t.PlayerID == id {
			held++
		}
	}
	if held >= rules.LotteryMaxTickets {
		return types.Fail(types.FailInvariant, "you already hold %d tickets for this draw", held)
	}
	if !p.SpendGold(rules.LotteryPrice) {
		return types.Fail(types.FailInsufficient, "a ticket costs %d gold; you have %d", rules.LotteryPrice, p.Gold)
	}
	w.OpenLottery(ctx)
	w.Lottery.Pool += rules.LotteryPrice
	ticket := Ticket{PlayerID: id, Main: sorted(main), Special: sorted(special)}
	w.Lottery.Tickets = append(w.Lottery.Tickets, ticket)
	return types.Succeed(0, fmt.Sprintf("Ticket %v + %v bought. Pool: %d gold.", ticket.Main, ticket.Special, w.Lottery.Pool))
}

func matches(picks, drawn []int) int {
	in := map[int]bool{}
	for _, v := range drawn {
		in[v] = true
	}
	n := 0
	for _, v := range picks {
		if in[v] {
			n++
		}
	}
	return n
}

// PrizeTier classifies a ticket's match counts, -1 when it wins nothing.
func PrizeTier(tiers []types.LotteryTier, mainHits, specialHits int) int {
	for i, tier := range tiers {
		for _, m := range tier.Matches {
			if m[0] == mainHits && m[1] == specialHits {
				return i
			}
		}
	}
	return -1
}

// DrawLottery draws the numbers, splits each tier's share of the pool
// evenly among its winners and carries the rest forward plus the seed.
func (w *World) DrawLottery(ctx progress.Context) types.Outcome {
	rules := ctx.Tables.Rules
	main := sorted(ctx.RNG.Sample(rules.LotteryMainRange, mainPicks))
	special := sorted(ctx.RNG.Sample(rules.LotterySpecialRange, specialPicks))
	return w.settleDraw(main, special, ctx)
}

func (w *World) settleDraw(main, special []int, ctx progress.Context) types.Outcome {
	rules := ctx.Tables.Rules
	byTier := make([][]Ticket, len(rules.LotteryTiers))
	for _, t := range w.Lottery.Tickets {
		if i := PrizeTier(rules.LotteryTiers, matches(t.Main, main), matches(t.Special, special)); i >= 0 {
			byTier[i] = append(byTier[i], t)
		}
	}

	pool := w.Lottery.Pool
	w.Lottery.Number++
	draw := Draw{Number: w.Lottery.Number, At: ctx.Now, Main: main, Special: special}
	lines := []string{fmt.Sprintf("Lottery draw #%d: %v + %v", draw.Number, main, special)}
	for i, tier := range rules.LotteryTiers {
		winners := byTier[i]
		if len(winners) == 0 {
			continue
		}
		prize := int(float64(pool)*tier.Share) / len(winners)
		for _, t := range winners {
			name := t.PlayerID
			if p, ok := w.Player(t.PlayerID); ok {
				p.AddGold(prize)
				name = p.Name
			}
			draw.Paid += prize
			draw.Winners = append(draw.Winners, Winner{PlayerID: t.PlayerID, Name: name, Tier: tier.Name, Prize: prize})
			lines = append(lines, fmt.Sprintf("%s %s: %d gold", tier.Name, name, prize))
		}
	}
	if len(draw.Winners) == 0 {
		lines = append(lines, "No winners this time; the pool rolls over.")
	}

	w.Lottery.Pool = pool - draw.Paid + rules.LotterySeed
	draw.Pool = w.Lottery.Pool
	w.Lottery.Tickets = nil
	w.Lottery.History = append(w.Lottery.History, draw)
	if n := rules.LotteryHistory; n > 0 && len(w.Lottery.History) > n {
		w.Lottery.History = w.Lottery.History[len(w.Lottery.History)-n:]
	}
	w.Lottery.DrawAt = ctx.Now + int64(rules.LotteryInterval)
	lines = append(lines, fmt.Sprintf("Next pool: %d gold.", w.Lottery.Pool))
	return types.Succeed(types.FlagSettled, lines...)
}

// TicketsOf returns a player's tickets for the next draw.
func (w *World) TicketsOf(id string) []Ticket {
	var out []Ticket
	for _, t := range w.Lottery.Tickets {
		if t.PlayerID == id {
			out = append(out, t)
		}
	}
	return out
}
