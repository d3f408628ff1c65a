package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nathoo/dpcq/engine"
	"github.com/nathoo/dpcq/types"
)

// Dispatcher runs parsed commands against an engine and renders replies.
type Dispatcher struct {
	eng   *engine.Engine
	p     *message.Printer
	clock func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLanguage selects the locale used for number formatting.
func WithLanguage(tag language.Tag) Option {
	return func(d *Dispatcher) { d.p = message.NewPrinter(tag) }
}

// WithClock replaces time.Now for countdowns.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// New creates a dispatcher over eng.
func New(eng *engine.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{eng: eng, p: message.NewPrinter(language.English), clock: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type handler func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"join":         simple((*engine.Engine).Join),
		"leave":        simple((*engine.Engine).Leave),
		"status":       (*Dispatcher).status,
		"signin":       simple((*engine.Engine).SignIn),
		"train":        simple((*engine.Engine).Train),
		"breakthrough": simple((*engine.Engine).Breakthrough),
		"explore": func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
			return lines(d.eng.Explore(ctx, a, joined(args)))
		},
		"use":    needs("use <item>", (*engine.Engine).UseItem),
		"revive": simple((*engine.Engine).Revive),
		"rescue": needs("rescue <player>", (*engine.Engine).Rescue),
		"autotrain": func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
			on := true
			if len(args) > 0 {
				switch strings.ToLower(args[0]) {
				case "on", "开", "开启":
				case "off", "关", "关闭", "stop":
					on = false
				default:
					return usage("autotrain [on|off]")
				}
			}
			return lines(d.eng.AutoTrain(ctx, a, on))
		},

		"market":  (*Dispatcher).market,
		"buy":     (*Dispatcher).buy,
		"sell":    needs("sell <item>", (*engine.Engine).Sell),
		"auction": (*Dispatcher).auction,
		"bid":     (*Dispatcher).bid,
		"lottery": (*Dispatcher).lottery,
		"ticket":  (*Dispatcher).ticket,
		"history": (*Dispatcher).history,

		"duel":         needs("duel <player>", (*engine.Engine).Duel),
		"accept-duel":  optional((*engine.Engine).AcceptDuel),
		"reject-duel":  optional((*engine.Engine).RejectDuel),
		"trade":        (*Dispatcher).trade,
		"trades":       (*Dispatcher).trades,
		"accept-trade": optional((*engine.Engine).AcceptTrade),
		"reject-trade": needs("reject-trade <id>", (*engine.Engine).RejectTrade),

		"dungeon-create": func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
			tier := ""
			if len(args) > 0 {
				tier, args = args[0], args[1:]
			}
			return lines(d.eng.DungeonCreate(ctx, a, tier, args))
		},
		"dungeon-confirm": simple((*engine.Engine).DungeonConfirm),
		"dungeon-start":   simple((*engine.Engine).DungeonStart),
		"dungeon-leave":   simple((*engine.Engine).DungeonLeave),
		"party":           (*Dispatcher).party,

		"ruler":  simple((*engine.Engine).Ruler),
		"boss":   simple((*engine.Engine).Boss),
		"throne": (*Dispatcher).throne,
		"rank":   (*Dispatcher).rank,

		"start":  simple((*engine.Engine).Start),
		"stop":   simple((*engine.Engine).Stop),
		"wipe":   simple((*engine.Engine).Wipe),
		"reload": simple((*engine.Engine).Reload),
	}
}

// Handle parses and runs one chat line, returning the reply text.
func (d *Dispatcher) Handle(ctx context.Context, a engine.Actor, line string) string {
	text, _ := d.Exec(ctx, a, Parse(line))
	return text
}

// Exec runs an intent. The outcome is returned alongside the rendered
// reply so callers can branch on failure kinds.
func (d *Dispatcher) Exec(ctx context.Context, a engine.Actor, in types.Intent) (string, types.Outcome) {
	switch in.Verb {
	case "":
		return "", types.Succeed(0)
	case "help":
		return Help(), types.Succeed(0)
	}
	h, ok := handlers[in.Verb]
	if !ok {
		out := types.Fail(types.FailInvalidTarget, "unknown command %q; try help", in.Verb)
		return render(out), out
	}
	return h(d, ctx, a, in.Args)
}

func simple(fn func(*engine.Engine, context.Context, engine.Actor) types.Outcome) handler {
	return func(d *Dispatcher, ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
		return lines(fn(d.eng, ctx, a))
	}
}

func needs(use string, fn func(*engine.Engine, context.Context, engine.Actor, string) types.Outcome) handler {
	return func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
		if len(args) == 0 {
			return usage(use)
		}
		return lines(fn(d.eng, ctx, a, joined(args)))
	}
}

func optional(fn func(*engine.Engine, context.Context, engine.Actor, string) types.Outcome) handler {
	return func(d *Dispatcher, ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
		return lines(fn(d.eng, ctx, a, joined(args)))
	}
}

func joined(args []string) string { return strings.Join(args, " ") }

func usage(form string) (string, types.Outcome) {
	out := types.Fail(types.FailInvalidTarget, "usage: %s", form)
	return render(out), out
}

func lines(out types.Outcome) (string, types.Outcome) { return render(out), out }

// render turns an outcome into reply text. Failures get a marker so the
// chat can tell them apart from narration.
func render(out types.Outcome) string {
	if out.Failure != nil {
		return "✗ " + out.Failure.Message
	}
	return strings.Join(out.Lines, "\n")
}

// countdown renders the time until a unix deadline.
func (d *Dispatcher) countdown(at int64) string {
	left := time.Unix(at, 0).Sub(d.clock())
	if left <= 0 {
		return "now"
	}
	return left.Round(time.Second).String()
}

func (d *Dispatcher) status(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	prof, out := d.eng.Profile(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	var b strings.Builder
	title := prof.Realm
	if prof.Title != "" {
		title = prof.Title
	}
	d.p.Fprintf(&b, "%s | %s level %d/%d", prof.Name, title, prof.Level, prof.MaxLevel)
	if prof.Ruler {
		b.WriteString(" | 至尊")
	}
	d.p.Fprintf(&b, "\nqi %d/%d  health %d/%d  gold %d  power %d", prof.Qi, prof.RequiredQi, prof.Health, prof.MaxHealth, prof.Gold, prof.Power)
	if prof.Dying {
		b.WriteString("\nYou are dying. Use revive or ask someone to rescue you.")
	}
	if prof.AutoTrain {
		b.WriteString("\nAuto-training is on.")
	}
	if prof.SignedIn {
		b.WriteString("\nSigned in today.")
	} else {
		b.WriteString("\nDaily sign-in is available.")
	}
	if len(prof.Equipped) > 0 {
		fmt.Fprintf(&b, "\nequipped: %s", strings.Join(prof.Equipped, "、"))
	}
	for _, bo := range prof.Boosts {
		d.p.Fprintf(&b, "\nboost %s +%.0f%% (%ds left)", bo.Tag, bo.Value*100, bo.Remaining)
	}
	fmt.Fprintf(&b, "\ninventory %d/%d", len(prof.Inventory), prof.Capacity)
	if len(prof.Inventory) > 0 {
		b.WriteString(": " + strings.Join(prof.Inventory, "、"))
	}
	return b.String(), out
}

func (d *Dispatcher) market(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	view, out := d.eng.Market(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	var b strings.Builder
	d.p.Fprintf(&b, "Market (restocks in %s, you have %d gold)", d.countdown(view.NextRefresh), view.Gold)
	for i, o := range view.Offers {
		d.p.Fprintf(&b, "\n%d. %s [%s, rank %d] %d gold", i+1, o.Item, o.Kind, o.Rank, o.Price)
	}
	return b.String(), out
}

// buy accepts a listing number or an item name.
func (d *Dispatcher) buy(ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
	if len(args) == 0 {
		return usage("buy <number|item>")
	}
	ref := joined(args)
	if n, err := strconv.Atoi(ref); err == nil {
		view, out := d.eng.Market(ctx, a)
		if out.Failure != nil {
			return lines(out)
		}
		if n < 1 || n > len(view.Offers) {
			return lines(types.Fail(types.FailInvalidTarget, "no listing %d; the market has %d", n, len(view.Offers)))
		}
		ref = view.Offers[n-1].Item
	}
	return lines(d.eng.Buy(ctx, a, ref))
}

func (d *Dispatcher) auction(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	view, out := d.eng.Auction(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Auction (closes in %s)", d.countdown(view.EndsAt))
	for _, l := range view.Lots {
		d.p.Fprintf(&b, "\n%d. %s [rank %d] ", l.Slot, l.Item, l.Rank)
		switch {
		case l.Sold:
			d.p.Fprintf(&b, "sold to %s for %d", l.Bidder, l.Bid)
		case l.Bidder == "":
			d.p.Fprintf(&b, "opening bid %d", l.MinBid)
		case l.Mine:
			d.p.Fprintf(&b, "your bid %d leads", l.Bid)
		default:
			d.p.Fprintf(&b, "%s leads at %d", l.Bidder, l.Bid)
		}
	}
	return b.String(), out
}

func (d *Dispatcher) bid(ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
	if len(args) != 2 {
		return usage("bid <slot> <gold>")
	}
	slot, err1 := strconv.Atoi(args[0])
	amount, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return usage("bid <slot> <gold>")
	}
	return lines(d.eng.Bid(ctx, a, slot, amount))
}

func (d *Dispatcher) lottery(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	view, out := d.eng.Lottery(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	var b strings.Builder
	d.p.Fprintf(&b, "Lottery draw #%d: pool %d gold, %d tickets sold, draws in %s. A ticket costs %d.",
		view.Number, view.Pool, view.Sold, d.countdown(view.DrawAt), view.Price)
	for _, t := range view.Tickets {
		fmt.Fprintf(&b, "\nyour ticket: %s + %s", ints(t.Main), ints(t.Special))
	}
	return b.String(), out
}

// ticket takes seven numbers (five main, two special) or none for a
// quick pick.
func (d *Dispatcher) ticket(ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
	if len(args) == 0 {
		return lines(d.eng.BuyTicket(ctx, a, nil, nil))
	}
	if len(args) != 7 {
		return usage("ticket [5 main numbers] [2 special numbers]")
	}
	nums := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return usage("ticket [5 main numbers] [2 special numbers]")
		}
		nums[i] = n
	}
	return lines(d.eng.BuyTicket(ctx, a, nums[:5], nums[5:]))
}

func (d *Dispatcher) history(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	view, out := d.eng.Lottery(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	if len(view.History) == 0 {
		return "No draws yet.", out
	}
	var b strings.Builder
	b.WriteString("Recent draws:")
	for i := len(view.History) - 1; i >= 0; i-- {
		dr := view.History[i]
		d.p.Fprintf(&b, "\n#%d %s + %s: %d winners, %d paid, pool %d",
			dr.Number, ints(dr.Main), ints(dr.Special), len(dr.Winners), dr.Paid, dr.Pool)
	}
	return b.String(), out
}

func ints(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, " ")
}

// trade reads "<player> <item> <price>"; the item may contain spaces.
func (d *Dispatcher) trade(ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
	if len(args) < 3 {
		return usage("trade <player> <item> <price>")
	}
	price, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return usage("trade <player> <item> <price>")
	}
	return lines(d.eng.Trade(ctx, a, args[0], joined(args[1:len(args)-1]), price))
}

func (d *Dispatcher) trades(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	views, out := d.eng.Trades(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	if len(views) == 0 {
		return "No pending trades.", out
	}
	var b strings.Builder
	b.WriteString("Pending trades:")
	for _, t := range views {
		if t.Incoming {
			d.p.Fprintf(&b, "\n[%s] %s offers you %s for %d gold", short(t.ID), t.Seller, t.Item, t.Price)
		} else {
			d.p.Fprintf(&b, "\n[%s] you offer %s %s for %d gold", short(t.ID), t.Buyer, t.Item, t.Price)
		}
	}
	return b.String(), out
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (d *Dispatcher) party(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	v, out := d.eng.Party(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	s := fmt.Sprintf("Party %s for【%s】(%s), led by %s\nmembers: %s", short(v.ID), v.Tier, v.State, v.Leader, strings.Join(v.Members, "、"))
	if len(v.Waiting) > 0 {
		s += "\nwaiting on: " + strings.Join(v.Waiting, "、")
	}
	return s, out
}

func (d *Dispatcher) throne(ctx context.Context, a engine.Actor, _ []string) (string, types.Outcome) {
	v, out := d.eng.Throne(ctx, a)
	if out.Failure != nil {
		return lines(out)
	}
	var b strings.Builder
	if v.Ruler == "" {
		b.WriteString("The throne is empty.")
	} else {
		fmt.Fprintf(&b, "Supreme ruler: %s, since %s.", v.Ruler, time.Unix(v.RulerSince, 0).UTC().Format(time.DateTime))
	}
	switch {
	case v.Generation == 0:
		b.WriteString("\nNo boss has appeared yet.")
	case v.BossHealth <= 0:
		d.p.Fprintf(&b, "\nBoss #%d has been slain; another will rise.", v.Generation)
	default:
		d.p.Fprintf(&b, "\nBoss #%d: %d/%d health", v.Generation, v.BossHealth, v.BossMax)
	}
	return b.String(), out
}

func (d *Dispatcher) rank(ctx context.Context, a engine.Actor, args []string) (string, types.Outcome) {
	n := 10
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	rows, out := d.eng.Leaderboard(ctx, a, n)
	if out.Failure != nil {
		return lines(out)
	}
	if len(rows) == 0 {
		return "Nobody has joined yet.", out
	}
	var b strings.Builder
	b.WriteString("Leaderboard:")
	for _, r := range rows {
		d.p.Fprintf(&b, "\n%d. %s %s level %d, power %d", r.Rank, r.Name, r.Realm, r.Level, r.Power)
	}
	return b.String(), out
}
