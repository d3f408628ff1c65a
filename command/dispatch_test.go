package command

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/store/memory"
	"github.com/nathoo/dpcq/types"
)

var (
	admin = engine.Actor{GroupID: "g", UserID: "admin", Name: "药老", Admin: true}
	xiao  = engine.Actor{GroupID: "g", UserID: "u1", Name: "萧炎"}
	na    = engine.Actor{GroupID: "g", UserID: "u2", Name: "纳兰嫣然"}
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	eng := engine.New(catalog.MustDefault(), memory.New(),
		engine.WithRNG(rng.New(7)),
		engine.WithClock(now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(eng.Close)
	return New(eng, WithClock(now))
}

// say runs a line and fails the test when the outcome is a failure.
func say(t *testing.T, d *Dispatcher, a engine.Actor, line string) string {
	t.Helper()
	text, out := d.Exec(context.Background(), a, Parse(line))
	if out.Failure != nil {
		t.Fatalf("%s: %q failed: %s", a.Name, line, out.Failure.Message)
	}
	return text
}

func playing(t *testing.T) *Dispatcher {
	t.Helper()
	d := newDispatcher(t)
	say(t, d, admin, "开始游戏")
	say(t, d, xiao, "加入")
	say(t, d, na, "join")
	return d
}

func TestExec_Failures(t *testing.T) {
	d := playing(t)
	tests := []struct {
		line string
		kind types.FailureKind
		want string
	}{
		{"dance", types.FailInvalidTarget, "unknown command"},
		{"bid 1", types.FailInvalidTarget, "usage: bid"},
		{"bid one 50", types.FailInvalidTarget, "usage: bid"},
		{"ticket 1 2 3", types.FailInvalidTarget, "usage: ticket"},
		{"trade 纳兰嫣然 30", types.FailInvalidTarget, "usage: trade"},
		{"use", types.FailInvalidTarget, "usage: use"},
		{"buy 999", types.FailInvalidTarget, "no listing 999"},
		{"autotrain maybe", types.FailInvalidTarget, "usage: autotrain"},
		{"wipe", types.FailInvariant, "admin"},
		{"开始游戏", types.FailInvariant, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			text, out := d.Exec(context.Background(), xiao, Parse(tt.line))
			if out.Failure == nil || out.Failure.Kind != tt.kind {
				t.Fatalf("outcome = %+v, want %v", out, tt.kind)
			}
			if !strings.HasPrefix(text, "✗ ") || !strings.Contains(text, tt.want) {
				t.Errorf("text = %q, want it to mention %q", text, tt.want)
			}
		})
	}
}

func TestHandle_BeforeStart(t *testing.T) {
	d := newDispatcher(t)
	if got := d.Handle(context.Background(), xiao, "修炼"); !strings.Contains(got, "has not started") {
		t.Errorf("train before start = %q", got)
	}
	if got := d.Handle(context.Background(), xiao, "help"); !strings.Contains(got, "修炼") {
		t.Errorf("help = %q", got)
	}
	if got := d.Handle(context.Background(), xiao, "   "); got != "" {
		t.Errorf("blank line = %q", got)
	}
}

func TestStatus(t *testing.T) {
	d := playing(t)
	got := say(t, d, xiao, "状态")
	for _, want := range []string{"萧炎", "gold 100", "inventory 3/20", "1品聚气丹"} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}
}

func TestSignIn_OncePerDay(t *testing.T) {
	d := playing(t)
	if got := say(t, d, xiao, "状态"); !strings.Contains(got, "sign-in is available") {
		t.Errorf("status before sign-in:\n%s", got)
	}
	if got := say(t, d, xiao, "签到"); !strings.Contains(got, "+20 gold") {
		t.Errorf("sign-in = %q", got)
	}
	text, out := d.Exec(context.Background(), xiao, Parse("signin"))
	if out.Failure == nil || out.Failure.Kind != types.FailCooldown {
		t.Fatalf("second sign-in: %+v", out)
	}
	if !strings.HasPrefix(text, "✗ ") {
		t.Errorf("text = %q", text)
	}
	got := say(t, d, xiao, "status")
	for _, want := range []string{"gold 120", "Signed in today"} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}
}

func TestLottery_GroupsNumbers(t *testing.T) {
	d := playing(t)
	if got := say(t, d, xiao, "彩票"); !strings.Contains(got, "pool 10,000 gold") {
		t.Errorf("lottery = %q", got)
	}
	say(t, d, xiao, "lottery buy 1 2 3 4 5 6 7")
	got := say(t, d, xiao, "lottery")
	if !strings.Contains(got, "pool 10,100 gold") || !strings.Contains(got, "your ticket: 1 2 3 4 5 + 6 7") {
		t.Errorf("after ticket = %q", got)
	}
	if got := say(t, d, xiao, "开奖记录"); got != "No draws yet." {
		t.Errorf("history = %q", got)
	}
}

func TestMarket_BuyByNumber(t *testing.T) {
	d := playing(t)
	listing := say(t, d, xiao, "market")
	if !strings.HasPrefix(listing, "Market (restocks in 1h0m0s") {
		t.Fatalf("market = %q", listing)
	}
	_, out := d.Exec(context.Background(), xiao, Parse("buy 1"))
	if out.Failure != nil && out.Failure.Kind != types.FailInsufficient {
		t.Errorf("buy 1: %+v", out.Failure)
	}
}

func TestTrade_RoundTrip(t *testing.T) {
	d := playing(t)
	say(t, d, xiao, "交易 纳兰嫣然 1品疗伤丹 30")
	if got := say(t, d, na, "交易列表"); !strings.Contains(got, "萧炎 offers you 1品疗伤丹 for 30 gold") {
		t.Fatalf("trades = %q", got)
	}
	say(t, d, na, "accept trade")
	if got := say(t, d, na, "trades"); got != "No pending trades." {
		t.Errorf("after accept = %q", got)
	}
	if got := say(t, d, na, "status"); !strings.Contains(got, "gold 70") {
		t.Errorf("buyer status = %q", got)
	}
}

func TestRankAndThrone(t *testing.T) {
	d := playing(t)
	got := say(t, d, xiao, "排行 5")
	if !strings.HasPrefix(got, "Leaderboard:\n1. ") || strings.Count(got, "\n") != 2 {
		t.Errorf("rank = %q", got)
	}
	if got := say(t, d, xiao, "王座"); !strings.Contains(got, "The throne is empty.") || !strings.Contains(got, "Boss #1") {
		t.Errorf("throne = %q", got)
	}
}

func TestDungeonParty(t *testing.T) {
	d := playing(t)
	say(t, d, xiao, "dungeon create 魔兽山脉 纳兰嫣然")
	if got := say(t, d, na, "队伍"); !strings.Contains(got, "waiting on: 纳兰嫣然") {
		t.Errorf("party = %q", got)
	}
	say(t, d, na, "确认")
	say(t, d, xiao, "dungeon start")
	if _, out := d.Exec(context.Background(), xiao, Parse("party")); out.Failure == nil || out.Failure.Kind != types.FailPhase {
		t.Errorf("party after run = %+v", out)
	}
}
