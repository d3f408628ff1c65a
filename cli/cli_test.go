package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/command"
	"github.com/nathoo/dpcq/config"
	"github.com/nathoo/dpcq/engine"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/store/memory"
)

func testConfig() *config.Config {
	return &config.Config{Group: "local", UserID: "admin", UserName: "药老", Admins: []string{"admin"}}
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	eng := engine.New(catalog.MustDefault(), memory.New(),
		engine.WithRNG(rng.New(3)),
		engine.WithClock(now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(eng.Close)
	cfg := testConfig()
	var out bytes.Buffer
	c := &CLI{
		Dispatcher: command.New(eng, command.WithClock(now)),
		Config:     cfg,
		Actor:      ActorFor(cfg, cfg.UserID, cfg.UserName),
		In:         strings.NewReader(input),
		Out:        &out,
	}
	return c, &out
}

func TestCLI_Greeting(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "You are 药老 in group local") {
		t.Errorf("missing greeting:\n%s", output)
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye on /quit")
	}
}

func TestCLI_BasicGameplay(t *testing.T) {
	c, out := newTestCLI(t, "开始游戏\n加入\n状态\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"The path of cultivation is open.", "药老 |", "gold 100"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_SlashGameCommand(t *testing.T) {
	c, out := newTestCLI(t, "/train\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "has not started") {
		t.Errorf("slash game command not dispatched:\n%s", out.String())
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"/as", "/quit", "breakthrough"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestCLI_ActAs(t *testing.T) {
	c, out := newTestCLI(t, "开始游戏\n/as u2 纳兰嫣然\n/whoami\n加入\nwipe\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "[纳兰嫣然 (u2), player of group local]") {
		t.Errorf("whoami after /as:\n%s", output)
	}
	if !strings.Contains(output, "only an admin") {
		t.Error("non-admin wipe should be refused")
	}
	if c.Actor.UserID != "u2" || c.Actor.Admin {
		t.Errorf("actor = %+v", c.Actor)
	}
}

func TestCLI_EmptyInputAndComments(t *testing.T) {
	c, out := newTestCLI(t, "\n# a comment\n\n/quit\n")
	c.Run(context.Background())

	if strings.Contains(out.String(), "unknown command") {
		t.Error("blank and comment lines should be skipped")
	}
}

func TestCLI_EchoInput(t *testing.T) {
	c, out := newTestCLI(t, "help\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	if !strings.Contains(out.String(), "> help\n") {
		t.Errorf("expected echoed input:\n%s", out.String())
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "help\nagain\ng\n/quit\n")
	c.Run(context.Background())

	if n := strings.Count(out.String(), "Cultivation:"); n != 3 {
		t.Errorf("expected help three times, got %d", n)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_Announce(t *testing.T) {
	c, out := newTestCLI(t, "")
	c.Announce("elsewhere", "ignored")
	c.Announce("local", "The market has restocked.\nCome and see.")

	got := out.String()
	if strings.Contains(got, "ignored") {
		t.Error("announcement for another group was printed")
	}
	if got != "» The market has restocked.\n» Come and see.\n" {
		t.Errorf("announce = %q", got)
	}
}
