package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/command"
	"github.com/nathoo/dpcq/config"
	"github.com/nathoo/dpcq/engine"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/store/memory"
)

func newModel(t *testing.T) Model {
	t.Helper()
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	eng := engine.New(catalog.MustDefault(), memory.New(),
		engine.WithRNG(rng.New(5)),
		engine.WithClock(now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(eng.Close)
	cfg := &config.Config{Group: "local", UserID: "admin", UserName: "药老", Admins: []string{"admin"}}
	return New(eng, command.New(eng, command.WithClock(now)), cfg)
}

// send types a line and presses enter.
func send(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func transcript(m Model) string {
	var b strings.Builder
	for _, rl := range m.rawLines {
		b.WriteString(rl.text)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"✗ you are dying; revive before doing anything else", kindFailure},
		{"» The market has restocked.", kindAnnounce},
		{"[Now acting as 萧炎 (u1).]", kindSystem},
		{"1. 1品聚气丹 [pill, rank 1] 30 gold", kindListing},
		{"12. 萧炎 斗者 level 3, power 1,200", kindListing},
		{"1品聚气丹", kindText},
		{"Pending trades:", kindHeading},
		{"You train and gain 12 qi.", kindText},
		{"", kindText},
	}
	for _, tt := range tests {
		if got := classifyLine(tt.line); got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "short line", 20, "short line"},
		{"spaces", "the quick brown fox", 10, "the quick\nbrown fox"},
		{"cjk breaks between runes", "斗之气斗者斗师", 6, "斗之气\n斗者斗\n师"},
		{"mixed", "萧炎 gains 斗之气", 8, "萧炎\ngains\n斗之气"},
		{"zero width", "anything goes", 0, "anything goes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wordWrap(tt.text, tt.width)
			if got != tt.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
			for _, line := range strings.Split(got, "\n") {
				if tt.width > 0 && lipgloss.Width(line) > tt.width {
					t.Errorf("line %q wider than %d", line, tt.width)
				}
			}
		})
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	if _, ok := h.Prev(); ok {
		t.Error("Prev on empty history")
	}
	if _, ok := h.Last(); ok {
		t.Error("Last on empty history")
	}
	for _, cmd := range []string{"train", "train", "status", "market", "buy 1"} {
		h.Push(cmd)
	}
	if len(h.entries) != 3 {
		t.Fatalf("entries = %v", h.entries)
	}

	steps := []struct {
		prev bool
		want string
		ok   bool
	}{
		{true, "buy 1", true},
		{true, "market", true},
		{true, "status", true},
		{true, "status", true}, // oldest stays
		{false, "market", true},
		{false, "buy 1", true},
		{false, "", false},
	}
	for i, s := range steps {
		var got string
		var ok bool
		if s.prev {
			got, ok = h.Prev()
		} else {
			got, ok = h.Next()
		}
		if got != s.want || ok != s.ok {
			t.Errorf("step %d: got %q,%v want %q,%v", i, got, ok, s.want, s.ok)
		}
	}
	if last, _ := h.Last(); last != "buy 1" {
		t.Errorf("Last = %q", last)
	}
}

func TestHandleMeta(t *testing.T) {
	m := newModel(t)

	if _, quit, ok := m.handleMeta("/quit"); !quit || !ok {
		t.Error("/quit should quit")
	}
	if out, _, ok := m.handleMeta("/help"); !ok || !strings.Contains(strings.Join(out, "\n"), "/as") {
		t.Errorf("/help = %v", out)
	}
	if _, _, ok := m.handleMeta("/train"); ok {
		t.Error("/train is a game command")
	}
	if _, _, ok := m.handleMeta("status"); ok {
		t.Error("plain input is not meta")
	}

	out, _, _ := m.handleMeta("/as u1 萧炎")
	if m.actor.UserID != "u1" || m.actor.Admin || !strings.Contains(out[0], "萧炎") {
		t.Errorf("/as: actor=%+v out=%v", m.actor, out)
	}
	out, _, _ = m.handleMeta("/whoami")
	if out[0] != "萧炎 (u1), player of group local" {
		t.Errorf("/whoami = %v", out)
	}
}

func TestEnter_DispatchesAndRefreshesStatus(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	if bar := m.renderStatusBar(); !strings.Contains(bar, "not joined") {
		t.Errorf("status before join = %q", bar)
	}
	m = send(t, m, "开始游戏")
	m = send(t, m, "加入")
	if !m.joined {
		t.Fatalf("profile not refreshed after join:\n%s", transcript(m))
	}
	bar := m.renderStatusBar()
	for _, want := range []string{"药老", "Gold 100", "HP "} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar missing %q: %q", want, bar)
		}
	}

	m = send(t, m, "again")
	if !strings.Contains(transcript(m), "✗ ") {
		t.Errorf("repeated join should fail:\n%s", transcript(m))
	}
}

func TestAnnounce(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(announceMsg{text: "第一行\n第二行"})
	got := transcript(next.(Model))
	if !strings.Contains(got, "» 第一行\n» 第二行\n") {
		t.Errorf("transcript = %q", got)
	}
}

func TestAgain_NothingToRepeat(t *testing.T) {
	m := send(t, newModel(t), "g")
	if !strings.Contains(transcript(m), "Nothing to repeat.") {
		t.Errorf("transcript = %q", transcript(m))
	}
}
