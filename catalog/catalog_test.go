package catalog

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/nathoo/dpcq/types"
)

const minimalRules = `
Rules {
    cooldowns = { train = 10, explore = 20, duel = 30 },
    base_capacity = 4,
    start_gold = 50,
    starter_items = { "小丹" },
    lottery = { main_range = 35, special_range = 12, tiers = { { name = "头奖", share = 0.5, matches = { {5, 2} } } } },
}
`

const minimalContent = `
Realm "一" { levels = 3, chance = 0.5, base_qi = 10, gain = { 1, 2 } }
Realm "二" { levels = 3, chance = 0.5, base_qi = 20, gain = { 2, 4 }, reset_level = true }
Pill "p1" { name = "小丹", category = "healing", rank = 1, effect = "heal", value = 0.2, price = 10, sale = 5 }
Technique "心法" { slot = "cultivation", train = 1.1, power = 1.2, value = 7, price = 9 }
Artifact "戒指" { kind = "storage", capacity = 5, rank = 4 }
Tier "初级" { recommended = 0, danger = 0.2, reward = 1 }
Event "奇遇" { weight = 1, effects = { Qi { base = 0.1 }, PillOf { category = "healing", count = 1 } } }
Dungeon "洞" { tier = 1, boss_power = 100, gold = 10, penalty = 0.1, loot = { Loot("小丹", 0.5) } }
`

func minimalFS(content string) fstest.MapFS {
	return fstest.MapFS{
		"rules.lua":   {Data: []byte(minimalRules)},
		"content.lua": {Data: []byte(content)},
	}
}

func TestLoad_Minimal(t *testing.T) {
	tables, err := Load(minimalFS(minimalContent))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if tables.Rules.TrainCooldown != 10 || tables.Rules.DuelCooldown != 30 {
		t.Errorf("cooldowns = %d/%d", tables.Rules.TrainCooldown, tables.Rules.DuelCooldown)
	}
	if len(tables.Realms) != 2 {
		t.Fatalf("expected 2 realms, got %d", len(tables.Realms))
	}
	if tables.Realms[1].Name != "二" || !tables.Realms[1].ResetLevel {
		t.Errorf("realm order or reset flag wrong: %+v", tables.Realms[1])
	}
	if tables.Realms[0].TrainGain != [2]int{1, 2} {
		t.Errorf("gain = %v", tables.Realms[0].TrainGain)
	}

	p, ok := tables.Pill("小丹")
	if !ok {
		t.Fatal("pill 小丹 not found")
	}
	if p.Effect != types.EffectHeal || p.ID != "p1" {
		t.Errorf("pill = %+v", p)
	}
	if byID, ok := tables.PillByID("p1"); !ok || byID.Name != "小丹" {
		t.Errorf("PillByID = %+v, %v", byID, ok)
	}

	if tables.Kind("心法") != types.ItemTechnique {
		t.Errorf("Kind(心法) = %v", tables.Kind("心法"))
	}
	if tables.Kind("戒指") != types.ItemArtifact {
		t.Errorf("Kind(戒指) = %v", tables.Kind("戒指"))
	}
	if tables.Kind("nothing") != types.ItemUnknown {
		t.Error("unknown name should classify as ItemUnknown")
	}

	ev := tables.Events[0]
	if len(ev.Effects) != 2 || ev.Effects[0].Kind != types.EventQi || ev.Effects[1].Kind != types.EventPill {
		t.Errorf("event effects = %+v", ev.Effects)
	}

	d, ok := tables.Dungeon("洞")
	if !ok || len(d.Loot) != 1 || d.Loot[0].Chance != 0.5 {
		t.Errorf("dungeon = %+v", d)
	}
	if len(tables.Rules.LotteryTiers) != 1 || tables.Rules.LotteryTiers[0].Matches[0] != [2]int{5, 2} {
		t.Errorf("lottery tiers = %+v", tables.Rules.LotteryTiers)
	}
}

func TestLoad_UnknownEffectTag(t *testing.T) {
	content := strings.Replace(minimalContent, `effect = "heal"`, `effect = "teleport"`, 1)
	_, err := Load(minimalFS(content))
	if err == nil {
		t.Fatal("expected error for unknown effect tag")
	}
	if !strings.Contains(err.Error(), "teleport") {
		t.Errorf("error should name the tag, got: %v", err)
	}
}

func TestLoad_UnknownReference(t *testing.T) {
	content := strings.Replace(minimalContent, `Loot("小丹", 0.5)`, `Loot("幻丹", 0.5)`, 1)
	_, err := Load(minimalFS(content))
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertContains(t, ve.Errors, "幻丹")
}

func TestLoad_NoRules(t *testing.T) {
	_, err := Load(fstest.MapFS{"content.lua": {Data: []byte(minimalContent)}})
	if err == nil || !strings.Contains(err.Error(), "Rules") {
		t.Fatalf("expected missing Rules error, got %v", err)
	}
}

func TestLoad_Sandboxed(t *testing.T) {
	content := minimalContent + "\ndofile('/etc/passwd')\n"
	if _, err := Load(minimalFS(content)); err == nil {
		t.Fatal("dofile should not be callable")
	}
}

func TestLoad_RulesFirst(t *testing.T) {
	files := sortedLuaFiles([]string{"b.lua", "rules.lua", "a.lua"})
	want := []string{"rules.lua", "a.lua", "b.lua"}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("order = %v, want %v", files, want)
		}
	}
}

func TestDefault_Ladder(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if len(tables.Realms) != 13 {
		t.Fatalf("expected 13 realms, got %d", len(tables.Realms))
	}
	first := tables.Realm(0)
	if first.Name != "斗之气" || first.BaseQi != 50 || first.BreakthroughChance != 0.9 {
		t.Errorf("first realm = %+v", first)
	}
	if tables.Realm(99).Name != "主宰" {
		t.Errorf("Realm should clamp to the top, got %q", tables.Realm(99).Name)
	}
	if got := tables.Realm(10).AscensionItems; len(got) != 1 || got[0] != "帝品雏丹" {
		t.Errorf("斗帝 ascension items = %v", got)
	}
}

func TestDefault_EveryPillDispatches(t *testing.T) {
	tables := MustDefault()
	for _, p := range tables.Pills {
		if p.Effect == types.EffectUnknown {
			t.Errorf("pill %s has no effect kind", p.ID)
		}
		if p.Sale > p.Price {
			t.Errorf("pill %s sells for more than it costs", p.ID)
		}
	}
	if _, ok := tables.Pill("2品护脉丹"); !ok {
		t.Error("guard pill missing")
	}
}

func TestDefault_Lookups(t *testing.T) {
	tables := MustDefault()

	if got := tables.Rank("3品破障丹"); got != 3 {
		t.Errorf("Rank(3品破障丹) = %d, want 3", got)
	}
	if got := tables.SaleValue("黄阶功法"); got != 500 {
		t.Errorf("SaleValue(黄阶功法) = %d, want 500", got)
	}
	if got := tables.Price("空间戒指"); got != 5000 {
		t.Errorf("Price(空间戒指) = %d, want 5000", got)
	}
	if tables.Rules.SignInGold != 20 || tables.Rules.SignInQi != 30 {
		t.Errorf("sign-in rates = %d/%d", tables.Rules.SignInGold, tables.Rules.SignInQi)
	}
	if n := len(tables.PillsOfCategory("healing")); n < 3 {
		t.Errorf("expected at least 3 healing pills, got %d", n)
	}
	for _, p := range tables.PillsOfRank(1, 2) {
		if p.Rank > 2 {
			t.Errorf("PillsOfRank(1,2) returned rank %d", p.Rank)
		}
	}
	if _, ok := tables.StorageArtifact(); !ok {
		t.Error("no storage artifact")
	}
	tier, ok := tables.Tier("高级")
	if !ok || tier.Index != 2 || tier.RecommendedRealm != 3 {
		t.Errorf("tier 高级 = %+v", tier)
	}
}

func assertContains(t *testing.T, errs []string, substr string) {
	t.Helper()
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return
		}
	}
	t.Errorf("expected an error containing %q, got: %v", substr, errs)
}
