package player

import (
	"testing"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/types"
)

const now = int64(1_700_000_000)

func fresh(t *testing.T) (*Player, *catalog.Tables) {
	t.Helper()
	tables := catalog.MustDefault()
	return New("u1", "萧炎", tables, now), tables
}

func TestNew_Defaults(t *testing.T) {
	p, tables := fresh(t)

	if p.Realm != 0 || p.Level != 1 || p.Qi != 0 {
		t.Errorf("progress = %d/%d/%d", p.Realm, p.Level, p.Qi)
	}
	if p.RequiredQi != 50 {
		t.Errorf("RequiredQi = %d, want 50", p.RequiredQi)
	}
	if p.MaxHealth != 100 || p.Health != 100 {
		t.Errorf("health = %d/%d, want 100/100", p.Health, p.MaxHealth)
	}
	if p.Gold != tables.Rules.StartGold {
		t.Errorf("Gold = %d", p.Gold)
	}
	if p.CountItem("1品聚气丹") != 2 || p.CountItem("1品疗伤丹") != 1 {
		t.Errorf("starter items = %v", p.Inventory)
	}
}

func TestRequiredFor(t *testing.T) {
	tables := catalog.MustDefault()
	tests := []struct {
		realm, level, want int
	}{
		{0, 1, 50},
		{0, 3, 60},
		{1, 1, 200},
		{1, 10, 380},
		{3, 5, 700},
	}
	for _, tt := range tests {
		if got := RequiredFor(tables, tt.realm, tt.level); got != tt.want {
			t.Errorf("RequiredFor(%d,%d) = %d, want %d", tt.realm, tt.level, got, tt.want)
		}
	}
}

func TestHeal_CappedAndNotWhileDying(t *testing.T) {
	p, _ := fresh(t)
	p.Health = 95
	if got := p.Heal(10); got != 5 || p.Health != 100 {
		t.Errorf("Heal = %d, health = %d", got, p.Health)
	}

	p.TakeDamage(1000, now)
	if !p.Dying {
		t.Fatal("expected dying")
	}
	if got := p.Heal(50); got != 0 || p.Health != 0 {
		t.Errorf("dying player healed: %d, health %d", got, p.Health)
	}
}

func TestTakeDamage_Dying(t *testing.T) {
	p, _ := fresh(t)
	p.AutoTrain = true

	dmg := p.TakeDamage(150, now)
	if !dmg.Dying || !p.Dying || p.Health != 0 {
		t.Fatalf("damage = %+v, player dying=%v health=%d", dmg, p.Dying, p.Health)
	}
	if dmg.Dealt != 100 {
		t.Errorf("Dealt = %d, want 100", dmg.Dealt)
	}
	if p.DeathTime != now {
		t.Errorf("DeathTime = %d", p.DeathTime)
	}
	if p.AutoTrain {
		t.Error("auto-train should stop on death")
	}
}

func TestTakeDamage_AutoRevive(t *testing.T) {
	p, _ := fresh(t)
	p.ApplyBoost(types.BoostAutoRevive, 1, 60, now)

	dmg := p.TakeDamage(500, now)
	if dmg.Dying || p.Dying {
		t.Fatal("auto-revive should prevent dying")
	}
	if dmg.Saved != types.BoostAutoRevive {
		t.Errorf("Saved = %q", dmg.Saved)
	}
	if p.Health != 30 {
		t.Errorf("Health = %d, want 30", p.Health)
	}
	if _, ok := p.Boost(types.BoostAutoRevive, now); ok {
		t.Error("auto-revive boost should be consumed")
	}
}

func TestTakeDamage_ReincarnateFull(t *testing.T) {
	p, _ := fresh(t)
	p.ApplyBoost(types.BoostReincarnate, 1, 60, now)
	p.TakeDamage(500, now)
	if p.Dying || p.Health != p.MaxHealth {
		t.Errorf("reincarnate: dying=%v health=%d", p.Dying, p.Health)
	}
}

func TestTakeDamage_Immortal(t *testing.T) {
	p, _ := fresh(t)
	p.ApplyBoost(types.BoostImmortal, 1, 60, now)
	p.TakeDamage(10_000, now)
	if p.Dying || p.Health != 1 {
		t.Errorf("immortal: dying=%v health=%d", p.Dying, p.Health)
	}

	// Expired boosts do nothing.
	p.TakeDamage(10, now+61)
	if !p.Dying {
		t.Error("expired immortal boost should not protect")
	}
}

func TestAddItem_Capacity(t *testing.T) {
	p, tables := fresh(t)
	for p.AddItem(tables, "1品回气丹") {
	}
	if len(p.Inventory) != tables.Rules.BaseCapacity {
		t.Fatalf("inventory = %d, want %d", len(p.Inventory), tables.Rules.BaseCapacity)
	}
	before := len(p.Inventory)
	if p.AddItem(tables, "1品回气丹") {
		t.Error("add beyond capacity accepted")
	}
	if len(p.Inventory) != before {
		t.Error("rejected add changed the inventory")
	}

	// A storage ring raises capacity by 5.
	p.RemoveItem("1品回气丹")
	p.AddItem(tables, "空间戒指")
	if got := p.Capacity(tables); got != tables.Rules.BaseCapacity+5 {
		t.Errorf("Capacity with ring = %d", got)
	}
	if got := p.AddItems(tables, "1品回气丹", 10); got != 5 {
		t.Errorf("AddItems fit %d, want 5", got)
	}
}

func TestLoseItem_LowestRank(t *testing.T) {
	p, tables := fresh(t)
	p.Inventory = []string{"5品不死丹", "3品破障丹", "1品疗伤丹", "2品回魂丹"}
	item, ok := p.LoseItem(tables)
	if !ok || item != "1品疗伤丹" {
		t.Errorf("LoseItem = %q, %v", item, ok)
	}
	if len(p.Inventory) != 3 {
		t.Errorf("inventory = %v", p.Inventory)
	}
}

func TestLoseItem_KeepsStorageRingWhenFull(t *testing.T) {
	p, tables := fresh(t)
	p.Inventory = []string{"空间戒指"}
	for p.AddItem(tables, "5品不死丹") {
	}
	if got, want := len(p.Inventory), tables.Rules.BaseCapacity+5; got != want {
		t.Fatalf("inventory = %d, want %d", got, want)
	}

	item, ok := p.LoseItem(tables)
	if !ok || item != "5品不死丹" {
		t.Errorf("LoseItem = %q, %v", item, ok)
	}
	if !p.HasItem("空间戒指") {
		t.Error("storage ring was dropped")
	}
	if len(p.Inventory) > p.Capacity(tables) {
		t.Errorf("inventory %d exceeds capacity %d", len(p.Inventory), p.Capacity(tables))
	}

	// With room to spare the ring is just the lowest-rank item.
	p.Inventory = []string{"空间戒指", "5品不死丹"}
	if item, _ := p.LoseItem(tables); item != "空间戒指" {
		t.Errorf("LoseItem with room = %q", item)
	}
}

func TestBoosts_OverwriteAndExpire(t *testing.T) {
	p, _ := fresh(t)
	p.ApplyBoost(types.BoostTrain, 0.1, 100, now)
	p.ApplyBoost(types.BoostTrain, 0.3, 10, now)
	if v, ok := p.Boost(types.BoostTrain, now+5); !ok || v != 0.3 {
		t.Errorf("overwrite: %v %v", v, ok)
	}
	if _, ok := p.Boost(types.BoostTrain, now+10); ok {
		t.Error("boost active at its expiry")
	}
	p.PruneBoosts(now + 10)
	if len(p.Boosts) != 0 {
		t.Errorf("prune left %v", p.Boosts)
	}
}

func TestEquip_ReplacesSameSlot(t *testing.T) {
	p, tables := fresh(t)
	p.AddItem(tables, "黄阶功法")
	p.AddItem(tables, "玄阶功法")
	p.AddItem(tables, "八极崩")

	if d, err := p.Equip(tables, "黄阶功法"); err != nil || d != "" {
		t.Fatalf("first equip: %q %v", d, err)
	}
	if _, err := p.Equip(tables, "八极崩"); err != nil {
		t.Fatalf("combat equip: %v", err)
	}
	d, err := p.Equip(tables, "玄阶功法")
	if err != nil || d != "黄阶功法" {
		t.Fatalf("replace: %q %v", d, err)
	}
	if !p.HasItem("黄阶功法") || p.HasItem("玄阶功法") {
		t.Errorf("inventory after replace = %v", p.Inventory)
	}
	if len(p.Equipped) != 2 {
		t.Errorf("equipped = %v", p.Equipped)
	}

	if _, err := p.Equip(tables, "1品疗伤丹"); err == nil {
		t.Error("equipping a pill should fail")
	}
}

func TestGainQi_LevelUpRollover(t *testing.T) {
	p, tables := fresh(t)
	res := p.GainQi(tables, 55)
	if res.Gained != 1 || p.Level != 2 {
		t.Fatalf("Gained = %d, level = %d", res.Gained, p.Level)
	}
	if p.Qi != 5 {
		t.Errorf("Qi = %d, want 5", p.Qi)
	}
	if p.RequiredQi != 55 {
		t.Errorf("RequiredQi = %d, want 55", p.RequiredQi)
	}
	if res.Ready {
		t.Error("level 2 is not breakthrough-ready")
	}
}

func TestGainQi_StopsPastCap(t *testing.T) {
	p, tables := fresh(t)
	p.Level = 10
	p.RecomputeRequiredQi(tables)

	res := p.GainQi(tables, 1_000_000)
	if p.Level != 11 || !res.Ready {
		t.Fatalf("level = %d, ready = %v", p.Level, res.Ready)
	}
	if !p.CanBreakthrough(tables) {
		t.Error("should be able to break through")
	}
}

func TestLevelUp_AscensionRollback(t *testing.T) {
	p, tables := fresh(t)
	p.Realm = 10
	p.Level = 10
	p.RecomputeRequiredQi(tables)
	p.Qi = p.RequiredQi

	res := p.GainQi(tables, 0)
	if !res.RolledBack || len(res.Missing) != 1 || res.Missing[0] != "帝品雏丹" {
		t.Fatalf("result = %+v", res)
	}
	if p.Level != 10 || p.Qi != p.RequiredQi-1 {
		t.Errorf("after rollback level=%d qi=%d required=%d", p.Level, p.Qi, p.RequiredQi)
	}
	if p.CanBreakthrough(tables) {
		t.Error("gated realm should not allow breakthrough before passing the cap")
	}

	p.AddItem(tables, "帝品雏丹")
	p.Qi = p.RequiredQi
	res = p.GainQi(tables, 0)
	if res.RolledBack || !res.Ready || p.Level != 11 {
		t.Fatalf("with material: %+v level %d", res, p.Level)
	}
	if p.HasItem("帝品雏丹") {
		t.Error("ascension material should be consumed")
	}
}

func TestEnterNextRealm(t *testing.T) {
	p, tables := fresh(t)
	p.Level = 11
	p.Qi = 30
	p.EnterNextRealm(tables)
	if p.Realm != 1 || p.Level != 2 || p.Qi != 0 {
		t.Errorf("realm/level/qi = %d/%d/%d", p.Realm, p.Level, p.Qi)
	}
	if p.MaxHealth != 110 {
		t.Errorf("MaxHealth = %d, want 110", p.MaxHealth)
	}
	if p.RequiredQi != RequiredFor(tables, 1, 2) {
		t.Errorf("RequiredQi = %d", p.RequiredQi)
	}
}

func TestOverallLevel(t *testing.T) {
	p, tables := fresh(t)
	if got := p.OverallLevel(tables); got != 1 {
		t.Errorf("new player overall level = %d", got)
	}
	p.Realm, p.Level = 2, 4
	want := tables.Realm(0).Levels + tables.Realm(1).Levels + 4
	if got := p.OverallLevel(tables); got != want {
		t.Errorf("OverallLevel = %d, want %d", got, want)
	}
}

func TestPower(t *testing.T) {
	p, tables := fresh(t)
	p.Realm = 2
	p.Level = 3
	// 50*10 + 200*10 + 300*3
	if got := p.Power(tables, now); got != 3400 {
		t.Errorf("Power = %d, want 3400", got)
	}

	p.Equipped = []string{"玄阶功法"}
	p.ApplyBoost(types.BoostStrength, 0.5, 60, now)
	want := int(3400 * 1.2 * 1.5)
	if got := p.Power(tables, now); got != want {
		t.Errorf("boosted Power = %d, want %d", got, want)
	}
}

func TestPower_DesperateOnlyWhenLow(t *testing.T) {
	p, tables := fresh(t)
	p.ApplyBoost(types.BoostDesperate, 1.0, 60, now)
	full := p.Power(tables, now)
	p.Health = 20
	if got := p.Power(tables, now); got != full*2 {
		t.Errorf("desperate Power = %d, want %d", got, full*2)
	}
}

func TestAdvanceRealm_ClampsToTop(t *testing.T) {
	p, tables := fresh(t)
	p.Realm = tables.LastRealm()
	if got := p.AdvanceRealm(tables, 1); got != 0 {
		t.Errorf("advanced %d past the top", got)
	}
}
