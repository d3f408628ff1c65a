package catalog

import (
	"fmt"

	"github.com/nathoo/dpcq/types"
	lua "github.com/yuin/gopher-lua"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns the array part of a table field as strings.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	var out []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// getWeights converts a string-keyed table of numbers.
func getWeights(tbl *lua.LTable, key string) map[string]float64 {
	t := getTable(tbl, key)
	if t == nil {
		return nil
	}
	m := map[string]float64{}
	t.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(ks)] = float64(n)
		}
	})
	return m
}

// arrayTables returns the table elements of an array-like table in order.
func arrayTables(tbl *lua.LTable) []*lua.LTable {
	if tbl == nil {
		return nil
	}
	var out []*lua.LTable
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, t)
		}
	}
	return out
}

// compile converts all collected Lua data into Tables.
func compile(coll *collector) (*Tables, error) {
	if coll.rules == nil {
		return nil, fmt.Errorf("no Rules{} definition found")
	}
	t := &Tables{Rules: compileRules(coll.rules)}

	for _, raw := range coll.realms {
		t.Realms = append(t.Realms, compileRealm(raw))
	}
	for _, raw := range coll.pills {
		pill, err := compilePill(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling pill %s: %w", raw.name, err)
		}
		t.Pills = append(t.Pills, pill)
	}
	for _, raw := range coll.techs {
		t.Techniques = append(t.Techniques, compileTechnique(raw))
	}
	for _, raw := range coll.artifacts {
		t.Artifacts = append(t.Artifacts, types.Artifact{
			Name:        raw.name,
			Kind:        getString(raw.table, "kind"),
			Capacity:    getInt(raw.table, "capacity"),
			Rank:        getInt(raw.table, "rank"),
			Value:       getInt(raw.table, "value"),
			Price:       getInt(raw.table, "price"),
			Description: getString(raw.table, "description"),
		})
	}
	for i, raw := range coll.tiers {
		t.Tiers = append(t.Tiers, types.ExploreTier{
			Name:             raw.name,
			Index:            i,
			RecommendedRealm: getInt(raw.table, "recommended"),
			Danger:           getNumber(raw.table, "danger"),
			RewardFactor:     getNumber(raw.table, "reward"),
		})
	}
	for _, raw := range coll.events {
		ev, err := compileEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling event %s: %w", raw.name, err)
		}
		t.Events = append(t.Events, ev)
	}
	for _, raw := range coll.dungeons {
		t.Dungeons = append(t.Dungeons, compileDungeon(raw))
	}
	return t, nil
}

func compileRules(tbl *lua.LTable) types.Rules {
	r := types.Rules{
		ReviveGrace:  getInt(tbl, "revive_grace"),
		RescueCost:   getInt(tbl, "rescue_cost"),
		BaseCapacity: getInt(tbl, "base_capacity"),
		StartGold:    getInt(tbl, "start_gold"),
		StarterItems: getStrings(tbl, "starter_items"),
	}
	if cd := getTable(tbl, "cooldowns"); cd != nil {
		r.TrainCooldown = getInt(cd, "train")
		r.ExploreCooldown = getInt(cd, "explore")
		r.DuelCooldown = getInt(cd, "duel")
	}
	if s := getTable(tbl, "sign_in"); s != nil {
		r.SignInGold = getInt(s, "gold")
		r.SignInQi = getInt(s, "qi")
	}
	if m := getTable(tbl, "market"); m != nil {
		r.MarketSize = getInt(m, "size")
		r.MarketInterval = getInt(m, "interval")
		r.StorageChance = getNumber(m, "storage_chance")
	}
	if a := getTable(tbl, "auction"); a != nil {
		r.AuctionInterval = getInt(a, "interval")
		r.AuctionSlots = getInt(a, "slots")
		r.AuctionMinRank = getInt(a, "min_rank")
		r.QuickWinWindow = getInt(a, "quick_win")
	}
	if l := getTable(tbl, "lottery"); l != nil {
		r.LotteryInterval = getInt(l, "interval")
		r.LotteryPrice = getInt(l, "price")
		r.LotteryMainRange = getInt(l, "main_range")
		r.LotterySpecialRange = getInt(l, "special_range")
		r.LotteryMaxTickets = getInt(l, "max_tickets")
		r.LotterySeed = getInt(l, "seed")
		r.LotteryHistory = getInt(l, "history")
		for _, tt := range arrayTables(getTable(l, "tiers")) {
			tier := types.LotteryTier{
				Name:  getString(tt, "name"),
				Share: getNumber(tt, "share"),
			}
			for _, m := range arrayTables(getTable(tt, "matches")) {
				main, _ := m.RawGetInt(1).(lua.LNumber)
				special, _ := m.RawGetInt(2).(lua.LNumber)
				tier.Matches = append(tier.Matches, [2]int{int(main), int(special)})
			}
			r.LotteryTiers = append(r.LotteryTiers, tier)
		}
	}
	if q := getTable(tbl, "requests"); q != nil {
		r.DuelTTL = getInt(q, "duel_ttl")
		r.TradeTTL = getInt(q, "trade_ttl")
		r.DungeonTTL = getInt(q, "dungeon_ttl")
		r.PartySize = getInt(q, "party_size")
	}
	if s := getTable(tbl, "ruler"); s != nil {
		r.RulerMinRealm = getInt(s, "min_realm")
		r.RulerBaselinePower = getInt(s, "baseline_power")
		r.RulerReward = getInt(s, "reward")
	}
	if b := getTable(tbl, "boss"); b != nil {
		r.BossHealth = getInt(b, "health")
		r.BossGoldRate = getNumber(b, "gold_rate")
		r.BossKillReward = getInt(b, "kill_reward")
		r.BossKillItem = getString(b, "kill_item")
	}
	return r
}

func compileRealm(raw rawDef) types.Realm {
	tbl := raw.table
	realm := types.Realm{
		Name:               raw.name,
		Title:              getString(tbl, "title"),
		Levels:             getInt(tbl, "levels"),
		BreakthroughChance: getNumber(tbl, "chance"),
		BaseQi:             getInt(tbl, "base_qi"),
		AscensionItems:     getStrings(tbl, "ascension_items"),
		ResetLevel:         getBool(tbl, "reset_level", false),
	}
	if gain := getTable(tbl, "gain"); gain != nil {
		lo, _ := gain.RawGetInt(1).(lua.LNumber)
		hi, _ := gain.RawGetInt(2).(lua.LNumber)
		realm.TrainGain = [2]int{int(lo), int(hi)}
	}
	return realm
}

func compilePill(raw rawDef) (types.Pill, error) {
	tbl := raw.table
	tag := getString(tbl, "effect")
	kind, ok := types.ParseEffectKind(tag)
	if !ok {
		return types.Pill{}, fmt.Errorf("unknown effect tag %q", tag)
	}
	return types.Pill{
		ID:          raw.name,
		Name:        getString(tbl, "name"),
		Category:    getString(tbl, "category"),
		Rank:        getInt(tbl, "rank"),
		Effect:      kind,
		Value:       getNumber(tbl, "value"),
		Duration:    getInt(tbl, "duration"),
		Price:       getInt(tbl, "price"),
		Sale:        getInt(tbl, "sale"),
		Description: getString(tbl, "description"),
		Assist:      getBool(tbl, "assist", false),
	}, nil
}

func compileTechnique(raw rawDef) types.Technique {
	tbl := raw.table
	return types.Technique{
		Name:        raw.name,
		Grade:       getString(tbl, "grade"),
		Slot:        getString(tbl, "slot"),
		TrainBoost:  getNumber(tbl, "train"),
		PowerBoost:  getNumber(tbl, "power"),
		Value:       getInt(tbl, "value"),
		Price:       getInt(tbl, "price"),
		Weight:      getNumber(tbl, "weight"),
		Description: getString(tbl, "description"),
	}
}

func compileEvent(raw rawDef) (types.ExploreEvent, error) {
	tbl := raw.table
	ev := types.ExploreEvent{
		Name:        raw.name,
		Description: getString(tbl, "description"),
		Weight:      getNumber(tbl, "weight"),
		Beast:       getBool(tbl, "beast", false),
	}
	for i, et := range arrayTables(getTable(tbl, "effects")) {
		name := getString(et, "kind")
		kind, ok := types.ParseEventEffectKind(name)
		if !ok {
			return ev, fmt.Errorf("effect %d: unknown kind %q", i+1, name)
		}
		ev.Effects = append(ev.Effects, types.EventEffect{
			Kind:           kind,
			Text:           getString(et, "text"),
			Chance:         getNumber(et, "chance"),
			ChanceStep:     getNumber(et, "chance_step"),
			Base:           getNumber(et, "base"),
			Step:           getNumber(et, "step"),
			Min:            getInt(et, "min"),
			Max:            getInt(et, "max"),
			TierOffset:     getNumber(et, "tier_offset"),
			TierStep:       getNumber(et, "tier_step"),
			TierExp:        getInt(et, "tier_exp"),
			RealmScale:     getNumber(et, "realm_scale"),
			RealmExp:       getInt(et, "realm_exp"),
			HealthFraction: getNumber(et, "health_fraction"),
			Category:       getString(et, "category"),
			Count:          getInt(et, "count"),
			CountStep:      getInt(et, "count_step"),
			CountExp:       getInt(et, "count_exp"),
			Weights:        getWeights(et, "weights"),
			HighWeights:    getWeights(et, "high_weights"),
			Item:           getString(et, "item"),
			WinChance:      getNumber(et, "win_chance"),
			LoseItemChance: getNumber(et, "lose_item_chance"),
			LoseItemStep:   getNumber(et, "lose_item_step"),
		})
	}
	return ev, nil
}

func compileDungeon(raw rawDef) types.DungeonTier {
	tbl := raw.table
	d := types.DungeonTier{
		Name:        raw.name,
		Tier:        getInt(tbl, "tier"),
		MinRealm:    getInt(tbl, "min_realm"),
		BossPower:   getInt(tbl, "boss_power"),
		Gold:        getInt(tbl, "gold"),
		PenaltyRate: getNumber(tbl, "penalty"),
	}
	for _, lt := range arrayTables(getTable(tbl, "loot")) {
		d.Loot = append(d.Loot, types.LootEntry{
			Item:   getString(lt, "item"),
			Chance: getNumber(lt, "chance"),
		})
	}
	return d
}
