package types

// EffectKind identifies a consumable's effect handler.
type EffectKind int

const (
	EffectUnknown EffectKind = iota
	EffectTrainBoost
	EffectTrainSafe
	EffectTrainImmune
	EffectTrainPerfect
	EffectTrainExtra
	EffectBreakthroughBoost
	EffectBreakthroughProtect
	EffectBattleStrength
	EffectBattleDefense
	EffectBattleAll
	EffectBattleDesperate
	EffectBattleInvincible
	EffectRestoreQi
	EffectHeal
	EffectRecover
	EffectRevive
	EffectAutoRevive
	EffectReincarnate
	EffectFullRevive
	EffectImmortal
	EffectLevelUp
	EffectRealmUp
	EffectExploreCooldown
	EffectPermHealth
)

var effectTags = map[EffectKind]string{
	EffectTrainBoost:          "train_boost",
	EffectTrainSafe:           "train_safe",
	EffectTrainImmune:         "train_immune",
	EffectTrainPerfect:        "train_perfect",
	EffectTrainExtra:          "train_extra",
	EffectBreakthroughBoost:   "breakthrough_boost",
	EffectBreakthroughProtect: "breakthrough_protect",
	EffectBattleStrength:      "battle_strength",
	EffectBattleDefense:       "battle_defense",
	EffectBattleAll:           "battle_all",
	EffectBattleDesperate:     "battle_desperate",
	EffectBattleInvincible:    "battle_invincible",
	EffectRestoreQi:           "restore_qi",
	EffectHeal:                "heal",
	EffectRecover:             "recover",
	EffectRevive:              "revive",
	EffectAutoRevive:          "auto_revive",
	EffectReincarnate:         "reincarnate",
	EffectFullRevive:          "full_revive",
	EffectImmortal:            "immortal",
	EffectLevelUp:             "level_up",
	EffectRealmUp:             "realm_up",
	EffectExploreCooldown:     "explore_cd",
	EffectPermHealth:          "perm_health",
}

func (k EffectKind) String() string {
	if tag, ok := effectTags[k]; ok {
		return tag
	}
	return "unknown"
}

// ParseEffectKind maps a catalog effect tag to its kind.
func ParseEffectKind(tag string) (EffectKind, bool) {
	for k, t := range effectTags {
		if t == tag {
			return k, true
		}
	}
	return EffectUnknown, false
}

// EventEffectKind identifies an exploration sub-effect.
type EventEffectKind int

const (
	EventUnknown EventEffectKind = iota
	EventQi
	EventGold
	EventPill
	EventTechnique
	EventDamage
	EventBeast
	EventItem
)

var eventKindNames = map[EventEffectKind]string{
	EventQi:        "qi",
	EventGold:      "gold",
	EventPill:      "pill",
	EventTechnique: "technique",
	EventDamage:    "damage",
	EventBeast:     "beast",
	EventItem:      "item",
}

func (k EventEffectKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseEventEffectKind maps a catalog sub-effect name to its kind.
func ParseEventEffectKind(name string) (EventEffectKind, bool) {
	for k, n := range eventKindNames {
		if n == name {
			return k, true
		}
	}
	return EventUnknown, false
}

// BoostTag keys a player's temporary boost.
type BoostTag string

const (
	BoostTrain        BoostTag = "train_boost"
	BoostTrainSafe    BoostTag = "train_safe"
	BoostTrainImmune  BoostTag = "train_immune"
	BoostTrainExtra   BoostTag = "train_extra"
	BoostBreakthrough BoostTag = "breakthrough"
	BoostGuard        BoostTag = "breakthrough_guard"
	BoostStrength     BoostTag = "strength"
	BoostDefense      BoostTag = "defense"
	BoostAll          BoostTag = "all"
	BoostDesperate    BoostTag = "desperate"
	BoostInvincible   BoostTag = "invincible"
	BoostAutoRevive   BoostTag = "auto_revive"
	BoostReincarnate  BoostTag = "reincarnate"
	BoostImmortal     BoostTag = "immortal"
	BoostExploreCD    BoostTag = "explore_cd"
)

// ItemKind classifies an inventory item name against the catalog.
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemPill
	ItemTechnique
	ItemArtifact
)

func (k ItemKind) String() string {
	switch k {
	case ItemPill:
		return "pill"
	case ItemTechnique:
		return "technique"
	case ItemArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}
