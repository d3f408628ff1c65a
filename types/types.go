// Package types defines the shared data structures for the dpcq engine.
// This package contains only type definitions and enum helpers, no game logic.
package types

// Realm is one tier of the cultivation ladder. Its index in the ladder is its rank.
type Realm struct {
	Name               string
	Title              string
	Levels             int // star count
	BreakthroughChance float64
	BaseQi             int
	TrainGain          [2]int   // inclusive range
	AscensionItems     []string // consumed to pass the star cap
	ResetLevel         bool     // breakthrough into this realm starts at level 1
}

// Pill is a static consumable catalog entry.
type Pill struct {
	ID          string
	Name        string
	Category    string
	Rank        int // 1..9, "品"
	Effect      EffectKind
	Value       float64
	Duration    int // seconds, 0 = instantaneous
	Price       int
	Sale        int
	Description string
	Assist      bool // removed from inventory on a successful breakthrough
}

// Technique is an equippable passive multiplier.
type Technique struct {
	Name        string
	Grade       string
	Slot        string // techniques sharing a slot are mutually exclusive
	TrainBoost  float64
	PowerBoost  float64
	Value       int
	Price       int
	Weight      float64 // market/reward sampling weight
	Description string
}

// Artifact is a non-consumable item: storage expanders and materials.
type Artifact struct {
	Name        string
	Kind        string // "storage" or "material"
	Capacity    int
	Rank        int
	Value       int
	Price       int
	Description string
}

// ExploreTier is an exploration difficulty.
type ExploreTier struct {
	Name             string
	Index            int
	RecommendedRealm int
	Danger           float64
	RewardFactor     float64
}

// EventEffect is one sub-effect of an exploration event.
type EventEffect struct {
	Kind       EventEffectKind
	Text       string
	Chance     float64 // 0 means always fires
	ChanceStep float64 // added per tier index

	// qi: required_qi × (Base + Step × tier²)
	Base float64
	Step float64

	// gold / damage: random in [Min, Max], scaled by
	// (TierOffset + TierStep × tier^TierExp) × RealmScale × realm^RealmExp.
	// A zero tier term or a zero RealmScale scales by 1.
	Min        int
	Max        int
	TierOffset float64
	TierStep   float64
	TierExp    int
	RealmScale float64
	RealmExp   int

	HealthFraction float64

	// pill: random pick among the first Count + CountStep × tier^CountExp pills of Category
	Category  string
	Count     int
	CountStep int
	CountExp  int

	// technique: weights by technique name; HighWeights replaces them on the top tier
	Weights     map[string]float64
	HighWeights map[string]float64

	// beast / item
	Item           string
	WinChance      float64
	LoseItemChance float64
	LoseItemStep   float64
}

// ExploreEvent is a weighted exploration outcome.
type ExploreEvent struct {
	Name        string
	Description string
	Weight      float64
	Beast       bool
	Effects     []EventEffect
}

// LootEntry is an independent drop roll.
type LootEntry struct {
	Item   string
	Chance float64
}

// DungeonTier is a scripted dungeon encounter.
type DungeonTier struct {
	Name        string
	Tier        int
	MinRealm    int
	BossPower   int
	Gold        int
	PenaltyRate float64
	Loot        []LootEntry
}

// LotteryTier is one prize bracket. A ticket qualifies when its match counts
// equal one of the (main, special) pairs.
type LotteryTier struct {
	Name    string
	Share   float64
	Matches [][2]int
}

// Rules holds tunable constants for cooldowns and the world economy.
type Rules struct {
	TrainCooldown   int
	ExploreCooldown int
	DuelCooldown    int
	ReviveGrace     int
	RescueCost      int
	SignInGold      int
	SignInQi        int

	BaseCapacity int
	StartGold    int
	StarterItems []string

	MarketSize     int
	MarketInterval int
	StorageChance  float64

	AuctionInterval int
	AuctionSlots    int
	AuctionMinRank  int
	QuickWinWindow  int

	LotteryInterval     int
	LotteryPrice        int
	LotteryMainRange    int
	LotterySpecialRange int
	LotteryMaxTickets   int
	LotterySeed         int
	LotteryHistory      int
	LotteryTiers        []LotteryTier

	DuelTTL    int
	TradeTTL   int
	DungeonTTL int
	PartySize  int

	RulerMinRealm      int
	RulerBaselinePower int
	RulerReward        int

	BossHealth     int
	BossGoldRate   float64
	BossKillReward int
	BossKillItem   string
}

// Intent is the parsed representation of a chat command.
type Intent struct {
	Verb string
	Args []string
}

// Event is emitted by the engine after a state change.
type Event struct {
	Type     string
	GroupID  string
	PlayerID string
	Data     map[string]any
}
