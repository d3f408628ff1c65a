// Package catalog loads the static progression tables from Lua data files.
// The tables are built once at startup and shared read-only by reference;
// nothing in the engine reaches for them as globals.
package catalog

import (
	"github.com/nathoo/dpcq/types"
)

// Tables is the immutable rule and item catalog.
type Tables struct {
	Rules      types.Rules
	Realms     []types.Realm
	Pills      []types.Pill
	Techniques []types.Technique
	Artifacts  []types.Artifact
	Tiers      []types.ExploreTier
	Events     []types.ExploreEvent
	Dungeons   []types.DungeonTier

	pillByName map[string]int
	pillByID   map[string]int
	techByName map[string]int
	artByName  map[string]int
	tierByName map[string]int
	dunByName  map[string]int
}

func (t *Tables) index() {
	t.pillByName = map[string]int{}
	t.pillByID = map[string]int{}
	for i, p := range t.Pills {
		t.pillByName[p.Name] = i
		t.pillByID[p.ID] = i
	}
	t.techByName = map[string]int{}
	for i, tech := range t.Techniques {
		t.techByName[tech.Name] = i
	}
	t.artByName = map[string]int{}
	for i, a := range t.Artifacts {
		t.artByName[a.Name] = i
	}
	t.tierByName = map[string]int{}
	for i, tier := range t.Tiers {
		t.tierByName[tier.Name] = i
	}
	t.dunByName = map[string]int{}
	for i, d := range t.Dungeons {
		t.dunByName[d.Name] = i
	}
}

// Realm returns the realm at index i, clamped to the ladder.
func (t *Tables) Realm(i int) types.Realm {
	if i < 0 {
		i = 0
	}
	if i >= len(t.Realms) {
		i = len(t.Realms) - 1
	}
	return t.Realms[i]
}

// LastRealm is the index of the top realm.
func (t *Tables) LastRealm() int {
	return len(t.Realms) - 1
}

// Pill looks a pill up by display name.
func (t *Tables) Pill(name string) (types.Pill, bool) {
	i, ok := t.pillByName[name]
	if !ok {
		return types.Pill{}, false
	}
	return t.Pills[i], true
}

// PillByID looks a pill up by catalog id.
func (t *Tables) PillByID(id string) (types.Pill, bool) {
	i, ok := t.pillByID[id]
	if !ok {
		return types.Pill{}, false
	}
	return t.Pills[i], true
}

// Technique looks a technique up by name.
func (t *Tables) Technique(name string) (types.Technique, bool) {
	i, ok := t.techByName[name]
	if !ok {
		return types.Technique{}, false
	}
	return t.Techniques[i], true
}

// Artifact looks an artifact up by name.
func (t *Tables) Artifact(name string) (types.Artifact, bool) {
	i, ok := t.artByName[name]
	if !ok {
		return types.Artifact{}, false
	}
	return t.Artifacts[i], true
}

// Tier looks an exploration tier up by name.
func (t *Tables) Tier(name string) (types.ExploreTier, bool) {
	i, ok := t.tierByName[name]
	if !ok {
		return types.ExploreTier{}, false
	}
	return t.Tiers[i], true
}

// Dungeon looks a dungeon tier up by name.
func (t *Tables) Dungeon(name string) (types.DungeonTier, bool) {
	i, ok := t.dunByName[name]
	if !ok {
		return types.DungeonTier{}, false
	}
	return t.Dungeons[i], true
}

// Kind classifies an item name.
func (t *Tables) Kind(name string) types.ItemKind {
	if _, ok := t.pillByName[name]; ok {
		return types.ItemPill
	}
	if _, ok := t.techByName[name]; ok {
		return types.ItemTechnique
	}
	if _, ok := t.artByName[name]; ok {
		return types.ItemArtifact
	}
	return types.ItemUnknown
}

// Rank returns the item's 品 rank. Techniques rank by grade order.
func (t *Tables) Rank(name string) int {
	if p, ok := t.Pill(name); ok {
		return p.Rank
	}
	if a, ok := t.Artifact(name); ok {
		return a.Rank
	}
	if tech, ok := t.Technique(name); ok {
		return gradeRank[tech.Grade]
	}
	return 0
}

var gradeRank = map[string]int{"黄阶": 3, "玄阶": 5, "地阶": 7, "天阶": 9}

// Price is the market buy price of an item, 0 if unknown.
func (t *Tables) Price(name string) int {
	if p, ok := t.Pill(name); ok {
		return p.Price
	}
	if tech, ok := t.Technique(name); ok {
		return tech.Price
	}
	if a, ok := t.Artifact(name); ok {
		return a.Price
	}
	return 0
}

// SaleValue is what the market pays for an item, 0 if unknown.
func (t *Tables) SaleValue(name string) int {
	if p, ok := t.Pill(name); ok {
		return p.Sale
	}
	if tech, ok := t.Technique(name); ok {
		return tech.Value
	}
	if a, ok := t.Artifact(name); ok {
		return a.Value
	}
	return 0
}

// Describe returns the catalog description of an item.
func (t *Tables) Describe(name string) string {
	if p, ok := t.Pill(name); ok {
		return p.Description
	}
	if tech, ok := t.Technique(name); ok {
		return tech.Description
	}
	if a, ok := t.Artifact(name); ok {
		return a.Description
	}
	return ""
}

// PillsOfCategory returns the category's pills in declaration order.
func (t *Tables) PillsOfCategory(category string) []types.Pill {
	var out []types.Pill
	for _, p := range t.Pills {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// PillsOfRank returns pills whose rank lies in [lo, hi].
func (t *Tables) PillsOfRank(lo, hi int) []types.Pill {
	var out []types.Pill
	for _, p := range t.Pills {
		if p.Rank >= lo && p.Rank <= hi {
			out = append(out, p)
		}
	}
	return out
}

// PillsOfEffect returns the pills dispatched to one handler.
func (t *Tables) PillsOfEffect(kind types.EffectKind) []types.Pill {
	var out []types.Pill
	for _, p := range t.Pills {
		if p.Effect == kind {
			out = append(out, p)
		}
	}
	return out
}

// StorageArtifact returns the first storage expander, used by market refreshes.
func (t *Tables) StorageArtifact() (types.Artifact, bool) {
	for _, a := range t.Artifacts {
		if a.Kind == "storage" {
			return a, true
		}
	}
	return types.Artifact{}, false
}

// ItemNames lists every known item name, pills first.
func (t *Tables) ItemNames() []string {
	out := make([]string, 0, len(t.Pills)+len(t.Techniques)+len(t.Artifacts))
	for _, p := range t.Pills {
		out = append(out, p.Name)
	}
	for _, tech := range t.Techniques {
		out = append(out, tech.Name)
	}
	for _, a := range t.Artifacts {
		out = append(out, a.Name)
	}
	return out
}
