package catalog

import (
	"fmt"
	"strings"

	"github.com/nathoo/dpcq/types"
)

// ValidationError collects every problem found in a catalog.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// validate checks the compiled tables for referential integrity.
func validate(t *Tables) error {
	ve := &ValidationError{}

	if len(t.Realms) == 0 {
		ve.add("at least one Realm is required")
	}
	for i, r := range t.Realms {
		if r.Levels < 1 {
			ve.add("realm %q needs at least one level", r.Name)
		}
		if r.BaseQi <= 0 {
			ve.add("realm %q base_qi must be positive", r.Name)
		}
		if r.TrainGain[0] <= 0 || r.TrainGain[1] < r.TrainGain[0] {
			ve.add("realm %q has invalid gain range %v", r.Name, r.TrainGain)
		}
		if r.BreakthroughChance < 0 || r.BreakthroughChance > 1 {
			ve.add("realm %q chance %.2f outside [0,1]", r.Name, r.BreakthroughChance)
		}
		if i == len(t.Realms)-1 && len(r.AscensionItems) > 0 {
			ve.add("last realm %q cannot require ascension items", r.Name)
		}
	}

	// Item names share one namespace across pills, techniques and artifacts.
	names := map[string]string{}
	claim := func(name, what string) {
		if name == "" {
			ve.add("%s with empty name", what)
			return
		}
		if prev, ok := names[name]; ok {
			ve.add("duplicate item name %q (%s and %s)", name, prev, what)
			return
		}
		names[name] = what
	}
	ids := map[string]bool{}
	categories := map[string]int{}
	for _, p := range t.Pills {
		claim(p.Name, "pill "+p.ID)
		if ids[p.ID] {
			ve.add("duplicate pill id %q", p.ID)
		}
		ids[p.ID] = true
		if p.Effect == types.EffectUnknown {
			ve.add("pill %q has no effect", p.ID)
		}
		if p.Rank < 1 || p.Rank > 9 {
			ve.add("pill %q rank %d outside 1..9", p.ID, p.Rank)
		}
		categories[p.Category]++
	}
	for _, tech := range t.Techniques {
		claim(tech.Name, "technique")
		if tech.Slot == "" {
			ve.add("technique %q has no slot", tech.Name)
		}
		if tech.TrainBoost <= 0 || tech.PowerBoost <= 0 {
			ve.add("technique %q boosts must be positive", tech.Name)
		}
	}
	storage := false
	for _, a := range t.Artifacts {
		claim(a.Name, "artifact")
		switch a.Kind {
		case "storage":
			storage = true
			if a.Capacity <= 0 {
				ve.add("storage artifact %q needs a capacity", a.Name)
			}
		case "material":
		default:
			ve.add("artifact %q has unknown kind %q", a.Name, a.Kind)
		}
	}
	if !storage {
		ve.add("a storage artifact is required")
	}

	ref := func(name, where string) {
		if _, ok := names[name]; !ok {
			ve.add("%s references unknown item %q", where, name)
		}
	}
	for _, r := range t.Realms {
		for _, item := range r.AscensionItems {
			ref(item, "realm "+r.Name)
		}
	}
	for _, item := range t.Rules.StarterItems {
		ref(item, "starter_items")
	}
	if t.Rules.BossKillItem != "" {
		ref(t.Rules.BossKillItem, "boss kill_item")
	}

	if len(t.Tiers) == 0 {
		ve.add("at least one explore Tier is required")
	}
	if len(t.Events) == 0 {
		ve.add("at least one explore Event is required")
	}
	for _, ev := range t.Events {
		if ev.Weight <= 0 {
			ve.add("event %q weight must be positive", ev.Name)
		}
		for _, eff := range ev.Effects {
			where := "event " + ev.Name
			switch eff.Kind {
			case types.EventPill:
				if categories[eff.Category] == 0 {
					ve.add("%s draws from empty pill category %q", where, eff.Category)
				}
			case types.EventTechnique:
				if len(eff.Weights) == 0 {
					ve.add("%s technique effect has no weights", where)
				}
				for name := range eff.Weights {
					ref(name, where)
				}
				for name := range eff.HighWeights {
					ref(name, where)
				}
			case types.EventBeast, types.EventItem:
				ref(eff.Item, where)
			}
		}
	}

	for _, d := range t.Dungeons {
		if d.BossPower <= 0 {
			ve.add("dungeon %q boss_power must be positive", d.Name)
		}
		for _, l := range d.Loot {
			ref(l.Item, "dungeon "+d.Name)
		}
	}

	share := 0.0
	for _, tier := range t.Rules.LotteryTiers {
		share += tier.Share
		if len(tier.Matches) == 0 {
			ve.add("lottery tier %q has no match pairs", tier.Name)
		}
	}
	if share > 1.0001 {
		ve.add("lottery shares sum to %.2f, more than the pool", share)
	}
	if t.Rules.LotteryMainRange < 5 || t.Rules.LotterySpecialRange < 2 {
		ve.add("lottery ranges too small for a 5+2 ticket")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
