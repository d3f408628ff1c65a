package catalog

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the catalog constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Rules { ... }
	L.SetGlobal("Rules", L.NewFunction(func(L *lua.LState) int {
		coll.rules = L.CheckTable(1)
		return 0
	}))

	// Named constructors are curried: Realm("name") returns a function
	// that takes the body table.
	named := map[string]*[]rawDef{
		"Realm":     &coll.realms,
		"Pill":      &coll.pills,
		"Technique": &coll.techs,
		"Artifact":  &coll.artifacts,
		"Tier":      &coll.tiers,
		"Event":     &coll.events,
		"Dungeon":   &coll.dungeons,
	}
	for global, dst := range named {
		L.SetGlobal(global, curried(L, dst))
	}

	// Loot("item", chance)
	L.SetGlobal("Loot", L.NewFunction(func(L *lua.LState) int {
		item := L.CheckString(1)
		chance := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("item", lua.LString(item))
		tbl.RawSetString("chance", chance)
		L.Push(tbl)
		return 1
	}))

	registerEventEffects(L)
}

func curried(L *lua.LState, dst *[]rawDef) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*dst = append(*dst, rawDef{name: name, table: tbl})
			return 0
		}))
		return 1
	})
}

// registerEventEffects registers the exploration sub-effect helpers.
// Each one tags its body table with a kind and returns it.
func registerEventEffects(L *lua.LState) {
	kinds := map[string]string{
		"Qi":     "qi",
		"Gold":   "gold",
		"PillOf": "pill",
		"Tech":   "technique",
		"Damage": "damage",
		"Beast":  "beast",
		"Item":   "item",
	}
	for global, kind := range kinds {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("kind", lua.LString(kind))
			L.Push(tbl)
			return 1
		}))
	}
}
