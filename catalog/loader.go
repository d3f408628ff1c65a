package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

//go:embed data/*.lua
var dataFS embed.FS

// collector accumulates Lua definitions during file execution.
type collector struct {
	rules     *lua.LTable
	realms    []rawDef
	pills     []rawDef
	techs     []rawDef
	artifacts []rawDef
	tiers     []rawDef
	events    []rawDef
	dungeons  []rawDef
}

// rawDef is a named constructor call before compilation.
type rawDef struct {
	name  string
	table *lua.LTable
}

// Default loads the tables compiled into the binary.
func Default() (*Tables, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded data: %w", err)
	}
	return Load(sub)
}

// MustDefault is Default for tests and static setup. It panics on error.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads every .lua file at the root of fsys, compiles the definitions
// and validates cross references. rules.lua runs first, the rest in name
// order. The Lua VM is discarded after loading.
func Load(fsys fs.FS) (*Tables, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading catalog directory: %w", err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found")
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		if err := L.DoString(string(src)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	tables, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling catalog: %w", err)
	}
	if err := validate(tables); err != nil {
		return nil, err
	}
	tables.index()
	return tables, nil
}

// sortedLuaFiles puts rules.lua first, then the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	var rest []string
	hasRules := false
	for _, f := range files {
		if f == "rules.lua" {
			hasRules = true
		} else {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	if hasRules {
		return append([]string{"rules.lua"}, rest...)
	}
	return rest
}

func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox strips file access and nondeterministic globals from the VM.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}
