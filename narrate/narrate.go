// Package narrate produces cosmetic flavor text for finished actions.
// Narration never touches game state; an empty string is a valid answer.
package narrate

import (
	"context"
	"hash/fnv"
	"strings"
)

// Summary is the structured record handed to a narrator.
type Summary struct {
	GroupID string
	Kind    string // duel, dungeon, breakthrough, explore, boss, ruler
	Actors  []string
	Victory bool
	Lines   []string
}

// Narrator turns a summary into flavor text.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=./mocks/narrator_mock.go -package=mocks . Narrator
type Narrator interface {
	Narrate(ctx context.Context, s Summary) (string, error)
}

// Nop never narrates.
type Nop struct{}

// Narrate implements Narrator.
func (Nop) Narrate(context.Context, Summary) (string, error) { return "", nil }

var phrases = map[string][2][]string{
	"duel": {
		{"%s 败下阵来，斗气溃散。", "%s 虽败犹荣，来日再战。"},
		{"%s 一招定乾坤，围观者无不惊叹。", "%s 斗气如虹，胜负已分。"},
	},
	"dungeon": {
		{"%s 一行铩羽而归，伤痕累累。"},
		{"%s 一行凯旋而归，满载而归。", "%s 联手斩杀守关魔兽。"},
	},
	"breakthrough": {
		{"%s 冲关失败，经脉隐隐作痛。"},
		{"天地异象！%s 成功突破。", "%s 周身斗气暴涨，境界更进一步。"},
	},
	"boss": {
		{"%s 的攻击在世界首领身上留下伤痕。"},
		{"%s 给予世界首领最后一击！"},
	},
	"ruler": {
		{"%s 挑战王座失败。"},
		{"%s 登临至尊之位，万众俯首。"},
	},
}

// Template narrates from a fixed phrase book. It is deterministic: the
// phrase is chosen from a hash of the summary lines.
type Template struct{}

// Narrate implements Narrator.
func (Template) Narrate(ctx context.Context, s Summary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	book, ok := phrases[s.Kind]
	if !ok || len(s.Actors) == 0 {
		return "", nil
	}
	set := book[0]
	if s.Victory {
		set = book[1]
	}
	h := fnv.New32a()
	for _, l := range s.Lines {
		h.Write([]byte(l))
	}
	phrase := set[int(h.Sum32()%uint32(len(set)))]
	return strings.Replace(phrase, "%s", strings.Join(s.Actors, "、"), 1), nil
}
