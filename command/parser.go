// Package command turns chat lines into engine calls and engine results
// into reply text. It stands in for the chat platform's command layer.
package command

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/nathoo/dpcq/types"
)

// verbAliases maps every accepted spelling to a canonical verb.
var verbAliases = map[string]string{
	// Roster
	"join": "join", "加入": "join", "加入游戏": "join", "入门": "join",
	"leave": "leave", "quit-game": "leave", "退出": "leave", "退出游戏": "leave",
	"status": "status", "me": "status", "st": "status", "状态": "status", "我的信息": "status",

	// Progression
	"signin": "signin", "sign": "signin", "daily": "signin", "签到": "signin", "每日签到": "signin",
	"train": "train", "t": "train", "cultivate": "train", "修炼": "train",
	"breakthrough": "breakthrough", "bt": "breakthrough", "突破": "breakthrough",
	"explore": "explore", "ex": "explore", "探索": "explore", "历练": "explore",
	"use": "use", "eat": "use", "equip": "use", "使用": "use", "服用": "use", "装备": "use",
	"revive": "revive", "复活": "revive",
	"rescue": "rescue", "救援": "rescue", "救": "rescue",
	"autotrain": "autotrain", "auto": "autotrain", "自动修炼": "autotrain",

	// Economy
	"market": "market", "shop": "market", "商店": "market", "坊市": "market",
	"buy": "buy", "purchase": "buy", "购买": "buy", "买": "buy",
	"sell": "sell", "出售": "sell", "卖": "sell",
	"auction": "auction", "拍卖": "auction", "拍卖行": "auction",
	"bid": "bid", "出价": "bid", "竞拍": "bid",
	"lottery": "lottery", "彩票": "lottery",
	"ticket": "ticket", "买彩票": "ticket", "投注": "ticket",
	"history": "history", "开奖记录": "history",

	// Duels and trades
	"duel": "duel", "challenge": "duel", "决斗": "duel", "挑战": "duel",
	"accept-duel": "accept-duel", "接受决斗": "accept-duel", "应战": "accept-duel",
	"reject-duel": "reject-duel", "拒绝决斗": "reject-duel",
	"trade": "trade", "交易": "trade",
	"trades": "trades", "交易列表": "trades",
	"accept-trade": "accept-trade", "接受交易": "accept-trade",
	"reject-trade": "reject-trade", "拒绝交易": "reject-trade", "取消交易": "reject-trade",

	// Dungeon parties
	"dungeon-create": "dungeon-create", "组队": "dungeon-create", "创建副本": "dungeon-create",
	"dungeon-confirm": "dungeon-confirm", "确认": "dungeon-confirm", "确认组队": "dungeon-confirm",
	"dungeon-start": "dungeon-start", "开始副本": "dungeon-start", "进入副本": "dungeon-start",
	"dungeon-leave": "dungeon-leave", "离队": "dungeon-leave", "解散队伍": "dungeon-leave",
	"party": "party", "队伍": "party",

	// Shared world
	"ruler": "ruler", "至尊": "ruler", "挑战至尊": "ruler",
	"boss": "boss", "世界boss": "boss", "讨伐": "boss",
	"throne": "throne", "王座": "throne",
	"rank": "rank", "top": "rank", "leaderboard": "rank", "排行": "rank", "排行榜": "rank",

	// Admin
	"start": "start", "开始游戏": "start", "开启游戏": "start",
	"stop": "stop", "停止游戏": "stop", "关闭游戏": "stop",
	"wipe": "wipe", "清档": "wipe",
	"reload": "reload", "重载": "reload",

	"help": "help", "h": "help", "?": "help", "帮助": "help",
}

// phrases are two-word English forms folded into one verb.
var phrases = map[[2]string]string{
	{"accept", "duel"}:    "accept-duel",
	{"reject", "duel"}:    "reject-duel",
	{"decline", "duel"}:   "reject-duel",
	{"accept", "trade"}:   "accept-trade",
	{"reject", "trade"}:   "reject-trade",
	{"cancel", "trade"}:   "reject-trade",
	{"dungeon", "create"}: "dungeon-create",
	{"dungeon", "confirm"}: "dungeon-confirm",
	{"dungeon", "start"}:  "dungeon-start",
	{"dungeon", "leave"}:  "dungeon-leave",
	{"dungeon", "info"}:   "party",
	{"auto", "train"}:     "autotrain",
	{"market", "buy"}:     "buy",
	{"market", "sell"}:    "sell",
	{"auction", "bid"}:    "bid",
	{"lottery", "buy"}:    "ticket",
	{"lottery", "history"}: "history",
}

// prefixes are the non-ASCII aliases, longest first, for chat lines
// that glue the argument to the verb ("使用聚气丹").
var prefixes = func() []string {
	var out []string
	for alias := range verbAliases {
		if !isASCII(alias) {
			out = append(out, alias)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Parse converts a chat line into an Intent. Full-width digits and
// letters from Chinese input methods are folded to ASCII first. Unknown
// verbs are kept verbatim so the dispatcher can report them.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(width.Fold.String(input))
	input = strings.TrimLeft(input, "/.。")
	words := strings.Fields(input)
	if len(words) == 0 {
		return types.Intent{}
	}

	head := strings.ToLower(words[0])
	rest := words[1:]
	if len(rest) > 0 {
		if verb, ok := phrases[[2]string{head, strings.ToLower(rest[0])}]; ok {
			return types.Intent{Verb: verb, Args: rest[1:]}
		}
	}
	if verb, ok := verbAliases[head]; ok {
		return types.Intent{Verb: verb, Args: rest}
	}
	for _, alias := range prefixes {
		if tail, ok := strings.CutPrefix(words[0], alias); ok && tail != "" {
			return types.Intent{Verb: verbAliases[alias], Args: append([]string{tail}, rest...)}
		}
	}
	return types.Intent{Verb: head, Args: rest}
}
