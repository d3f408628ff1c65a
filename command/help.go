package command

import "strings"

var helpLines = []string{
	"Cultivation:",
	"  join / leave            加入 / 退出",
	"  status                  状态",
	"  signin                  签到",
	"  train                   修炼",
	"  autotrain [on|off]      自动修炼",
	"  breakthrough            突破",
	"  explore [tier]          探索",
	"  use <item>              使用",
	"  revive / rescue <name>  复活 / 救援",
	"",
	"Economy:",
	"  market / buy <n|item> / sell <item>",
	"  auction / bid <slot> <gold>",
	"  lottery / ticket [5+2 numbers] / history",
	"  trade <name> <item> <price> / trades / accept trade [id] / reject trade <id>",
	"",
	"Combat:",
	"  duel <name> / accept duel [name] / reject duel [name]",
	"  dungeon create [tier] [names...] / dungeon confirm / dungeon start / dungeon leave / party",
	"  ruler / boss / throne / rank [n]",
	"",
	"Admin: start / stop / wipe / reload",
}

// Help is the command reference shown by the help verb.
func Help() string { return strings.Join(helpLines, "\n") }
