package progress

import (
	"fmt"
	"time"

	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/types"
)

// SignInDate is the local calendar date a sign-in at now counts for.
func SignInDate(now int64) string {
	return time.Unix(now, 0).Format(time.DateOnly)
}

// SignIn claims the daily reward: gold and qi scaled by overall level.
// One claim per local calendar day.
func SignIn(p *player.Player, ctx Context) types.Outcome {
	if p.Dying {
		return DyingFailure()
	}
	today := SignInDate(ctx.Now)
	if p.LastSignIn == today {
		return CooldownFailure("sign-in", untilMidnight(ctx.Now))
	}

	rules := ctx.Tables.Rules
	level := p.OverallLevel(ctx.Tables)
	gold, qi := level*rules.SignInGold, level*rules.SignInQi
	p.LastSignIn = today
	p.AddGold(gold)
	res := p.GainQi(ctx.Tables, qi)
	if ctx.Log != nil {
		ctx.Log.Info("signed in", "player", p.ID, "date", today, "gold", gold, "qi", qi)
	}

	lines := []string{fmt.Sprintf("Signed in for %s: +%d gold, +%d qi, progress %d/%d.", today, gold, qi, p.Qi, p.RequiredQi)}
	lines = append(lines, LevelLines(p, ctx.Tables, res)...)
	return types.Succeed(LevelFlags(res), lines...)
}

func untilMidnight(now int64) int64 {
	t := time.Unix(now, 0)
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	return max(1, next.Unix()-now)
}
