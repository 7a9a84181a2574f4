package statsmith

import (
	"time"

	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

// RowFromPlayer flattens the ranked statistics of p into a leaderboard row.
// Zero values are left out; leaderboards skip them anyway.
func RowFromPlayer(p *hypixel.Player, now time.Time) leaderboard.Row {
	stats := make(map[string]float64)
	set := func(c leaderboard.Category, field string, v float64) {
		if v != 0 {
			stats[leaderboard.Stat(c, field)] = v
		}
	}

	set(leaderboard.CategoryNetwork, "level", p.NetworkLevel)
	set(leaderboard.CategoryNetwork, "karma", p.Karma)
	set(leaderboard.CategoryNetwork, "achievement_points", p.AchievementPoints)
	set(leaderboard.CategoryNetwork, "quests_completed", float64(p.QuestsCompleted))
	set(leaderboard.CategoryNetwork, "first_login", float64(p.FirstLogin))

	bw := p.BedWars
	set(leaderboard.CategoryBedWars, "level", float64(bw.Level))
	set(leaderboard.CategoryBedWars, "wins", bw.Wins)
	set(leaderboard.CategoryBedWars, "losses", bw.Losses)
	set(leaderboard.CategoryBedWars, "kills", bw.Kills)
	set(leaderboard.CategoryBedWars, "deaths", bw.Deaths)
	set(leaderboard.CategoryBedWars, "final_kills", bw.FinalKills)
	set(leaderboard.CategoryBedWars, "final_deaths", bw.FinalDeaths)
	set(leaderboard.CategoryBedWars, "beds_broken", bw.BedsBroken)

	sw := p.SkyWars
	set(leaderboard.CategorySkyWars, "level", sw.Level)
	set(leaderboard.CategorySkyWars, "wins", sw.Wins)
	set(leaderboard.CategorySkyWars, "losses", sw.Losses)
	set(leaderboard.CategorySkyWars, "kills", sw.Kills)
	set(leaderboard.CategorySkyWars, "deaths", sw.Deaths)

	d := p.Duels
	set(leaderboard.CategoryDuels, "wins", d.Wins)
	set(leaderboard.CategoryDuels, "losses", d.Losses)
	set(leaderboard.CategoryDuels, "kills", d.Kills)
	set(leaderboard.CategoryDuels, "deaths", d.Deaths)
	set(leaderboard.CategoryDuels, "best_winstreak", d.BestWinstreak)

	return leaderboard.Row{
		UUID:        p.UUID,
		DisplayName: p.DisplayName,
		LastUpdated: now,
		Stats:       stats,
	}
}
