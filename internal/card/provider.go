package card

import (
	"strconv"
	"strings"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

// Game selects which statistics a card shows.
type Game string

// Supported games.
const (
	GameNetwork Game = "network"
	GameBedWars Game = "bedwars"
	GameSkyWars Game = "skywars"
	GameDuels   Game = "duels"
)

// Games lists every supported game.
var Games = []Game{GameNetwork, GameBedWars, GameSkyWars, GameDuels}

// ParseGame parses a game name. An empty name selects GameNetwork.
func ParseGame(s string) (Game, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GameNetwork, nil
	}
	g := Game(s)
	if _, ok := providers[g]; !ok {
		return "", apperr.Invalid("unknown game %q", s)
	}
	return g, nil
}

// Line is one labelled value on a card.
type Line struct {
	Label string
	Value string
}

// Provider lays out the lines of one game's card.
type Provider interface {
	Title() string
	Lines(p *hypixel.Player) []Line
}

type providerFunc struct {
	title string
	lines func(p *hypixel.Player) []Line
}

func (f providerFunc) Title() string                  { return f.title }
func (f providerFunc) Lines(p *hypixel.Player) []Line { return f.lines(p) }

var providers = map[Game]Provider{
	GameNetwork: providerFunc{"Hypixel", func(p *hypixel.Player) []Line {
		return []Line{
			{"Level", Number(p.NetworkLevel)},
			{"Karma", Number(p.Karma)},
			{"Achievement Points", Number(p.AchievementPoints)},
			{"Quests Completed", Number(float64(p.QuestsCompleted))},
		}
	}},
	GameBedWars: providerFunc{"Bed Wars", func(p *hypixel.Player) []Line {
		bw := p.BedWars
		return []Line{
			{"Level", strconv.Itoa(bw.Level) + "*"},
			{"Wins", Number(bw.Wins)},
			{"Losses", Number(bw.Losses)},
			{"WLR", Number(bw.WLR)},
			{"Final Kills", Number(bw.FinalKills)},
			{"Final Deaths", Number(bw.FinalDeaths)},
			{"FKDR", Number(bw.FKDR)},
			{"Beds Broken", Number(bw.BedsBroken)},
		}
	}},
	GameSkyWars: providerFunc{"SkyWars", func(p *hypixel.Player) []Line {
		sw := p.SkyWars
		return []Line{
			{"Level", Number(sw.Level)},
			{"Wins", Number(sw.Wins)},
			{"Losses", Number(sw.Losses)},
			{"WLR", Number(sw.WLR)},
			{"Kills", Number(sw.Kills)},
			{"Deaths", Number(sw.Deaths)},
			{"KDR", Number(sw.KDR)},
		}
	}},
	GameDuels: providerFunc{"Duels", func(p *hypixel.Player) []Line {
		d := p.Duels
		return []Line{
			{"Wins", Number(d.Wins)},
			{"Losses", Number(d.Losses)},
			{"WLR", Number(d.WLR)},
			{"Kills", Number(d.Kills)},
			{"KDR", Number(d.KDR)},
			{"Best Winstreak", Number(d.BestWinstreak)},
		}
	}},
}

// Number formats v with thousands separators and at most two decimals.
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
