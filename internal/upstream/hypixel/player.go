package hypixel

import (
	"encoding/json"
	"math"
)

// Player is the normalized view of a Hypixel player.
type Player struct {
	UUID              string  `json:"uuid"`
	DisplayName       string  `json:"displayName"`
	Rank              string  `json:"rank"`
	Prefix            string  `json:"prefix"`
	NetworkExp        float64 `json:"networkExp"`
	NetworkLevel      float64 `json:"networkLevel"`
	Karma             float64 `json:"karma"`
	AchievementPoints float64 `json:"achievementPoints"`
	QuestsCompleted   int     `json:"questsCompleted"`

	// FirstLogin and LastLogin are Unix milliseconds; zero when hidden.
	FirstLogin int64 `json:"firstLogin,omitempty"`
	LastLogin  int64 `json:"lastLogin,omitempty"`

	BedWars BedWars `json:"bedwars"`
	SkyWars SkyWars `json:"skywars"`
	Duels   Duels   `json:"duels"`
}

// BedWars holds overall Bed Wars statistics.
type BedWars struct {
	Level       int     `json:"level"`
	Experience  float64 `json:"experience"`
	Wins        float64 `json:"wins"`
	Losses      float64 `json:"losses"`
	Kills       float64 `json:"kills"`
	Deaths      float64 `json:"deaths"`
	FinalKills  float64 `json:"finalKills"`
	FinalDeaths float64 `json:"finalDeaths"`
	BedsBroken  float64 `json:"bedsBroken"`
	BedsLost    float64 `json:"bedsLost"`
	Winstreak   float64 `json:"winstreak"`
	FKDR        float64 `json:"fkdr"`
	WLR         float64 `json:"wlr"`
}

// SkyWars holds overall SkyWars statistics.
type SkyWars struct {
	Level      float64 `json:"level"`
	Experience float64 `json:"experience"`
	Wins       float64 `json:"wins"`
	Losses     float64 `json:"losses"`
	Kills      float64 `json:"kills"`
	Deaths     float64 `json:"deaths"`
	KDR        float64 `json:"kdr"`
	WLR        float64 `json:"wlr"`
}

// Duels holds overall Duels statistics.
type Duels struct {
	Wins          float64 `json:"wins"`
	Losses        float64 `json:"losses"`
	Kills         float64 `json:"kills"`
	Deaths        float64 `json:"deaths"`
	BestWinstreak float64 `json:"bestWinstreak"`
	WLR           float64 `json:"wlr"`
	KDR           float64 `json:"kdr"`
}

// statMap holds a game's raw stats, which mix numbers with strings and
// objects.
type statMap map[string]json.RawMessage

// num returns the numeric stat key, or zero if it is absent or not a number.
func (m statMap) num(key string) float64 {
	raw, ok := m[key]
	if !ok {
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

type rawPlayer struct {
	UUID               string  `json:"uuid"`
	DisplayName        string  `json:"displayname"`
	Rank               string  `json:"rank"`
	PackageRank        string  `json:"packageRank"`
	NewPackageRank     string  `json:"newPackageRank"`
	MonthlyPackageRank string  `json:"monthlyPackageRank"`
	Prefix             string  `json:"prefix"`
	NetworkExp         float64 `json:"networkExp"`
	Karma              float64 `json:"karma"`
	AchievementPoints  float64 `json:"achievementPoints"`
	FirstLogin         int64   `json:"firstLogin"`
	LastLogin          int64   `json:"lastLogin"`

	Achievements struct {
		BedWarsLevel float64 `json:"bedwars_level"`
	} `json:"achievements"`

	Quests map[string]struct {
		Completions []json.RawMessage `json:"completions"`
	} `json:"quests"`

	Stats struct {
		BedWars statMap `json:"Bedwars"`
		SkyWars statMap `json:"SkyWars"`
		Duels   statMap `json:"Duels"`
	} `json:"stats"`
}

func (r *rawPlayer) normalize(uuid string) *Player {
	rank := r.rank()
	p := &Player{
		UUID:              uuid,
		DisplayName:       r.DisplayName,
		Rank:              rank,
		Prefix:            Prefix(rank, r.Prefix),
		NetworkExp:        r.NetworkExp,
		NetworkLevel:      NetworkLevel(r.NetworkExp),
		Karma:             r.Karma,
		AchievementPoints: r.AchievementPoints,
		FirstLogin:        r.FirstLogin,
		LastLogin:         r.LastLogin,
	}
	for _, q := range r.Quests {
		p.QuestsCompleted += len(q.Completions)
	}

	bw := r.Stats.BedWars
	p.BedWars = BedWars{
		Experience:  bw.num("Experience"),
		Wins:        bw.num("wins_bedwars"),
		Losses:      bw.num("losses_bedwars"),
		Kills:       bw.num("kills_bedwars"),
		Deaths:      bw.num("deaths_bedwars"),
		FinalKills:  bw.num("final_kills_bedwars"),
		FinalDeaths: bw.num("final_deaths_bedwars"),
		BedsBroken:  bw.num("beds_broken_bedwars"),
		BedsLost:    bw.num("beds_lost_bedwars"),
		Winstreak:   bw.num("winstreak"),
	}
	p.BedWars.Level = int(r.Achievements.BedWarsLevel)
	if p.BedWars.Level == 0 {
		p.BedWars.Level = BedWarsLevel(p.BedWars.Experience)
	}
	p.BedWars.FKDR = Ratio(p.BedWars.FinalKills, p.BedWars.FinalDeaths)
	p.BedWars.WLR = Ratio(p.BedWars.Wins, p.BedWars.Losses)

	sw := r.Stats.SkyWars
	p.SkyWars = SkyWars{
		Experience: sw.num("skywars_experience"),
		Wins:       sw.num("wins"),
		Losses:     sw.num("losses"),
		Kills:      sw.num("kills"),
		Deaths:     sw.num("deaths"),
	}
	p.SkyWars.Level = SkyWarsLevel(p.SkyWars.Experience)
	p.SkyWars.KDR = Ratio(p.SkyWars.Kills, p.SkyWars.Deaths)
	p.SkyWars.WLR = Ratio(p.SkyWars.Wins, p.SkyWars.Losses)

	d := r.Stats.Duels
	p.Duels = Duels{
		Wins:          d.num("wins"),
		Losses:        d.num("losses"),
		Kills:         d.num("kills"),
		Deaths:        d.num("deaths"),
		BestWinstreak: d.num("best_overall_winstreak"),
	}
	p.Duels.WLR = Ratio(p.Duels.Wins, p.Duels.Losses)
	p.Duels.KDR = Ratio(p.Duels.Kills, p.Duels.Deaths)

	return p
}

// Ratio divides a by b, treating a zero b as one, rounded to two decimals.
func Ratio(a, b float64) float64 {
	if b == 0 {
		b = 1
	}
	return math.Round(a/b*100) / 100
}
