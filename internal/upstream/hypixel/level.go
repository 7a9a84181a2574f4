package hypixel

import "math"

// NetworkLevel converts network experience into the fractional network
// level shown in game. Zero experience is level 1.
func NetworkLevel(exp float64) float64 {
	if exp < 0 {
		exp = 0
	}
	return math.Sqrt(2*exp+30625)/50 - 2.5
}

// Bed Wars prestiges are 100 levels worth 487000 experience. The first four
// levels of each prestige are cheaper than the rest.
const (
	bedWarsPrestigeExp = 487000
	bedWarsLevelExp    = 5000
)

var bedWarsEasyLevels = []float64{500, 1000, 2000, 3500}

// BedWarsLevel converts Bed Wars experience into a star level.
func BedWarsLevel(exp float64) int {
	if exp <= 0 {
		return 0
	}
	prestiges := math.Floor(exp / bedWarsPrestigeExp)
	level := int(prestiges) * 100
	rest := exp - prestiges*bedWarsPrestigeExp

	for _, cost := range bedWarsEasyLevels {
		if rest < cost {
			return level
		}
		rest -= cost
		level++
	}
	return level + int(rest/bedWarsLevelExp)
}

// skyWarsLevelExp is the total experience needed for levels 1 to 12.
var skyWarsLevelExp = []float64{0, 20, 70, 150, 250, 500, 1000, 2000, 3500, 6000, 10000, 15000}

// SkyWarsLevel converts SkyWars experience into a fractional level. Past
// level 12 every level costs 10000 experience.
func SkyWarsLevel(exp float64) float64 {
	if exp <= 0 {
		return 1
	}
	top := skyWarsLevelExp[len(skyWarsLevelExp)-1]
	if exp >= top {
		return float64(len(skyWarsLevelExp)) + (exp-top)/10000
	}
	for i := 1; i < len(skyWarsLevelExp); i++ {
		if exp < skyWarsLevelExp[i] {
			lo, hi := skyWarsLevelExp[i-1], skyWarsLevelExp[i]
			return float64(i) + (exp-lo)/(hi-lo)
		}
	}
	return float64(len(skyWarsLevelExp))
}

// guildLevelExp is the experience needed for each of the first guild levels.
// Every later level costs the last entry.
var guildLevelExp = []float64{
	100000, 150000, 250000, 500000, 750000,
	1000000, 1250000, 1500000, 2000000, 2500000,
	2500000, 2500000, 2500000, 2500000, 3000000,
}

// GuildLevel converts guild experience into a fractional level.
func GuildLevel(exp float64) float64 {
	level := 0.0
	for _, cost := range guildLevelExp {
		if exp < cost {
			return level + exp/cost
		}
		exp -= cost
		level++
	}
	last := guildLevelExp[len(guildLevelExp)-1]
	return level + exp/last
}
