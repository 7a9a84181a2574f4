package leaderboard

import "fmt"

// Category groups leaderboards that read the same part of a player's stats.
type Category string

// The closed set of categories.
const (
	CategoryNetwork  Category = "network"
	CategoryBedWars  Category = "bedwars"
	CategorySkyWars  Category = "skywars"
	CategoryDuels    Category = "duels"
	CategorySkyBlock Category = "skyblock"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryNetwork,
	CategoryBedWars,
	CategorySkyWars,
	CategoryDuels,
	CategorySkyBlock,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Direction is the sort order of a leaderboard.
type Direction int

const (
	// Descending ranks the highest value first.
	Descending Direction = iota
	// Ascending ranks the lowest value first.
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// Extractor reads a leaderboard value out of a row. ok is false if the row
// carries no value for the leaderboard.
type Extractor func(row Row) (value float64, ok bool)

// Definition describes one ranked leaderboard.
type Definition struct {
	Name      string
	Category  Category
	Direction Direction
	Extract   Extractor
}

// Stat builds the stats key for a field of a category, e.g.
// Stat(CategoryBedWars, "wins") == "bedwars.wins".
func Stat(c Category, field string) string {
	return string(c) + "." + field
}

// Field returns an Extractor reading a single stat.
func Field(stat string) Extractor {
	return func(row Row) (float64, bool) {
		v, ok := row.Stats[stat]
		return v, ok
	}
}

// Ratio returns an Extractor dividing two stats. A zero or missing
// denominator counts as one, the way in-game ratios are displayed.
func Ratio(numerator, denominator string) Extractor {
	return func(row Row) (float64, bool) {
		n, ok := row.Stats[numerator]
		if !ok {
			return 0, false
		}
		d := row.Stats[denominator]
		if d == 0 {
			d = 1
		}
		return n / d, true
	}
}

// Counter defines a descending leaderboard over a single stat of c, named
// "<category>_<field>".
func Counter(c Category, field string) Definition {
	return Definition{
		Name:     fmt.Sprintf("%s_%s", c, field),
		Category: c,
		Extract:  Field(Stat(c, field)),
	}
}

// RatioOf defines a descending leaderboard over numerator/denominator.
func RatioOf(c Category, name, numerator, denominator string) Definition {
	return Definition{
		Name:     fmt.Sprintf("%s_%s", c, name),
		Category: c,
		Extract:  Ratio(Stat(c, numerator), Stat(c, denominator)),
	}
}
