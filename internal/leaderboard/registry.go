package leaderboard

import (
	"errors"
	"fmt"
)

// Registry is the fixed set of leaderboard definitions. It is built once at
// startup and never changes afterwards.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry builds a registry from defs. Names must be unique and every
// definition needs a known category and an extractor.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		switch {
		case d.Name == "":
			return nil, errors.New("leaderboard: definition without name")
		case !d.Category.Valid():
			return nil, fmt.Errorf("leaderboard %q: unknown category %q", d.Name, d.Category)
		case d.Extract == nil:
			return nil, fmt.Errorf("leaderboard %q: missing extractor", d.Name)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("leaderboard %q: defined twice", d.Name)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(defs ...Definition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition named name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns every leaderboard name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.order)
}

// Index returns the leaderboard names of every category. Categories without
// definitions map to an empty list.
func (r *Registry) Index() map[Category][]string {
	index := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		index[c] = []string{}
	}
	for _, name := range r.order {
		d := r.defs[name]
		index[d.Category] = append(index[d.Category], name)
	}
	return index
}

// Default returns the built-in leaderboards. SkyBlock has no definitions
// yet; its stats are not stored on player rows.
func Default() *Registry {
	return MustRegistry(
		Counter(CategoryNetwork, "level"),
		Counter(CategoryNetwork, "karma"),
		Counter(CategoryNetwork, "achievement_points"),
		Counter(CategoryNetwork, "quests_completed"),
		Definition{
			Name:      "network_first_login",
			Category:  CategoryNetwork,
			Direction: Ascending,
			Extract:   Field(Stat(CategoryNetwork, "first_login")),
		},

		Counter(CategoryBedWars, "level"),
		Counter(CategoryBedWars, "wins"),
		Counter(CategoryBedWars, "final_kills"),
		Counter(CategoryBedWars, "beds_broken"),
		RatioOf(CategoryBedWars, "fkdr", "final_kills", "final_deaths"),
		RatioOf(CategoryBedWars, "wlr", "wins", "losses"),

		Counter(CategorySkyWars, "level"),
		Counter(CategorySkyWars, "wins"),
		Counter(CategorySkyWars, "kills"),
		RatioOf(CategorySkyWars, "kdr", "kills", "deaths"),
		RatioOf(CategorySkyWars, "wlr", "wins", "losses"),

		Counter(CategoryDuels, "wins"),
		Counter(CategoryDuels, "kills"),
		Counter(CategoryDuels, "best_winstreak"),
		RatioOf(CategoryDuels, "wlr", "wins", "losses"),
	)
}
