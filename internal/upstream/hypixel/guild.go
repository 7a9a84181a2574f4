package hypixel

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/upstream"
)

// Guild is the normalized view of a Hypixel guild.
type Guild struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Tag     string        `json:"tag,omitempty"`
	Exp     float64       `json:"exp"`
	Level   float64       `json:"level"`
	Created int64         `json:"created"`
	Members []GuildMember `json:"members"`

	// Partial is set when some member names could not be resolved because
	// a lookup failed upstream. Partial guilds must not be cached.
	Partial bool `json:"-"`
}

// GuildMember is one guild member. Name is empty when it could not be
// resolved.
type GuildMember struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name,omitempty"`
	Rank   string `json:"rank"`
	Joined int64  `json:"joined"`
}

type rawGuild struct {
	ID      string  `json:"_id"`
	Name    string  `json:"name"`
	Tag     string  `json:"tag"`
	Exp     float64 `json:"exp"`
	Created int64   `json:"created"`
	Members []struct {
		UUID   string `json:"uuid"`
		Rank   string `json:"rank"`
		Joined int64  `json:"joined"`
	} `json:"members"`
}

func (r *rawGuild) normalize() *Guild {
	g := &Guild{
		ID:      r.ID,
		Name:    r.Name,
		Tag:     StripColors(r.Tag),
		Exp:     r.Exp,
		Level:   GuildLevel(r.Exp),
		Created: r.Created,
		Members: make([]GuildMember, len(r.Members)),
	}
	for i, m := range r.Members {
		g.Members[i] = GuildMember{UUID: m.UUID, Rank: m.Rank, Joined: m.Joined}
	}
	return g
}

// ResolveMembers fills in member names with bounded parallelism. Each task
// writes only its own slot, and the slice is read after every task
// finished. Unknown accounts keep an empty name; any other failure marks
// the guild Partial.
func ResolveMembers(ctx context.Context, g *Guild, names upstream.Resolver, logger *zap.Logger) {
	if g == nil || names == nil || len(g.Members) == 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := make([]string, len(g.Members))
	failed := make([]bool, len(g.Members))
	var eg errgroup.Group
	eg.SetLimit(memberConcurrency)
	for i, m := range g.Members {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				failed[i] = true
				return nil
			}
			p, err := names.Resolve(ctx, m.UUID)
			switch {
			case err == nil:
				resolved[i] = p.Name
			case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidArgument):
				logger.Debug("guild member has no profile", zap.String("uuid", m.UUID))
			default:
				failed[i] = true
				logger.Debug("member name lookup failed", zap.String("uuid", m.UUID), zap.Error(err))
			}
			return nil
		})
	}
	eg.Wait()

	for i := range g.Members {
		g.Members[i].Name = resolved[i]
		if failed[i] {
			g.Partial = true
		}
	}
}
