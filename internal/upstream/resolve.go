package upstream

import (
	"context"
	"errors"

	"github.com/statsmith/statsmith/internal/apperr"
)

// Profile is a resolved Minecraft account.
type Profile struct {
	// UUID is the undashed lower-case account id.
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Resolver maps a player name or uuid to a Profile.
type Resolver interface {
	Resolve(ctx context.Context, identity string) (Profile, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, identity string) (Profile, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, identity string) (Profile, error) {
	return f(ctx, identity)
}

// Chain tries resolvers in order. The next resolver is consulted only when
// the previous one failed upstream; NotFound and invalid input are final.
type Chain []Resolver

// Compile-time check that Chain implements Resolver.
var _ Resolver = Chain(nil)

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, identity string) (Profile, error) {
	err := apperr.NotFound("no resolver for %q", identity)
	for _, r := range c {
		var p Profile
		p, err = r.Resolve(ctx, identity)
		if err == nil {
			return p, nil
		}
		if !apperr.IsUpstream(err) || errors.Is(err, context.Canceled) {
			return Profile{}, err
		}
	}
	return Profile{}, err
}
