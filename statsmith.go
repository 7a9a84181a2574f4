// Package statsmith aggregates Hypixel player, guild and SkyBlock data,
// ranks players on leaderboards and renders stat cards.
//
// Example usage:
//
//	svc, err := statsmith.New(
//	    statsmith.WithSource(hypixelClient),
//	    statsmith.WithResolver(upstream.Chain{mojangClient, playerdbClient}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	player, err := svc.Player(ctx, "Notch")
package statsmith

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/cache"
	"github.com/statsmith/statsmith/internal/card"
	"github.com/statsmith/statsmith/internal/identity"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/stats"
	"github.com/statsmith/statsmith/internal/upstream"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
	"github.com/statsmith/statsmith/internal/usage"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the service has been closed.
	ErrClosed = errors.New("statsmith: service closed")

	// ErrNoSource indicates no Hypixel source was provided.
	ErrNoSource = errors.New("statsmith: no source provided")

	// ErrNoResolver indicates no name resolver was provided.
	ErrNoResolver = errors.New("statsmith: no resolver provided")
)

// Source fetches Hypixel data. *hypixel.Client implements it.
type Source interface {
	Player(ctx context.Context, uuid string) (*hypixel.Player, error)
	Guild(ctx context.Context, q hypixel.GuildQuery) (*hypixel.Guild, error)
	SkyBlockProfiles(ctx context.Context, uuid string) ([]hypixel.SkyBlockProfile, error)
}

// Compile-time check that the Hypixel client satisfies Source.
var _ Source = (*hypixel.Client)(nil)

// Service answers player, guild, SkyBlock, card and leaderboard requests.
// A Service is safe for concurrent use by multiple goroutines.
type Service struct {
	source   Source
	resolver upstream.Resolver

	names    *cache.Cache[upstream.Profile]
	players  *cache.Cache[*hypixel.Player]
	guilds   *cache.Cache[*hypixel.Guild]
	skyblock *cache.Cache[[]hypixel.SkyBlockProfile]
	cards    *cache.Cache[[]byte]

	board     *leaderboard.Store
	publisher *leaderboard.Publisher
	usage     *usage.Aggregator
	renderer  *card.Renderer
	notifier  alert.Notifier

	now    func() time.Time
	stats  stats.Collector
	logger *zap.Logger
	closed atomic.Bool
}

// New creates a Service with the given options.
func New(opts ...Option) (*Service, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.source == nil {
		return nil, ErrNoSource
	}
	if cfg.resolver == nil {
		return nil, ErrNoResolver
	}

	s := &Service{
		source:    cfg.source,
		resolver:  cfg.resolver,
		publisher: cfg.publisher,
		renderer:  cfg.renderer,
		notifier:  cfg.notifier,
		now:       cfg.now,
		stats:     cfg.stats,
		logger:    cfg.logger,
	}

	var err error
	if s.names, err = newCache[upstream.Profile](cfg, "names", cfg.ttls.Name, cache.WithNormalizer(identity.Key)); err != nil {
		return nil, err
	}
	if s.players, err = newCache[*hypixel.Player](cfg, "players", cfg.ttls.Player); err != nil {
		return nil, err
	}
	if s.guilds, err = newCache[*hypixel.Guild](cfg, "guilds", cfg.ttls.Guild); err != nil {
		return nil, err
	}
	if s.skyblock, err = newCache[[]hypixel.SkyBlockProfile](cfg, "skyblock", cfg.ttls.SkyBlock); err != nil {
		return nil, err
	}
	if s.cards, err = newCache[[]byte](cfg, "cards", cfg.ttls.Card); err != nil {
		return nil, err
	}
	s.players.WithCacheable(func(p *hypixel.Player) bool { return p != nil })
	s.guilds.WithCacheable(func(g *hypixel.Guild) bool { return g != nil && !g.Partial })
	s.cards.WithCacheable(func(b []byte) bool { return len(b) > 0 })

	s.board = leaderboard.New(cfg.rows, cfg.registry,
		leaderboard.WithStaleness(cfg.staleness),
		leaderboard.WithClock(cfg.now),
		leaderboard.WithStats(cfg.stats),
		leaderboard.WithLogger(cfg.logger),
	)
	s.usage = usage.New(cfg.stats, cfg.now)

	s.logger.Debug("service initialized",
		zap.Duration("playerTTL", cfg.ttls.Player),
		zap.Bool("redis", cfg.redis != nil),
		zap.Int("leaderboards", cfg.registry.Len()),
	)
	return s, nil
}

// Player returns the Hypixel stats of the player named or identified by
// ident. A fresh fetch also replaces the player's leaderboard row.
func (s *Service) Player(ctx context.Context, ident string) (*hypixel.Player, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	profile, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	p, err := s.player(ctx, profile.UUID)
	if err != nil {
		return nil, err
	}
	s.usage.Register(usage.KindStats, profile.UUID)
	return p, nil
}

// Guild returns a guild by name, or the guild of player when name is empty.
func (s *Service) Guild(ctx context.Context, name, player string) (*hypixel.Guild, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var (
		q   hypixel.GuildQuery
		key string
	)
	switch {
	case name != "" && player != "":
		return nil, apperr.Invalid("pass either a guild name or a player, not both")
	case strings.TrimSpace(name) != "":
		q.Name = strings.TrimSpace(name)
		key = "name:" + q.Name
	case player != "":
		profile, err := s.resolve(ctx, player)
		if err != nil {
			return nil, err
		}
		q.Player = profile.UUID
		key = "player:" + profile.UUID
	default:
		return nil, apperr.Invalid("missing guild name or player")
	}

	g, err := s.guilds.Get(ctx, key, func(ctx context.Context) (*hypixel.Guild, error) {
		g, err := s.source.Guild(ctx, q)
		if err != nil {
			return nil, err
		}
		hypixel.ResolveMembers(ctx, g, upstream.ResolverFunc(s.memberProfile), s.logger)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	s.usage.Register(usage.KindGuild, key)
	return g, nil
}

// SkyBlock returns the SkyBlock profiles of a player.
func (s *Service) SkyBlock(ctx context.Context, ident string) ([]hypixel.SkyBlockProfile, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	profile, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	profiles, err := s.skyblock.Get(ctx, profile.UUID, func(ctx context.Context) ([]hypixel.SkyBlockProfile, error) {
		return s.source.SkyBlockProfiles(ctx, profile.UUID)
	})
	if err != nil {
		return nil, err
	}
	s.usage.Register(usage.KindSkyBlock, profile.UUID)
	return profiles, nil
}

// Card renders the PNG stat card of game for a player. It fails with
// apperr.ErrNotReady until the renderer has warmed up.
func (s *Service) Card(ctx context.Context, ident, game string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	g, err := card.ParseGame(game)
	if err != nil {
		return nil, err
	}
	profile, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !s.renderer.Ready() {
		return nil, fmt.Errorf("%w: card renderer is warming up", apperr.ErrNotReady)
	}

	png, err := s.cards.Get(ctx, string(g)+":"+profile.UUID, func(ctx context.Context) ([]byte, error) {
		p, err := s.player(ctx, profile.UUID)
		if err != nil {
			return nil, err
		}
		return s.renderer.Render(g, p)
	})
	if err != nil {
		return nil, err
	}
	s.usage.Register(usage.KindCard, profile.UUID)
	return png, nil
}

// Leaderboard returns one page of a leaderboard.
func (s *Service) Leaderboard(ctx context.Context, name string, page int) (*leaderboard.Page, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	p, err := s.board.Query(ctx, name, page)
	if err != nil {
		return nil, err
	}
	s.usage.Register(usage.KindLeaderboard, name)
	return p, nil
}

// Leaderboards returns the leaderboard names of every category.
func (s *Service) Leaderboards() map[leaderboard.Category][]string {
	return s.board.Registry().Index()
}

// Invalidate evicts every cached entry of a player so the next request
// fetches fresh data.
func (s *Service) Invalidate(ctx context.Context, ident string) error {
	profile, err := s.resolve(ctx, ident)
	if err != nil {
		return err
	}
	s.players.Invalidate(ctx, profile.UUID)
	s.skyblock.Invalidate(ctx, profile.UUID)
	for _, g := range card.Games {
		s.cards.Invalidate(ctx, string(g)+":"+profile.UUID)
	}
	if profile.Name != "" {
		s.names.Invalidate(ctx, profile.Name)
	}
	return nil
}

// Close releases all resources associated with the service.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := s.board.Close(); err != nil {
		return fmt.Errorf("closing leaderboard store: %w", err)
	}
	return nil
}

// resolve maps a name or uuid to the canonical profile. UUIDs are taken as
// they are; names go through the name cache.
func (s *Service) resolve(ctx context.Context, ident string) (upstream.Profile, error) {
	switch identity.Classify(ident) {
	case identity.KindUUID:
		id, _ := identity.ParseUUID(ident)
		return upstream.Profile{UUID: id}, nil
	case identity.KindName:
		return s.names.Get(ctx, ident, func(ctx context.Context) (upstream.Profile, error) {
			return s.resolver.Resolve(ctx, ident)
		})
	default:
		if strings.TrimSpace(ident) == "" {
			return upstream.Profile{}, apperr.Invalid("missing player name")
		}
		return upstream.Profile{}, apperr.Invalid("%q is neither a player name nor a uuid", ident)
	}
}

// memberProfile looks up a guild member's profile by uuid through the name
// cache, which keys uuids and names apart.
func (s *Service) memberProfile(ctx context.Context, uuid string) (upstream.Profile, error) {
	return s.names.Get(ctx, uuid, func(ctx context.Context) (upstream.Profile, error) {
		return s.resolver.Resolve(ctx, uuid)
	})
}

// player fetches a player through the player cache and records the row of
// every fresh fetch.
func (s *Service) player(ctx context.Context, uuid string) (*hypixel.Player, error) {
	return s.players.Get(ctx, uuid, func(ctx context.Context) (*hypixel.Player, error) {
		p, err := s.source.Player(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if err := s.board.InsertOrReplace(ctx, RowFromPlayer(p, s.now())); err != nil {
			s.logger.Warn("storing leaderboard row failed", zap.String("uuid", uuid), zap.Error(err))
		}
		return p, nil
	})
}
