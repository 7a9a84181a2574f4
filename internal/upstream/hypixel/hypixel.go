// Package hypixel fetches players, guilds and SkyBlock profiles from the
// Hypixel public API and normalizes them into stable shapes.
package hypixel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/identity"
	"github.com/statsmith/statsmith/internal/upstream"
)

// DefaultURL is the public Hypixel API.
const DefaultURL = "https://api.hypixel.net"

// memberConcurrency bounds parallel member name lookups per guild.
const memberConcurrency = 8

// Client fetches Hypixel data.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	api    *upstream.Client
	base   string
	logger *zap.Logger
}

// New creates a client. The API key is expected as an "API-Key" header on
// api.
func New(api *upstream.Client, base string, logger *zap.Logger) *Client {
	if base == "" {
		base = DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:    api,
		base:   strings.TrimSuffix(base, "/"),
		logger: logger.Named("hypixel"),
	}
}

// envelope is the common shape of every Hypixel response.
type envelope struct {
	Success  bool               `json:"success"`
	Cause    string             `json:"cause"`
	Player   *rawPlayer         `json:"player"`
	Guild    *rawGuild          `json:"guild"`
	Profiles *[]json.RawMessage `json:"profiles"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*envelope, error) {
	var env envelope
	if err := c.api.GetJSON(ctx, c.base+path+"?"+query.Encode(), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		cause := env.Cause
		if cause == "" {
			cause = "request was not successful"
		}
		c.logger.Debug("unsuccessful response", zap.String("path", path), zap.String("cause", cause))
		return nil, c.api.Fail(http.StatusInternalServerError, cause)
	}
	return &env, nil
}

// Player fetches the player with the given uuid.
func (c *Client) Player(ctx context.Context, uuid string) (*Player, error) {
	id, ok := identity.ParseUUID(uuid)
	if !ok {
		return nil, apperr.Invalid("%q is not a uuid", uuid)
	}

	env, err := c.get(ctx, "/v2/player", url.Values{"uuid": {id}})
	if err != nil {
		return nil, err
	}
	if env.Player == nil {
		return nil, c.api.Missing("player has never joined Hypixel")
	}
	return env.Player.normalize(id), nil
}

// GuildQuery selects a guild by name or by the uuid of a member. Exactly
// one field must be set.
type GuildQuery struct {
	Name   string
	Player string
}

// Guild fetches a guild. Member names are left empty; see ResolveMembers.
func (c *Client) Guild(ctx context.Context, q GuildQuery) (*Guild, error) {
	query := url.Values{}
	switch {
	case q.Name != "" && q.Player != "":
		return nil, apperr.Invalid("guild query takes a name or a player, not both")
	case q.Name != "":
		query.Set("name", strings.TrimSpace(q.Name))
	case q.Player != "":
		id, ok := identity.ParseUUID(q.Player)
		if !ok {
			return nil, apperr.Invalid("%q is not a uuid", q.Player)
		}
		query.Set("player", id)
	default:
		return nil, apperr.Invalid("guild query needs a name or a player")
	}

	env, err := c.get(ctx, "/v2/guild", query)
	if err != nil {
		return nil, err
	}
	if env.Guild == nil {
		return nil, c.api.Missing("guild not found")
	}

	return env.Guild.normalize(), nil
}

// SkyBlockProfiles fetches the SkyBlock profiles of the player with the
// given uuid.
func (c *Client) SkyBlockProfiles(ctx context.Context, uuid string) ([]SkyBlockProfile, error) {
	id, ok := identity.ParseUUID(uuid)
	if !ok {
		return nil, apperr.Invalid("%q is not a uuid", uuid)
	}

	env, err := c.get(ctx, "/v2/skyblock/profiles", url.Values{"uuid": {id}})
	if err != nil {
		return nil, err
	}
	if env.Profiles == nil {
		return nil, c.api.Missing("player has no SkyBlock profiles")
	}

	profiles := make([]SkyBlockProfile, 0, len(*env.Profiles))
	for _, raw := range *env.Profiles {
		var p rawProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, c.api.Fail(apperr.StatusMalformed, "malformed SkyBlock profile")
		}
		profiles = append(profiles, p.normalize(id))
	}
	return profiles, nil
}
