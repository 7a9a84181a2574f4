// Package mojang resolves Minecraft names and uuids through the Mojang API.
package mojang

import (
	"context"
	"net/url"
	"strings"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/identity"
	"github.com/statsmith/statsmith/internal/upstream"
)

// Default endpoints.
const (
	DefaultAPIURL     = "https://api.mojang.com"
	DefaultSessionURL = "https://sessionserver.mojang.com"
)

// Compile-time check that Client implements upstream.Resolver.
var _ upstream.Resolver = (*Client)(nil)

// Client resolves profiles against Mojang.
type Client struct {
	api        *upstream.Client
	apiURL     string
	sessionURL string
}

// New creates a client. Empty URLs select the public endpoints.
func New(api *upstream.Client, apiURL, sessionURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if sessionURL == "" {
		sessionURL = DefaultSessionURL
	}
	return &Client{
		api:        api,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		sessionURL: strings.TrimSuffix(sessionURL, "/"),
	}
}

type profileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolve looks up a name or uuid.
func (c *Client) Resolve(ctx context.Context, raw string) (upstream.Profile, error) {
	var endpoint string
	switch identity.Classify(raw) {
	case identity.KindUUID:
		id, _ := identity.ParseUUID(raw)
		endpoint = c.sessionURL + "/session/minecraft/profile/" + id
	case identity.KindName:
		endpoint = c.apiURL + "/users/profiles/minecraft/" + url.PathEscape(strings.TrimSpace(raw))
	default:
		return upstream.Profile{}, apperr.Invalid("%q is neither a name nor a uuid", raw)
	}

	var resp profileResponse
	if err := c.api.GetJSON(ctx, endpoint, &resp); err != nil {
		return upstream.Profile{}, err
	}

	id, ok := identity.ParseUUID(resp.ID)
	if !ok {
		return upstream.Profile{}, c.api.Missing("profile without id")
	}
	return upstream.Profile{UUID: id, Name: resp.Name}, nil
}
