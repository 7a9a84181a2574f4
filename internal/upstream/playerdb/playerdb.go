// Package playerdb resolves Minecraft names and uuids through playerdb.co.
package playerdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/identity"
	"github.com/statsmith/statsmith/internal/upstream"
)

// DefaultURL is the public PlayerDB endpoint.
const DefaultURL = "https://playerdb.co"

// Compile-time check that Client implements upstream.Resolver.
var _ upstream.Resolver = (*Client)(nil)

// Client resolves profiles against PlayerDB.
type Client struct {
	api  *upstream.Client
	base string
}

// New creates a client. An empty base selects DefaultURL.
func New(api *upstream.Client, base string) *Client {
	if base == "" {
		base = DefaultURL
	}
	return &Client{api: api, base: strings.TrimSuffix(base, "/")}
}

type response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    struct {
		Player *struct {
			ID       string `json:"id"`
			RawID    string `json:"raw_id"`
			Username string `json:"username"`
		} `json:"player"`
	} `json:"data"`
}

// Resolve looks up a name or uuid.
func (c *Client) Resolve(ctx context.Context, raw string) (upstream.Profile, error) {
	if identity.Classify(raw) == identity.KindInvalid {
		return upstream.Profile{}, apperr.Invalid("%q is neither a name nor a uuid", raw)
	}

	var resp response
	endpoint := c.base + "/api/player/minecraft/" + url.PathEscape(strings.TrimSpace(raw))
	if err := c.api.GetJSON(ctx, endpoint, &resp); err != nil {
		// PlayerDB answers unknown usernames with 400.
		var ue *apperr.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusBadRequest {
			return upstream.Profile{}, c.api.Missing(ue.Cause)
		}
		return upstream.Profile{}, err
	}

	if !resp.Success {
		if strings.Contains(resp.Code, "invalid") || strings.Contains(resp.Code, "not_found") {
			return upstream.Profile{}, c.api.Missing(resp.Message)
		}
		return upstream.Profile{}, c.api.Fail(http.StatusBadGateway, resp.Message)
	}
	if resp.Data.Player == nil {
		return upstream.Profile{}, c.api.Missing("player not found")
	}

	id, ok := identity.ParseUUID(resp.Data.Player.RawID)
	if !ok {
		id, ok = identity.ParseUUID(resp.Data.Player.ID)
	}
	if !ok {
		return upstream.Profile{}, c.api.Fail(apperr.StatusMalformed, "player without id")
	}
	return upstream.Profile{UUID: id, Name: resp.Data.Player.Username}, nil
}
