// Package alert forwards operational events to an external channel.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of an alert.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Alert is one event.
type Alert struct {
	Level   Level
	Title   string
	Message string
	Fields  []Field
}

// Field is a named value attached to an alert.
type Field struct {
	Name  string
	Value string
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Noop drops every alert.
type Noop struct{}

// Compile-time check that Noop implements Notifier.
var _ Notifier = Noop{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Alert) error { return nil }

// sendTimeout bounds a fire-and-forget delivery.
const sendTimeout = 10 * time.Second

// Send delivers a in the background and logs a failed delivery. It never
// blocks the caller.
func Send(n Notifier, a Alert, logger *zap.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.Notify(ctx, a); err != nil && logger != nil {
			logger.Warn("alert delivery failed", zap.String("title", a.Title), zap.Error(err))
		}
	}()
}

// Discord posts alerts to a Discord webhook.
type Discord struct {
	url    string
	client *http.Client
}

// Compile-time check that Discord implements Notifier.
var _ Notifier = (*Discord)(nil)

// NewDiscord creates a notifier for the webhook url. client may be nil.
func NewDiscord(url string, client *http.Client) *Discord {
	if client == nil {
		client = http.DefaultClient
	}
	return &Discord{url: url, client: client}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Embed colors.
const (
	colorInfo  = 0x5865f2
	colorError = 0xed4245
)

// Discord limits.
const (
	maxDescription = 4096
	maxFields      = 25
	maxFieldValue  = 1024
)

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, a Alert) error {
	embed := discordEmbed{
		Title:       a.Title,
		Description: truncate(a.Message, maxDescription),
		Color:       colorInfo,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if a.Level == LevelError {
		embed.Color = colorError
	}
	for i, f := range a.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, discordField{Name: f.Name, Value: truncate(f.Value, maxFieldValue), Inline: true})
	}

	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
