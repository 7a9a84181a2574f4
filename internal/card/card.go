// Package card renders player statistics as PNG cards.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

// Layout of a card in pixels.
const (
	Width      = 360
	padding    = 16
	lineHeight = 20
	titleGap   = 28
)

var (
	background = color.RGBA{R: 0x1e, G: 0x1f, B: 0x24, A: 0xff}
	labelColor = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
	valueColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

var accents = map[Game]color.RGBA{
	GameNetwork: {R: 0xff, G: 0xaa, B: 0x00, A: 0xff},
	GameBedWars: {R: 0xff, G: 0x55, B: 0x55, A: 0xff},
	GameSkyWars: {R: 0x55, G: 0xff, B: 0xff, A: 0xff},
	GameDuels:   {R: 0x55, G: 0xff, B: 0x55, A: 0xff},
}

// Renderer draws cards onto pre-built per-game templates. It reports not
// ready until Warm has built every template.
// A Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	ready     atomic.Bool
	once      sync.Once
	templates map[Game]*image.RGBA
	logger    *zap.Logger
}

// NewRenderer creates a renderer. Call Warm before rendering.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger.Named("card")}
}

// Warm builds the card templates. Calls after the first are no-ops.
func (r *Renderer) Warm() {
	r.once.Do(func() {
		templates := make(map[Game]*image.RGBA, len(providers))
		for game, p := range providers {
			templates[game] = template(game, len(p.Lines(&hypixel.Player{})))
		}
		r.templates = templates
		r.ready.Store(true)
		r.logger.Debug("templates warmed", zap.Int("games", len(templates)))
	})
}

// Ready reports whether Warm has finished.
func (r *Renderer) Ready() bool {
	return r.ready.Load()
}

// Render draws the card of game for p and encodes it as PNG.
func (r *Renderer) Render(game Game, p *hypixel.Player) ([]byte, error) {
	if !r.Ready() {
		return nil, fmt.Errorf("%w: card templates are still loading", apperr.ErrNotReady)
	}
	provider, ok := providers[game]
	if !ok {
		return nil, apperr.Invalid("unknown game %q", game)
	}

	tmpl := r.templates[game]
	img := image.NewRGBA(tmpl.Bounds())
	draw.Draw(img, img.Bounds(), tmpl, image.Point{}, draw.Src)

	title := provider.Title() + " - " + p.DisplayName
	if p.Prefix != "" {
		title = provider.Title() + " - " + p.Prefix + " " + p.DisplayName
	}
	text(img, padding, padding+13, title, accents[game])

	y := padding + 13 + titleGap
	for _, line := range provider.Lines(p) {
		text(img, padding, y, line.Label, labelColor)
		text(img, Width/2, y, line.Value, valueColor)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding card: %w", err)
	}
	return buf.Bytes(), nil
}

// template draws the static parts of a card with n lines.
func template(game Game, n int) *image.RGBA {
	height := padding*2 + 13 + titleGap + n*lineHeight
	img := image.NewRGBA(image.Rect(0, 0, Width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	accent := image.NewUniform(accents[game])
	draw.Draw(img, image.Rect(0, 0, Width, 4), accent, image.Point{}, draw.Src)
	divider := padding + 13 + titleGap/2
	draw.Draw(img, image.Rect(padding, divider, Width-padding, divider+1), image.NewUniform(labelColor), image.Point{}, draw.Src)
	return img
}

func text(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
