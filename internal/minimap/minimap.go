package minimap

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"io"

	"github.com/fogleman/gg"

	"arena-siege/internal/game"
)

// Config controls the rendered image
type Config struct {
	Width      int
	Height     int
	BaseRadius float64
}

// DefaultConfig is a 256x256 overview
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, BaseRadius: 6}
}

var (
	background   = color.RGBA{12, 12, 28, 255}
	gridColor    = color.RGBA{30, 30, 45, 255}
	redColor     = color.RGBA{220, 60, 60, 255}
	blueColor    = color.RGBA{60, 110, 230, 255}
	ruinColor    = color.RGBA{90, 90, 90, 255}
	nodeColor    = color.RGBA{240, 200, 60, 255}
	barBack      = color.RGBA{0, 0, 0, 160}
	barHealthy   = color.RGBA{80, 220, 120, 255}
	barDamaged   = color.RGBA{240, 170, 40, 255}
	barCritical  = color.RGBA{230, 50, 50, 255}
	healthyRatio = 0.6
	criticalRate = 0.25
)

// Renderer draws match overviews. A Renderer owns one drawing context
// and is not safe for concurrent use.
type Renderer struct {
	cfg Config
	dc  *gg.Context
}

// New creates a renderer; zero dimensions fall back to DefaultConfig
func New(cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.BaseRadius <= 0 {
		cfg.BaseRadius = def.BaseRadius
	}
	return &Renderer{cfg: cfg, dc: gg.NewContext(cfg.Width, cfg.Height)}
}

// Config returns the effective configuration
func (r *Renderer) Config() Config { return r.cfg }

// Render draws status and the optional resource nodes, then encodes a PNG to w.
func (r *Renderer) Render(w io.Writer, status *game.Status, nodes []game.ResourceNode) error {
	if status == nil {
		return fmt.Errorf("render minimap: no status")
	}
	dc := r.dc
	sx, sy := r.scale(status.MapSize)

	dc.SetColor(background)
	dc.DrawRectangle(0, 0, float64(r.cfg.Width), float64(r.cfg.Height))
	dc.Fill()
	r.drawGrid()

	for _, n := range nodes {
		dc.SetColor(nodeColor)
		x, y := n.Position.X*sx, n.Position.Y*sy
		dc.DrawRectangle(x-2, y-2, 4, 4)
		dc.Fill()
	}

	for _, b := range status.Bases {
		r.drawBase(b, b.Position.X*sx, b.Position.Y*sy)
	}

	if err := png.Encode(w, dc.Image()); err != nil {
		return fmt.Errorf("encode minimap: %w", err)
	}
	return nil
}

// RenderBytes is Render into a fresh buffer
func (r *Renderer) RenderBytes(status *game.Status, nodes []game.ResourceNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, status, nodes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) scale(size game.MapSize) (float64, float64) {
	sx, sy := 1.0, 1.0
	if size.Width > 0 {
		sx = float64(r.cfg.Width) / size.Width
	}
	if size.Height > 0 {
		sy = float64(r.cfg.Height) / size.Height
	}
	return sx, sy
}

func (r *Renderer) drawGrid() {
	dc := r.dc
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	w, h := float64(r.cfg.Width), float64(r.cfg.Height)
	for i := 1; i < 4; i++ {
		x := w * float64(i) / 4
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
		y := h * float64(i) / 4
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}
}

func (r *Renderer) drawBase(b game.BaseStatus, x, y float64) {
	dc := r.dc
	radius := r.cfg.BaseRadius

	dc.SetColor(TeamColor(b.Team, b.Destroyed))
	dc.DrawCircle(x, y, radius)
	dc.Fill()
	if b.Destroyed {
		return
	}

	ratio := 0.0
	if b.MaxHealth > 0 {
		ratio = b.Health / b.MaxHealth
	}
	barW := radius * 2.5
	barY := y - radius - 5
	dc.SetColor(barBack)
	dc.DrawRectangle(x-barW/2, barY, barW, 3)
	dc.Fill()
	dc.SetColor(HealthColor(ratio))
	dc.DrawRectangle(x-barW/2, barY, barW*ratio, 3)
	dc.Fill()
}

// TeamColor is the fill used for a base of team t
func TeamColor(t game.TeamType, destroyed bool) color.RGBA {
	if destroyed {
		return ruinColor
	}
	switch t {
	case game.TeamRed:
		return redColor
	case game.TeamBlue:
		return blueColor
	}
	return ruinColor
}

// HealthColor picks the bar color for a health ratio
func HealthColor(ratio float64) color.RGBA {
	switch {
	case ratio > healthyRatio:
		return barHealthy
	case ratio > criticalRate:
		return barDamaged
	default:
		return barCritical
	}
}
