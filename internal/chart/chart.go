// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chart renders the balance sheet and income statement of a
// company record as a stacked bar chart in PNG form.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// Plot margins in pixels.
const (
	marginLeft   = 90.0
	marginRight  = 20.0
	marginTop    = 50.0
	marginBottom = 30.0
)

// Visible x range in data units.
const (
	xMin = 0.4
	xMax = 4.6
)

// oku is the tick unit of the y axis (one hundred million yen).
const oku = 1e8

// Renderer draws charts at a fixed size with a single font. Font faces
// cache glyphs, so renders are serialized.
type Renderer struct {
	mu            sync.Mutex
	width, height int
	font          *truetype.Font
	faces         map[float64]font.Face
	log           *logger.Logger
}

// New creates a Renderer from cfg. An empty FontFile selects the built-in
// Go font, which has no CJK glyphs.
func New(cfg types.ChartConfig, log *logger.Logger) (*Renderer, error) {
	if log == nil {
		log = logger.Nop()
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 700
	}

	raw := goregular.TTF
	if cfg.FontFile != "" {
		b, err := os.ReadFile(cfg.FontFile)
		if err != nil {
			return nil, fmt.Errorf("reading chart font: %w", err)
		}
		raw = b
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing chart font: %w", err)
	}
	log.Debug("chart renderer ready", "width", width, "height", height, "font", cfg.FontFile)
	r := &Renderer{width: width, height: height, font: f, faces: map[float64]font.Face{}, log: log}
	for _, size := range []float64{10, 12, 16} {
		r.faces[size] = truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	}
	return r, nil
}

func (r *Renderer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	return r.faces[10]
}

// Render writes the chart for rec as PNG to w.
func (r *Renderer) Render(rec *types.CompanyRecord, isIFRS bool, w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := Plan(rec, isIFRS)
	dc := gg.NewContext(r.width, r.height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	lo, hi := l.Extent()
	step := tickStep(hi - lo)
	lo = math.Floor(lo/step) * step
	hi = math.Ceil(hi/step) * step
	if hi <= lo {
		hi = lo + step
	}

	plotW := float64(r.width) - marginLeft - marginRight
	plotH := float64(r.height) - marginTop - marginBottom
	px := func(x float64) float64 { return marginLeft + (x-xMin)/(xMax-xMin)*plotW }
	py := func(y float64) float64 { return marginTop + (hi-y)/(hi-lo)*plotH }

	// Grid and y tick labels.
	dc.SetFontFace(r.face(10))
	for y := lo; y <= hi+step/2; y += step {
		dc.SetRGBA(0.5, 0.5, 0.5, 0.7)
		dc.SetLineWidth(1)
		dc.SetDash(4, 4)
		dc.DrawLine(marginLeft, py(y), marginLeft+plotW, py(y))
		dc.Stroke()
		dc.SetDash()
		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(AxisLabel(y), marginLeft-6, py(y), 1, 0.5)
	}

	for _, b := range l.Bars {
		x0, x1 := px(b.X-b.Width/2), px(b.X+b.Width/2)
		y0, y1 := py(b.Bottom), py(b.Top())
		dc.SetHexColor(b.Color)
		dc.DrawRectangle(x0, math.Min(y0, y1), x1-x0, math.Abs(y1-y0))
		dc.Fill()
		dc.SetHexColor(b.TextColor)
		dc.SetFontFace(r.face(b.FontSize))
		dc.DrawStringAnchored(b.Label, (x0+x1)/2, (y0+y1)/2, 0.5, 0.5)
	}

	for _, s := range l.Lines {
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(1.5)
		dc.DrawLine(px(s.X1), py(s.Y1), px(s.X2), py(s.Y2))
		dc.Stroke()
	}

	dc.SetHexColor("#000000")
	dc.SetFontFace(r.face(16))
	dc.DrawStringAnchored(l.Title, float64(r.width)/2, marginTop/2, 0.5, 0.5)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding chart: %w", err)
	}
	return nil
}

// RenderBytes renders rec into memory.
func (r *Renderer) RenderBytes(rec *types.CompanyRecord, isIFRS bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(rec, isIFRS, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderFile writes the chart for rec to dir/<name>.png, replacing any
// previous file, and returns the path.
func (r *Renderer) RenderFile(rec *types.CompanyRecord, isIFRS bool, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart dir: %w", err)
	}
	dest := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+".png")
	tmp, err := os.CreateTemp(dir, ".chart-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := r.Render(rec, isIFRS, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming chart: %w", err)
	}
	return dest, nil
}

// yenPrinter groups digits the way the axis labels are read.
var yenPrinter = message.NewPrinter(language.Japanese)

// AxisLabel formats a yen amount in units of 億円 with thousands
// separators.
func AxisLabel(y float64) string {
	return yenPrinter.Sprintf("%d億円", int64(math.Round(y/oku)))
}

// tickStep picks a 1-2-5 step giving roughly eight ticks over span.
func tickStep(span float64) float64 {
	if span <= 0 {
		return oku
	}
	raw := span / 8
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}
