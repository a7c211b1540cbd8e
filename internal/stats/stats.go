package stats

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime/metrics"
	"time"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	textlang "golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Panel layout in pixels.
const (
	FontSize = 13
	Left     = 5
	Margin   = 8
	MinWidth = 100
)

const heapMetric = "/memory/classes/heap/objects:bytes"

var background = color.RGBA{R: 128, G: 128, B: 128, A: 128}

// Panel measures frame timings and draws them into an RGBA image.
type Panel struct {
	shaper  shaping.HarfbuzzShaper
	shape   *gtfont.Face
	face    xfont.Face
	printer *message.Printer
	sample  []metrics.Sample

	begin, prev time.Time
	img         *image.RGBA
}

// New creates a panel using the bundled Go Mono Bold font.
func New() (*Panel, error) {
	parsed, err := gtfont.ParseTTF(bytes.NewReader(gomonobold.TTF))
	if err != nil {
		return nil, fmt.Errorf("stats: parse font: %w", err)
	}
	otf, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("stats: parse font: %w", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    FontSize,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("stats: face: %w", err)
	}
	return &Panel{
		shape:   gtfont.NewFace(parsed.Font),
		face:    face,
		printer: message.NewPrinter(textlang.English),
		sample:  []metrics.Sample{{Name: heapMetric}},
	}, nil
}

// BeginFrame marks the start of a frame.
func (p *Panel) BeginFrame(now time.Time) {
	p.prev = p.begin
	p.begin = now
}

// Lines formats the statistics for the frame begun by the last
// BeginFrame. gpu is the averaged GPU time; it is omitted when haveGPU
// is false.
func (p *Panel) Lines(now time.Time, gpu time.Duration, haveGPU bool) []string {
	var lines []string
	if !p.prev.IsZero() {
		lines = append(lines, p.timing("ms/frame", p.begin.Sub(p.prev)))
	} else {
		lines = append(lines, p.timing("ms/frame", 0))
	}
	lines = append(lines, p.timing("cpu", now.Sub(p.begin)))
	if haveGPU {
		lines = append(lines, p.timing("gpu", gpu))
	}

	metrics.Read(p.sample)
	if v := p.sample[0].Value; v.Kind() == metrics.KindUint64 && v.Uint64() > 0 {
		lines = append(lines, p.printer.Sprintf("mem: %.2fmb", float64(v.Uint64())/1024/1024))
	}
	return lines
}

func (p *Panel) timing(label string, d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	fps := 0
	if ms > 0 {
		fps = int(math.Round(1000 / ms))
	}
	return p.printer.Sprintf("%s: %.2fms (%dfps)", label, ms, fps)
}

// Measure returns the advance width of s in pixels.
func (p *Panel) Measure(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	out := p.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      p.shape,
		Size:      fixed.I(FontSize),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.Advance
	}
	return float64(adv) / 64
}

// EndFrame renders the statistics and returns the panel image. The image
// is reused between frames while its size is unchanged.
func (p *Panel) EndFrame(now time.Time, gpu time.Duration, haveGPU bool) *image.RGBA {
	return p.Render(p.Lines(now, gpu, haveGPU))
}

// Render draws lines onto the panel image, resizing it to fit.
func (p *Panel) Render(lines []string) *image.RGBA {
	width := float64(MinWidth)
	for _, l := range lines {
		width = max(width, p.Measure(l)+Left)
	}
	w := int(math.Round(width)) + Margin
	h := len(lines)*FontSize + Margin

	if p.img == nil || p.img.Rect.Dx() != w || p.img.Rect.Dy() != h {
		p.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.Draw(p.img, p.img.Rect, image.NewUniform(background), image.Point{}, draw.Src)

	d := &xfont.Drawer{
		Dst:  p.img,
		Src:  image.Black,
		Face: p.face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(Left, (i+1)*FontSize)
		d.DrawString(l)
	}
	return p.img
}

// Close releases the font face.
func (p *Panel) Close() error {
	return p.face.Close()
}
