package signature

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"
)

// DataURLPrefix prefixes every artifact produced by a Surface.
const DataURLPrefix = "data:image/png;base64,"

// Binder receives the serialised artifact whenever it changes.
type Binder func(artifact string)

// Config sizes and styles the surface.
type Config struct {
	Width    int
	Height   int
	PenWidth float64
	Ink      color.Color
}

// DefaultConfig matches the portal's 500x200 signature pad.
func DefaultConfig() Config {
	return Config{Width: 500, Height: 200, PenWidth: 2.5, Ink: color.Black}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.PenWidth <= 0 {
		c.PenWidth = def.PenWidth
	}
	if c.Ink == nil {
		c.Ink = def.Ink
	}
	return c
}

// Surface is a freehand drawing canvas. It is not safe for concurrent use;
// events are expected to arrive from a single input loop.
type Surface struct {
	cfg      Config
	bind     Binder
	canvas   *image.RGBA
	raster   *vector.Rasterizer
	drawing  bool
	last     Point
	current  []Point
	strokes  [][]Point
	artifact string
}

// NewSurface returns an empty surface bound to bind. bind may be nil.
func NewSurface(cfg Config, bind Binder) *Surface {
	cfg = cfg.withDefaults()
	return &Surface{
		cfg:    cfg,
		bind:   bind,
		canvas: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		raster: vector.NewRasterizer(cfg.Width, cfg.Height),
	}
}

// Size returns the raster dimensions.
func (s *Surface) Size() (int, int) {
	return s.cfg.Width, s.cfg.Height
}

// OnStrokeStart begins a stroke at p.
func (s *Surface) OnStrokeStart(p Point) {
	s.drawing = true
	s.last = p
	s.current = []Point{p}
}

// OnStrokeMove extends the current stroke to p. Moves without a started
// stroke are ignored.
func (s *Surface) OnStrokeMove(p Point) {
	if !s.drawing {
		return
	}
	s.segment(s.last, p)
	s.last = p
	s.current = append(s.current, p)
}

// OnStrokeEnd completes the stroke and serialises the canvas into the bound
// field. Ending without a started stroke is a no-op.
func (s *Surface) OnStrokeEnd() error {
	if !s.drawing {
		return nil
	}
	s.drawing = false
	if len(s.current) == 1 {
		s.dot(s.current[0])
	}
	s.strokes = append(s.strokes, s.current)
	s.current = nil

	artifact, err := encodePNG(s.canvas)
	if err != nil {
		return fmt.Errorf("signature: encode: %w", err)
	}
	s.artifact = artifact
	if s.bind != nil {
		s.bind(artifact)
	}
	return nil
}

// Clear erases the canvas and binds the empty artifact.
func (s *Surface) Clear() {
	draw.Draw(s.canvas, s.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	s.drawing = false
	s.current = nil
	s.strokes = nil
	s.artifact = ""
	if s.bind != nil {
		s.bind("")
	}
}

// Empty reports whether no stroke has been completed since the last Clear.
func (s *Surface) Empty() bool {
	return s.artifact == ""
}

// Artifact returns the current data URL, or "" when empty.
func (s *Surface) Artifact() string {
	return s.artifact
}

// Strokes returns a copy of the completed strokes.
func (s *Surface) Strokes() [][]Point {
	out := make([][]Point, len(s.strokes))
	for i, stroke := range s.strokes {
		out[i] = append([]Point(nil), stroke...)
	}
	return out
}

// Image returns the canvas. Callers must not modify it.
func (s *Surface) Image() image.Image {
	return s.canvas
}

// PointerDown, PointerMove and PointerUp adapt raw input events.
func (s *Surface) PointerDown(in Input, box Box) {
	if p, ok := Normalize(in, box, s.cfg.Width, s.cfg.Height); ok {
		s.OnStrokeStart(p)
	}
}

func (s *Surface) PointerMove(in Input, box Box) {
	if p, ok := Normalize(in, box, s.cfg.Width, s.cfg.Height); ok {
		s.OnStrokeMove(p)
	}
}

func (s *Surface) PointerUp() error {
	return s.OnStrokeEnd()
}

// Replay draws strokes as if they had been entered by hand, binding once per
// stroke.
func (s *Surface) Replay(strokes [][]Point) error {
	for _, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		s.OnStrokeStart(stroke[0])
		for _, p := range stroke[1:] {
			s.OnStrokeMove(p)
		}
		if err := s.OnStrokeEnd(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) segment(a, b Point) {
	half := float32(s.cfg.PenWidth / 2)
	dx, dy := float32(b.X-a.X), float32(b.Y-a.Y)
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		s.dot(a)
		return
	}
	nx, ny := -dy/length*half, dx/length*half

	z := s.raster
	z.Reset(s.cfg.Width, s.cfg.Height)
	z.MoveTo(float32(a.X)+nx, float32(a.Y)+ny)
	z.LineTo(float32(b.X)+nx, float32(b.Y)+ny)
	z.LineTo(float32(b.X)-nx, float32(b.Y)-ny)
	z.LineTo(float32(a.X)-nx, float32(a.Y)-ny)
	z.ClosePath()
	s.fill()
	s.dot(b)
}

// dot draws a round pen tip, which also gives segments round joins.
func (s *Surface) dot(p Point) {
	const sides = 16
	r := s.cfg.PenWidth / 2
	z := s.raster
	z.Reset(s.cfg.Width, s.cfg.Height)
	for i := 0; i < sides; i++ {
		angle := 2 * math.Pi * float64(i) / sides
		x := float32(p.X + r*math.Cos(angle))
		y := float32(p.Y + r*math.Sin(angle))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
	s.fill()
}

func (s *Surface) fill() {
	s.raster.Draw(s.canvas, s.canvas.Bounds(), image.NewUniform(s.cfg.Ink), image.Point{})
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
