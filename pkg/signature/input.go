package signature

// Point is a position in raster coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Box is the on-screen bounding box of the surface in client coordinates.
// It is usually smaller or larger than the raster, so event positions are
// scaled.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Input is a pointer or touch event carrying client coordinates.
type Input interface {
	clientPosition() (x, y float64, ok bool)
}

// PointerEvent is a mouse or pen event.
type PointerEvent struct {
	ClientX float64
	ClientY float64
}

func (e PointerEvent) clientPosition() (float64, float64, bool) {
	return e.ClientX, e.ClientY, true
}

// Touch is a single contact of a TouchEvent.
type Touch struct {
	ClientX float64
	ClientY float64
}

// TouchEvent carries the active touches; only the first one draws. A touch
// end event has no touches and yields no position.
type TouchEvent struct {
	Touches []Touch
}

func (e TouchEvent) clientPosition() (float64, float64, bool) {
	if len(e.Touches) == 0 {
		return 0, 0, false
	}
	return e.Touches[0].ClientX, e.Touches[0].ClientY, true
}

// Normalize converts an input event into raster coordinates for a surface of
// width x height pixels displayed inside box. Positions outside the box are
// clamped to the edge.
func Normalize(in Input, box Box, width, height int) (Point, bool) {
	if in == nil {
		return Point{}, false
	}
	x, y, ok := in.clientPosition()
	if !ok {
		return Point{}, false
	}
	scaleX, scaleY := 1.0, 1.0
	if box.Width > 0 {
		scaleX = float64(width) / box.Width
	}
	if box.Height > 0 {
		scaleY = float64(height) / box.Height
	}
	return Point{
		X: clamp((x-box.Left)*scaleX, 0, float64(width)),
		Y: clamp((y-box.Top)*scaleY, 0, float64(height)),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
