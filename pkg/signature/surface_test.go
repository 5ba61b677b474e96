package signature_test

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/signature"
)

type recorder struct {
	values []string
}

func (r *recorder) bind(v string) { r.values = append(r.values, v) }

func (r *recorder) last() string {
	if len(r.values) == 0 {
		return ""
	}
	return r.values[len(r.values)-1]
}

func TestSurface_EmptyUntilStrokeCompletes(t *testing.T) {
	rec := &recorder{}
	s := signature.NewSurface(signature.Config{Width: 100, Height: 40}, rec.bind)

	if !s.Empty() {
		t.Fatalf("new surface must be empty")
	}

	s.OnStrokeStart(signature.Point{X: 10, Y: 10})
	s.OnStrokeMove(signature.Point{X: 60, Y: 30})
	if len(rec.values) != 0 {
		t.Fatalf("binder must not fire before stroke end, got %d calls", len(rec.values))
	}

	if err := s.OnStrokeEnd(); err != nil {
		t.Fatalf("stroke end: %v", err)
	}
	if s.Empty() {
		t.Fatalf("surface must hold an artifact after a completed stroke")
	}
	if !strings.HasPrefix(rec.last(), signature.DataURLPrefix) {
		t.Fatalf("expected png data url, got %.40q", rec.last())
	}
	if rec.last() != s.Artifact() {
		t.Fatalf("bound value and artifact diverged")
	}
}

func TestSurface_ClearIsIdempotent(t *testing.T) {
	rec := &recorder{}
	s := signature.NewSurface(signature.Config{Width: 50, Height: 20}, rec.bind)
	s.OnStrokeStart(signature.Point{X: 5, Y: 5})
	s.OnStrokeMove(signature.Point{X: 40, Y: 15})
	if err := s.OnStrokeEnd(); err != nil {
		t.Fatalf("stroke end: %v", err)
	}

	s.Clear()
	onceArtifact, onceStrokes := s.Artifact(), s.Strokes()
	onceImage := append([]uint8(nil), imagePix(s)...)

	s.Clear()
	if s.Artifact() != onceArtifact || !s.Empty() {
		t.Fatalf("second clear changed artifact")
	}
	if diff := cmp.Diff(onceStrokes, s.Strokes()); diff != "" {
		t.Fatalf("strokes mismatch (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(onceImage, imagePix(s)); diff != "" {
		t.Fatalf("canvas differs after second clear")
	}
	if rec.last() != "" {
		t.Fatalf("clear must bind the empty artifact")
	}
	for _, px := range onceImage {
		if px != 0 {
			t.Fatalf("expected blank canvas after clear")
		}
	}
}

func TestSurface_IgnoresMovesWithoutStart(t *testing.T) {
	rec := &recorder{}
	s := signature.NewSurface(signature.Config{}, rec.bind)

	s.OnStrokeMove(signature.Point{X: 1, Y: 1})
	if err := s.OnStrokeEnd(); err != nil {
		t.Fatalf("stroke end: %v", err)
	}
	if !s.Empty() || len(rec.values) != 0 {
		t.Fatalf("expected no artifact, got %d binder calls", len(rec.values))
	}
}

func TestSurface_TapDrawsDot(t *testing.T) {
	s := signature.NewSurface(signature.Config{Width: 20, Height: 20, PenWidth: 4, Ink: color.Black}, nil)
	s.OnStrokeStart(signature.Point{X: 10, Y: 10})
	if err := s.OnStrokeEnd(); err != nil {
		t.Fatalf("stroke end: %v", err)
	}
	_, _, _, alpha := s.Image().At(10, 10).RGBA()
	if alpha == 0 {
		t.Fatalf("expected ink at tap position")
	}
}

func TestSurface_RoundTripsThroughDecode(t *testing.T) {
	s := signature.NewSurface(signature.Config{Width: 120, Height: 60}, nil)
	err := s.Replay([][]signature.Point{
		{{X: 10, Y: 50}, {X: 40, Y: 10}, {X: 70, Y: 50}},
		{{X: 80, Y: 30}, {X: 110, Y: 30}},
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got := len(s.Strokes()); got != 2 {
		t.Fatalf("expected 2 strokes, got %d", got)
	}

	img, err := signature.DecodeImage(s.Artifact())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 60 {
		t.Fatalf("unexpected bounds %v", b)
	}

	thumb, err := signature.Thumbnail(s.Artifact(), 60)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	small, err := signature.DecodeImage(thumb)
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := small.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Fatalf("unexpected thumbnail bounds %v", b)
	}
}

func TestDecodeArtifact_Rejects(t *testing.T) {
	cases := map[string]error{
		"":                                 signature.ErrEmptyArtifact,
		"hello":                            signature.ErrInvalidDataURL,
		"data:image/png,abc":               signature.ErrInvalidDataURL,
		"data:image/gif;base64,R0lGODlh":   signature.ErrUnsupportedMime,
		"data:image/png;base64,!!notb64!!": signature.ErrInvalidDataURL,
		"data:image/png;base64,aGVsbG8=":   signature.ErrInvalidDataURL,
	}
	for input, want := range cases {
		if _, _, err := signature.DecodeArtifact(input, 0); !errors.Is(err, want) {
			t.Fatalf("DecodeArtifact(%q) error = %v, want %v", input, err, want)
		}
	}
}

func TestNormalize_PointerAndTouch(t *testing.T) {
	box := signature.Box{Left: 100, Top: 50, Width: 250, Height: 100}

	p, ok := signature.Normalize(signature.PointerEvent{ClientX: 225, ClientY: 100}, box, 500, 200)
	if !ok {
		t.Fatalf("expected pointer position")
	}
	if diff := cmp.Diff(signature.Point{X: 250, Y: 100}, p); diff != "" {
		t.Fatalf("pointer mismatch (-want +got):\n%s", diff)
	}

	touch := signature.TouchEvent{Touches: []signature.Touch{{ClientX: 225, ClientY: 100}, {ClientX: 0, ClientY: 0}}}
	tp, ok := signature.Normalize(touch, box, 500, 200)
	if !ok || tp != p {
		t.Fatalf("touch and pointer must normalise identically, got %v", tp)
	}

	clamped, _ := signature.Normalize(signature.PointerEvent{ClientX: 0, ClientY: 999}, box, 500, 200)
	if diff := cmp.Diff(signature.Point{X: 0, Y: 200}, clamped); diff != "" {
		t.Fatalf("clamp mismatch (-want +got):\n%s", diff)
	}

	if _, ok := signature.Normalize(signature.TouchEvent{}, box, 500, 200); ok {
		t.Fatalf("touch end must not yield a position")
	}
}

func imagePix(s *signature.Surface) []uint8 {
	img := s.Image()
	b := img.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			out = append(out, uint8(a>>8))
		}
	}
	return out
}
