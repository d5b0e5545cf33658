// Package detect decides whether a new screen capture differs enough from
// the last one to be worth recognising.
//
// Detection runs in two steps. A coarse fingerprint (32x32, quantised
// grey) short-circuits identical screens. Otherwise both frames are
// downscaled to a fixed comparison size and the share of pixels whose grey
// level moved by more than a small delta is compared with a threshold.
package detect

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrEmptyFrame is reported when a frame is nil or has no pixels.
var ErrEmptyFrame = errors.New("detect: empty frame")

// Reason says how a [Decision] was reached.
type Reason string

const (
	ReasonFirst     Reason = "first"
	ReasonIdentical Reason = "identical"
	ReasonBelow     Reason = "below-threshold"
	ReasonChanged   Reason = "changed"
	ReasonFailOpen  Reason = "fail-open"
)

// Options control detection. Use [DefaultOptions] as a base.
type Options struct {
	// Threshold is the percentage of changed pixels at or above which a
	// frame counts as changed.
	Threshold float64
	// PixelDelta is the grey level difference a pixel must exceed to count.
	PixelDelta uint8
	// FingerprintSize is the square edge used for the fingerprint.
	FingerprintSize int
	// CompareWidth and CompareHeight are the comparison resolution.
	CompareWidth  int
	CompareHeight int
}

// DefaultOptions returns a 5% threshold, a 20 grey-level pixel delta, a
// 32x32 fingerprint and a 400x300 comparison resolution.
func DefaultOptions() Options {
	return Options{
		Threshold:       5.0,
		PixelDelta:      20,
		FingerprintSize: 32,
		CompareWidth:    400,
		CompareHeight:   300,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Threshold < 0 {
		o.Threshold = 0
	}
	if o.FingerprintSize <= 0 {
		o.FingerprintSize = def.FingerprintSize
	}
	if o.CompareWidth <= 0 || o.CompareHeight <= 0 {
		o.CompareWidth, o.CompareHeight = def.CompareWidth, def.CompareHeight
	}
	return o
}

// Decision is the outcome of comparing a frame with its reference.
type Decision struct {
	Changed bool
	// Magnitude is the percentage of compared pixels that changed, 0..100.
	Magnitude float64
	Reason    Reason
	// Err is set when detection failed and the decision failed open.
	Err error
	// Previous and Current are the comparison-resolution grey frames. They
	// are only set when a pixel comparison ran.
	Previous *image.Gray
	Current  *image.Gray
}

// Fingerprint returns a hash of img downscaled to size x size grey pixels
// with each level quantised into eight buckets. Screens that differ only by
// scaling noise share a fingerprint.
func Fingerprint(img image.Image, size int) ([sha256.Size]byte, error) {
	g, err := grey(img, size, size)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	q := make([]byte, len(g.Pix))
	for i, p := range g.Pix {
		q[i] = p / 32
	}
	return sha256.Sum256(q), nil
}

// Magnitude returns the percentage of pixels in a and b whose grey levels
// differ by more than delta. Both images must have the same bounds size.
func Magnitude(a, b *image.Gray, delta uint8) (float64, error) {
	if a.Rect.Dx() != b.Rect.Dx() || a.Rect.Dy() != b.Rect.Dy() {
		return 0, fmt.Errorf("detect: size mismatch %v vs %v", a.Rect.Size(), b.Rect.Size())
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, ErrEmptyFrame
	}
	changed := 0
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x := range w {
			if absDiff(ra[x], rb[x]) > delta {
				changed++
			}
		}
	}
	return 100 * float64(changed) / float64(w*h), nil
}

// DiffImage returns a mask that is white wherever a and b differ by more
// than delta.
func DiffImage(a, b *image.Gray, delta uint8) *image.Gray {
	w, h := min(a.Rect.Dx(), b.Rect.Dx()), min(a.Rect.Dy(), b.Rect.Dy())
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := range w {
			if absDiff(a.Pix[y*a.Stride+x], b.Pix[y*b.Stride+x]) > delta {
				out.Pix[y*out.Stride+x] = 0xff
			}
		}
	}
	return out
}

// Compare decides whether cur differs from prev under opts. It never
// fails: comparison errors are reported in [Decision.Err] with Changed set.
func Compare(prev, cur image.Image, opts Options) Decision {
	opts = opts.withDefaults()
	pfp, err := Fingerprint(prev, opts.FingerprintSize)
	if err != nil {
		return failOpen(err)
	}
	cfp, err := Fingerprint(cur, opts.FingerprintSize)
	if err != nil {
		return failOpen(err)
	}
	if pfp == cfp {
		return Decision{Reason: ReasonIdentical}
	}
	pg, err := grey(prev, opts.CompareWidth, opts.CompareHeight)
	if err != nil {
		return failOpen(err)
	}
	cg, err := grey(cur, opts.CompareWidth, opts.CompareHeight)
	if err != nil {
		return failOpen(err)
	}
	return judge(pg, cg, opts)
}

func judge(prev, cur *image.Gray, opts Options) Decision {
	mag, err := Magnitude(prev, cur, opts.PixelDelta)
	if err != nil {
		return failOpen(err)
	}
	d := Decision{Magnitude: mag, Reason: ReasonBelow, Previous: prev, Current: cur}
	if mag >= opts.Threshold {
		d.Changed = true
		d.Reason = ReasonChanged
	}
	return d
}

func failOpen(err error) Decision {
	return Decision{Changed: true, Reason: ReasonFailOpen, Err: err}
}

// grey converts img to a w x h grey image, scaling when the sizes differ.
func grey(img image.Image, w, h int) (g *image.Gray, err error) {
	if img == nil {
		return nil, ErrEmptyFrame
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyFrame
	}
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("detect: scale frame: %v", r)
		}
	}()
	g = image.NewGray(image.Rect(0, 0, w, h))
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(g, g.Rect, img, b.Min, draw.Src)
		return g, nil
	}
	draw.ApproxBiLinear.Scale(g, g.Rect, img, b, draw.Src, nil)
	return g, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
