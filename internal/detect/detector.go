package detect

import (
	"crypto/sha256"
	"image"
	"sync"
)

// Detector is the stateful change gate used by the monitor loop. It keeps
// the last frame that was reported as changed and compares every new frame
// against it.
//
// The reference is only replaced when a change is reported, so a series of
// small steps that individually stay under the threshold still adds up to
// a change against the older reference.
type Detector struct {
	mu   sync.Mutex
	opts Options

	ref *image.Gray
	fp  [sha256.Size]byte
	has bool
}

// New returns a detector with opts. Zero-valued size fields fall back to
// [DefaultOptions].
func New(opts Options) *Detector {
	return &Detector{opts: opts.withDefaults()}
}

// Threshold returns the current change threshold in percent.
func (d *Detector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opts.Threshold
}

// SetThreshold updates the change threshold. It takes effect on the next
// call to [Detector.Detect].
func (d *Detector) SetThreshold(pct float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts.Threshold = max(pct, 0)
}

// Reset forgets the reference so the next frame is treated as the first.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ref, d.has = nil, false
}

// Detect compares cur with the stored reference. The first frame is always
// changed with magnitude 100. Failures fail open and leave the reference
// untouched.
func (d *Detector) Detect(cur image.Image) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	fp, err := Fingerprint(cur, d.opts.FingerprintSize)
	if err != nil {
		return failOpen(err)
	}
	if d.has && fp == d.fp {
		return Decision{Reason: ReasonIdentical}
	}
	g, err := grey(cur, d.opts.CompareWidth, d.opts.CompareHeight)
	if err != nil {
		return failOpen(err)
	}
	if !d.has {
		d.ref, d.fp, d.has = g, fp, true
		return Decision{Changed: true, Magnitude: 100, Reason: ReasonFirst, Current: g}
	}

	dec := judge(d.ref, g, d.opts)
	if dec.Changed && dec.Err == nil {
		d.ref, d.fp = g, fp
	}
	return dec
}
