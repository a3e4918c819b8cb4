// Package imaging prepares user-selected images for upload: decode, scale
// down to a bounded width, re-encode as JPEG, and hand out a local preview
// handle that must be released when the slot is cleared.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"math"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/image/draw"
)

const (
	// MaxWidth bounds the longest upload: anything wider is scaled down
	// proportionally so the re-encoded blob stays small.
	MaxWidth = 1200

	// JPEGQuality is the fixed re-encode quality factor.
	JPEGQuality = 80
)

// ErrProcessing is the generic error surfaced when an image cannot be
// decoded or re-encoded. The underlying cause is deliberately not exposed
// to the caller.
var ErrProcessing = errors.New("could not process image")

// Preview is the locally renderable handle for a prepared image. Every
// preview must be released when its slot is cleared, replaced, or the
// owning form is torn down; an unreleased preview leaks.
type Preview struct {
	URL      string
	released bool
}

func newPreview() *Preview {
	token, err := gonanoid.New(9)
	if err != nil {
		token = "preview"
	}
	return &Preview{URL: "blob:agita/" + token}
}

// Release revokes the preview handle. Releasing twice is harmless.
func (p *Preview) Release() {
	p.released = true
}

func (p *Preview) Released() bool {
	return p.released
}

// Prepared is a size- and format-normalized image ready for upload.
type Prepared struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
	Preview     *Preview
}

// Process decodes a raster image, scales it down to MaxWidth if wider
// (preserving aspect ratio), and re-encodes it as JPEG. Failures return
// ErrProcessing and leave nothing half-built for the caller to clean up.
func Process(r io.Reader) (*Prepared, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, ErrProcessing
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > MaxWidth {
		scaled := int(math.Round(float64(height) * MaxWidth / float64(width)))
		if scaled < 1 {
			scaled = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxWidth, scaled))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		src = dst
		width = MaxWidth
		height = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, ErrProcessing
	}

	return &Prepared{
		Data:        buf.Bytes(),
		Width:       width,
		Height:      height,
		ContentType: "image/jpeg",
		Preview:     newPreview(),
	}, nil
}
