// Package imageprep normalizes workout-log photos before text detection.
//
// Phone photos arrive rotated, oversized and with low contrast. The Preparer
// applies EXIF orientation, fits the image into a bounding square and can
// optionally convert it to grayscale and raise the contrast. The result is
// always PNG. Bytes that cannot be decoded are returned unchanged so the OCR
// provider still gets a chance to read them.
package imageprep

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
)

// Options controls the preprocessing steps.
type Options struct {
	// MaxDimension bounds width and height; 0 disables resizing.
	MaxDimension int
	// Grayscale drops colour information.
	Grayscale bool
	// Contrast is a percentage in [-100, 100]; 0 leaves contrast unchanged.
	Contrast float64
}

// Preparer rewrites images according to Options.
type Preparer struct {
	opts Options
	log  zerolog.Logger
}

// NewPreparer creates a Preparer.
func NewPreparer(opts Options) *Preparer {
	return &Preparer{
		opts: opts,
		log:  logger.WithComponent("imageprep"),
	}
}

// Prepare returns the processed image as PNG bytes. Undecodable input is
// returned as-is with a nil error.
func (p *Preparer) Prepare(data []byte) ([]byte, error) {
	const op = "Prepare"

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		p.log.Debug().Err(err).Int("bytes", len(data)).Msg("Image not decodable, passing through")
		return data, nil
	}

	out := p.apply(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%s: failed to encode PNG: %w", op, err)
	}

	bounds := out.Bounds()
	p.log.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("bytes_in", len(data)).
		Int("bytes_out", buf.Len()).
		Msg("Image prepared")

	return buf.Bytes(), nil
}

func (p *Preparer) apply(img image.Image) image.Image {
	if limit := p.opts.MaxDimension; limit > 0 {
		b := img.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = imaging.Fit(img, limit, limit, imaging.Lanczos)
		}
	}
	if p.opts.Grayscale {
		img = imaging.Grayscale(img)
	}
	if p.opts.Contrast != 0 {
		// bild expects the change normalized to [-1, 1].
		img = adjust.Contrast(img, p.opts.Contrast/100)
	}
	return img
}
