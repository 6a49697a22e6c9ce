package guarantor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

var ErrSignatureRequired = errors.New("SIGNATURE_REQUIRED")

// inkThreshold is the grey level below which a pixel counts as ink.
const inkThreshold = 200

// CheckSignature decodes a raster signature and rejects images with no ink.
// Fully transparent pixels never count.
func CheckSignature(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty signature", ErrSignatureRequired)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decode: %v", ErrSignatureRequired, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > 400 {
		img = imaging.Resize(img, 400, 0, imaging.Box)
	}
	gray := imaging.Grayscale(img)

	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := gray.NRGBAAt(x, y)
			if c.A > 0 && c.R < inkThreshold {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: signature is blank", ErrSignatureRequired)
}
