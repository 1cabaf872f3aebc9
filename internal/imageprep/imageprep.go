// Package imageprep downsizes uploaded menu photos before they are sent
// to the vision model, keeping payloads under service limits.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Prepare re-encodes an uploaded photo as JPEG, scaling it down so the
// longer dimension does not exceed maxDim. Aspect ratio is preserved.
// Input that cannot be decoded as an image is an error and nothing
// should be sent to the model in that case.
func Prepare(data []byte, maxDim, quality int) ([]byte, string, error) {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("could not read image: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDim > 0 && (width > maxDim || height > maxDim) {
		if width >= height {
			height = height * maxDim / width
			width = maxDim
		} else {
			width = width * maxDim / height
			height = maxDim
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
