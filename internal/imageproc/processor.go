package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/leca/loqed-births/internal/apperr"
)

const (
	// TargetSize is the side of every normalized image, in pixels.
	TargetSize = 400

	// ContentType is the MIME type of every normalized image.
	ContentType = "image/jpeg"

	jpegQuality = 85
)

// CropBox returns the centered square crop for a w x h image with its origin
// at (0, 0). Offsets use floor division so odd margins favour the top/left.
func CropBox(w, h int) image.Rectangle {
	side := min(w, h)
	x0 := (w - side) / 2
	y0 := (h - side) / 2
	return image.Rect(x0, y0, x0+side, y0+side)
}

// Normalize decodes raw, crops the centered square, resizes it to
// TargetSize x TargetSize with a Lanczos filter and re-encodes it as JPEG.
// Input that cannot be decoded yields an apperr.ErrInvalidImage.
func Normalize(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, apperr.New(apperr.KindInvalidImage, "empty image")
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidImage, "could not decode image", err)
	}

	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, apperr.New(apperr.KindInvalidImage, "image has no pixels")
	}

	box := CropBox(b.Dx(), b.Dy()).Add(b.Min)
	square := imaging.Crop(img, box)
	resized := imaging.Resize(square, TargetSize, TargetSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
