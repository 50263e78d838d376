package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	blurSigma   = 20.0
	jpegQuality = 85
)

// ErrUnreadableImage indicates the photo could not be decoded or has no
// readable dimensions. This is fatal for the whole analysis; no region
// processing starts.
var ErrUnreadableImage = errors.New("image has no readable dimensions")

// RedactAndCrop blurs every privacy region in the photo and then extracts
// one crop per banner region from the fully redacted image.
//
// Redaction completes on the full image before any crop is taken: a privacy
// region that straddles two banner regions must not leak into either crop.
// Privacy regions are applied one at a time against a running JPEG buffer,
// so later regions blur an already-redacted base; the buffer is re-encoded
// after each composite to keep decode/encode state simple. A region whose
// clamped pixel rect is empty is detector noise near the image edge and is
// skipped silently. Banner crops are encoded independently at a fixed JPEG
// quality.
func RedactAndCrop(imageBytes []byte, banners []DetectedBanner, privacy []PrivacyRegion) ([]Crop, error) {
	img, err := decode(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrUnreadableImage
	}

	current := imageBytes
	for _, region := range privacy {
		r := pixelRect(region.BBox, w, h)
		if r.Empty() {
			continue
		}

		base, err := decode(current)
		if err != nil {
			return nil, fmt.Errorf("decode redaction buffer: %w", err)
		}

		patch := imaging.Blur(imaging.Crop(base, r), blurSigma)
		composited := imaging.Paste(base, patch, r.Min)

		current, err = encodeJPEG(composited)
		if err != nil {
			return nil, fmt.Errorf("encode redaction buffer: %w", err)
		}
	}

	redacted, err := decode(current)
	if err != nil {
		return nil, fmt.Errorf("decode redacted image: %w", err)
	}

	crops := make([]Crop, 0, len(banners))
	for _, banner := range banners {
		r := pixelRect(banner.BBox, w, h)
		if r.Empty() {
			continue
		}

		encoded, err := encodeJPEG(imaging.Crop(redacted, r))
		if err != nil {
			return nil, fmt.Errorf("encode crop %s: %w", banner.TempID, err)
		}

		crops = append(crops, Crop{TempID: banner.TempID, ImageBytes: encoded})
	}

	return crops, nil
}

// pixelRect converts a normalized bbox to a pixel rect against the actual
// image dimensions, clamping each edge into the image. Rounding happens
// before clamping so a slightly out-of-range detection degrades to a
// smaller rect instead of an error.
func pixelRect(b Rect, w, h int) image.Rectangle {
	left := clamp(int(math.Round(b.X*float64(w))), 0, w)
	top := clamp(int(math.Round(b.Y*float64(h))), 0, h)
	right := clamp(int(math.Round((b.X+b.Width)*float64(w))), 0, w)
	bottom := clamp(int(math.Round((b.Y+b.Height)*float64(h))), 0, h)
	return image.Rect(left, top, right, bottom)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decode reads an image from bytes via the registered decoders, falling back
// to an explicit WebP decode; no webp decoder is registered with image.Decode.
func decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
