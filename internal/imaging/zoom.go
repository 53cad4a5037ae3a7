package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

// Zoom defaults.
const (
	DefaultZoomRadius = 0.1
	DefaultZoomSize   = 400
	maxZoomSize       = 2048
)

// ZoomResult is a magnified view around a point of the photo.
type ZoomResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// Region is the zoomed area in normalized photo coordinates. A point
	// (u, v) in the zoom image maps back to the photo as
	// (Region.Min.X + u*Region.Span.X, Region.Min.Y + v*Region.Span.Y).
	Region ZoomRegion `json:"region"`
}

// ZoomRegion is a rectangle in normalized photo coordinates.
type ZoomRegion struct {
	Min  cranial.NormPoint `json:"min"`
	Span cranial.NormPoint `json:"span"`
}

// Zoom crops a square around center and scales it so the longer side is
// size pixels. radius is a fraction of the photo's shorter side; the square
// is shifted to stay inside the photo. A crosshair marks center.
func Zoom(img image.Image, center cranial.NormPoint, radius float64, size int) (*ZoomResult, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("zoom center (%g, %g) outside the unit square", center.X, center.Y)
	}
	if radius <= 0 || radius > 0.5 {
		return nil, fmt.Errorf("zoom radius must be in (0, 0.5], got %g", radius)
	}
	if size <= 0 || size > maxZoomSize {
		return nil, fmt.Errorf("zoom size must be in 1..%d, got %d", maxZoomSize, size)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	half := int(math.Round(radius * float64(min(w, h))))
	if half < 1 {
		half = 1
	}
	cx := bounds.Min.X + int(math.Round(center.X*float64(w)))
	cy := bounds.Min.Y + int(math.Round(center.Y*float64(h)))

	x1, x2 := clampSpan(cx-half, cx+half, bounds.Min.X, bounds.Max.X)
	y1, y2 := clampSpan(cy-half, cy+half, bounds.Min.Y, bounds.Max.Y)

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))
	zoomed := imaging.Fit(cropped, size, size, imaging.Lanczos)
	if zoomed.Bounds().Dx() < size && zoomed.Bounds().Dy() < size {
		// Fit never enlarges.
		scale := float64(size) / float64(max(cropped.Bounds().Dx(), cropped.Bounds().Dy()))
		zoomed = imaging.Resize(cropped,
			int(math.Round(float64(cropped.Bounds().Dx())*scale)),
			int(math.Round(float64(cropped.Bounds().Dy())*scale)),
			imaging.Lanczos)
	}

	zw, zh := zoomed.Bounds().Dx(), zoomed.Bounds().Dy()
	mx := int(math.Round(float64(cx-x1) / float64(x2-x1) * float64(zw)))
	my := int(math.Round(float64(cy-y1) / float64(y2-y1) * float64(zh)))
	drawCross(zoomed, mx, my, max(4, zw/40), crossColor)

	encoded, err := encodePNG(zoomed)
	if err != nil {
		return nil, err
	}

	return &ZoomResult{
		Width:       zw,
		Height:      zh,
		ImageBase64: encoded,
		MimeType:    "image/png",
		Region: ZoomRegion{
			Min: cranial.NormPoint{
				X: float64(x1-bounds.Min.X) / float64(w),
				Y: float64(y1-bounds.Min.Y) / float64(h),
			},
			Span: cranial.NormPoint{
				X: float64(x2-x1) / float64(w),
				Y: float64(y2-y1) / float64(h),
			},
		},
	}, nil
}

// clampSpan shifts [lo, hi) to lie within [minV, maxV), shrinking it only
// when it is wider than the range.
func clampSpan(lo, hi, minV, maxV int) (int, int) {
	if hi-lo >= maxV-minV {
		return minV, maxV
	}
	if lo < minV {
		hi += minV - lo
		lo = minV
	}
	if hi > maxV {
		lo -= hi - maxV
		hi = maxV
	}
	return lo, hi
}
