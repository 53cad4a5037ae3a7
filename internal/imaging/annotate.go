package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

// DefaultCalibrationColor is the colour of the calibration segment.
const DefaultCalibrationColor = "#ffd400"

var (
	crossColor = color.NRGBA{255, 255, 255, 255}
	labelFG    = color.NRGBA{255, 255, 255, 255}
	labelBG    = color.NRGBA{0, 0, 0, 180}
	auxColor   = colorful.Hcl(300, 0.05, 0.9).Clamped()
)

// AnnotateOptions selects what is drawn over the photo.
type AnnotateOptions struct {
	Landmarks    []cranial.Landmark
	Calibration  *cranial.Calibration
	PendingStart *cranial.NormPoint

	// Metrics, when set, labels each complete pair with its length in mm.
	Metrics *cranial.Metrics

	// Dim renders the photo in muted grayscale so the overlay stands out.
	Dim bool

	// MaxSize bounds the longer side of the output. Zero keeps the photo size.
	MaxSize int

	// CalibrationColor is a "#rrggbb" colour. Empty or invalid values use
	// DefaultCalibrationColor.
	CalibrationColor string
}

// AnnotateResult is the photo with the overlay drawn on it.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// Legend maps each drawn item to its "#rrggbb" colour.
	Legend map[string]string `json:"legend"`
}

// MeasurementColor returns the overlay colour of a measurement type.
func MeasurementColor(m cranial.Measurement) colorful.Color {
	for i, mm := range cranial.Measurements {
		if mm == m {
			return colorful.Hcl(float64(i)*90+20, 0.9, 0.6).Clamped()
		}
	}
	return auxColor
}

// Annotate draws landmarks, measurement segments and the calibration
// segment over img. Landmark coordinates are normalized, so they are placed
// correctly whatever the output size.
func Annotate(img image.Image, opts AnnotateOptions) (*AnnotateResult, error) {
	set := cranial.NewMeasurementSet(opts.Landmarks)

	var base image.Image = img
	if opts.MaxSize > 0 {
		base = imaging.Fit(base, opts.MaxSize, opts.MaxSize, imaging.Lanczos)
	}
	if opts.Dim {
		base = adjust.Brightness(effect.Grayscale(base), -0.3)
	}
	canvas := imaging.Clone(base)
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	toPx := func(p cranial.NormPoint) (int, int) {
		return int(math.Round(p.X * float64(w-1))), int(math.Round(p.Y * float64(h-1)))
	}
	thick := max(1, min(w, h)/300)
	marker := max(3, min(w, h)/120)
	legend := make(map[string]string)

	if cal := opts.Calibration; cal != nil {
		calColor, err := colorful.Hex(opts.CalibrationColor)
		if err != nil {
			calColor, _ = colorful.Hex(DefaultCalibrationColor)
		}
		x1, y1 := toPx(cal.Start)
		x2, y2 := toPx(cal.End)
		drawLine(canvas, x1, y1, x2, y2, thick, calColor)
		drawMarker(canvas, x1, y1, marker, calColor)
		drawMarker(canvas, x2, y2, marker, calColor)
		drawLabel(canvas, (x1+x2)/2+marker, (y1+y2)/2+marker, formatMM(cal.LengthMM), labelFG, labelBG)
		legend["calibration"] = calColor.Hex()
	}
	if p := opts.PendingStart; p != nil {
		x, y := toPx(*p)
		drawCross(canvas, x, y, marker*2, crossColor)
	}

	for _, m := range cranial.Measurements {
		c := MeasurementColor(m)
		start, end, ok := set.Pair(m)
		if ok {
			x1, y1 := toPx(start)
			x2, y2 := toPx(end)
			drawLine(canvas, x1, y1, x2, y2, thick, c)
			if opts.Metrics != nil {
				drawLabel(canvas, (x1+x2)/2+marker, (y1+y2)/2+marker, formatMM(lengthOf(opts.Metrics, m)), labelFG, labelBG)
			}
		}
		if set.Count(string(m)) > 0 {
			legend[string(m)] = c.Hex()
		}
	}
	for _, lm := range set.Landmarks() {
		c := auxColor
		if m, ok := cranial.ParseMeasurement(lm.Label.Prefix()); ok {
			c = MeasurementColor(m)
		} else {
			legend[string(lm.Label)] = auxColor.Hex()
		}
		x, y := toPx(lm.Point)
		drawMarker(canvas, x, y, marker, c)
	}

	encoded, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		Width:       w,
		Height:      h,
		ImageBase64: encoded,
		MimeType:    "image/png",
		Legend:      legend,
	}, nil
}

func lengthOf(m *cranial.Metrics, meas cranial.Measurement) float64 {
	switch meas {
	case cranial.Comprimento:
		return m.ComprimentoMM
	case cranial.Largura:
		return m.LarguraMM
	case cranial.DiagonalD:
		return m.DiagonalDMM
	case cranial.DiagonalE:
		return m.DiagonalEMM
	}
	return 0
}

func formatMM(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func setSafe(img draw.Image, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// drawLine draws a segment of the given thickness by stepping along its
// longer axis.
func drawLine(img draw.Image, x1, y1, x2, y2, thick int, c color.Color) {
	dx, dy := x2-x1, y2-y1
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		drawMarker(img, x1, y1, thick, c)
		return
	}
	r := thick / 2
	for i := 0; i <= steps; i++ {
		x := x1 + int(math.Round(float64(dx*i)/float64(steps)))
		y := y1 + int(math.Round(float64(dy*i)/float64(steps)))
		for oy := -r; oy <= r; oy++ {
			for ox := -r; ox <= r; ox++ {
				setSafe(img, x+ox, y+oy, c)
			}
		}
	}
}

// drawMarker draws a filled square of side 2*r+1 centred on (x, y).
func drawMarker(img draw.Image, x, y, r int, c color.Color) {
	for oy := -r; oy <= r; oy++ {
		for ox := -r; ox <= r; ox++ {
			setSafe(img, x+ox, y+oy, c)
		}
	}
}

// drawCross draws a one-pixel crosshair with arms of length r.
func drawCross(img draw.Image, x, y, r int, c color.Color) {
	for o := -r; o <= r; o++ {
		setSafe(img, x+o, y, c)
		setSafe(img, x, y+o, c)
	}
}

// drawLabel draws text with a 3x5 pixel font. Only digits, '.', ',' and
// '-' have glyphs; other runes leave a gap.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'.': {"000", "000", "000", "000", "010"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setSafe(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setSafe(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
