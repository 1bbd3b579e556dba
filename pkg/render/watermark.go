package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** Text colors for the named values. Hex values are drawn fully opaque.
**************************************************************************************************/
var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 242} // rgba(255,255,255,0.95)
	Black = color.NRGBA{R: 0, G: 0, B: 0, A: 230}       // rgba(0,0,0,0.9)
)

/**************************************************************************************************
** Metrics holds the sizes, in pixels of the normalized image, used to lay out the watermark.
**************************************************************************************************/
type Metrics struct {
	FontSize   int     // Em size of the face
	LineHeight float64 // Distance between the tops of two consecutive lines
	Padding    float64 // Distance between the text block and the image edges
	Border     int     // Outline radius, 0 when no border is drawn
}

/**************************************************************************************************
** MetricsFor derives the layout sizes from the advanced options. Sizes are relative to
** utils.StandardDimension rather than to the actual image, which is what keeps every image of a
** batch identical.
**
** Font sizes: small 2.5%, medium 3.5%, large 4.5% of the standard dimension.
** Border radius: thin max(1, 5%), medium max(2, 8%), thick max(3, 12%) of the font size.
**************************************************************************************************/
func MetricsFor(opts utils.TAdvancedOptions) Metrics {
	var fontSize int
	switch opts.FontSize {
	case utils.SizeSmall:
		fontSize = int(math.Floor(utils.StandardDimension * 0.025))
	case utils.SizeLarge:
		fontSize = int(math.Floor(utils.StandardDimension * 0.045))
	default:
		fontSize = int(math.Floor(utils.StandardDimension * 0.035))
	}

	fs := float64(fontSize)
	m := Metrics{
		FontSize:   fontSize,
		LineHeight: math.Max(fs*1.2-10, fs*0.8),
		Padding:    fs * 0.8,
	}

	if opts.HasBorder {
		switch opts.BorderWidth {
		case utils.BorderThin:
			m.Border = max(1, int(math.Floor(fs*0.05)))
		case utils.BorderThick:
			m.Border = max(3, int(math.Floor(fs*0.12)))
		default:
			m.Border = max(2, int(math.Floor(fs*0.08)))
		}
	}
	return m
}

/**************************************************************************************************
** ParseColor maps "white", "black", "#rgb" and "#rrggbb" to a color.
**************************************************************************************************/
func ParseColor(value string) (color.NRGBA, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case utils.ColorWhite:
		return White, nil
	case utils.ColorBlack:
		return Black, nil
	}

	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if !strings.HasPrefix(strings.TrimSpace(value), "#") || (len(hex) != 3 && len(hex) != 6) {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q", value)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q: %w", value, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

/**************************************************************************************************
** Layout returns the top-left corner of each line. The block is anchored to the requested corner
** using its widest line, then every line starts at the same x. Coordinates are rounded to whole
** pixels so text stays sharp.
**
** @param widths - Measured width of each line, in pixels
** @param m - Layout metrics
** @param position - Corner name
** @param width, height - Image size
** @return []image.Point - Top-left corner of each line
**************************************************************************************************/
func Layout(widths []int, m Metrics, position string, width, height int) []image.Point {
	maxWidth := 0
	for _, w := range widths {
		maxWidth = max(maxWidth, w)
	}
	totalHeight := m.LineHeight * float64(len(widths))

	startX := m.Padding
	if strings.Contains(position, "right") {
		startX = float64(width) - float64(maxWidth) - m.Padding
	}
	startY := m.Padding
	if strings.Contains(position, "bottom") {
		startY = float64(height) - totalHeight - m.Padding
	}

	points := make([]image.Point, len(widths))
	for i := range widths {
		points[i] = image.Point{
			X: int(math.Round(startX)),
			Y: int(math.Round(startY + float64(i)*m.LineHeight)),
		}
	}
	return points
}

/**************************************************************************************************
** DrawWatermark writes the lines onto dst with the given face. Each line is first rasterized into
** an alpha mask; when a border is requested the mask is dilated by the border radius and painted
** in the border color before the text itself is painted on top.
**
** @param dst - Normalized image, modified in place
** @param face - Face sized to m.FontSize
** @param lines - Text lines, top to bottom
** @param opts - Options with defaults applied
** @param m - Layout metrics
** @return error - When a color cannot be parsed
**************************************************************************************************/
func DrawWatermark(dst *image.RGBA, face font.Face, lines []string, opts utils.TAdvancedOptions, m Metrics) error {
	textColor, err := ParseColor(opts.TextColor)
	if err != nil {
		return err
	}
	var borderColor color.NRGBA
	if m.Border > 0 {
		if borderColor, err = ParseColor(opts.BorderColor); err != nil {
			return err
		}
	}

	widths := make([]int, len(lines))
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
	}
	points := Layout(widths, m, opts.Position, dst.Bounds().Dx(), dst.Bounds().Dy())

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineBox := ascent + metrics.Descent.Ceil()

	for i, line := range lines {
		if line == "" {
			continue
		}
		// The mask keeps a margin of m.Border on every side for the outline.
		mask := image.NewAlpha(image.Rect(0, 0, widths[i]+2*m.Border, lineBox+2*m.Border))
		d := &font.Drawer{
			Dst:  mask,
			Src:  image.Opaque,
			Face: face,
			Dot:  fixed.P(m.Border, m.Border+ascent),
		}
		d.DrawString(line)

		origin := points[i].Sub(image.Pt(m.Border, m.Border))
		target := mask.Bounds().Add(origin)

		if m.Border > 0 {
			outline := dilate(mask, m.Border)
			draw.DrawMask(dst, target, image.NewUniform(borderColor), image.Point{}, outline, image.Point{}, draw.Over)
		}
		draw.DrawMask(dst, target, image.NewUniform(textColor), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return nil
}

/**************************************************************************************************
** dilate grows an alpha mask by a disc of the given radius: every output pixel takes the maximum
** alpha found within radius of it.
**************************************************************************************************/
func dilate(mask *image.Alpha, radius int) *image.Alpha {
	b := mask.Bounds()
	out := image.NewAlpha(b)
	w, h := b.Dx(), b.Dy()

	for dy := -radius; dy <= radius; dy++ {
		span := int(math.Sqrt(float64(radius*radius - dy*dy)))
		for dx := -span; dx <= span; dx++ {
			for y := max(0, -dy); y < min(h, h-dy); y++ {
				src := mask.Pix[(y+dy)*mask.Stride:]
				row := out.Pix[y*out.Stride:]
				for x := max(0, -dx); x < min(w, w-dx); x++ {
					if a := src[x+dx]; a > row[x] {
						row[x] = a
					}
				}
			}
		}
	}
	return out
}
