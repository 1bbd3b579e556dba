/**************************************************************************************************
** Package render turns a source photo into the final watermarked JPEG: it applies the per-image
** rotation and crop, resamples the result to the standard dimension, draws the three-line
** watermark and encodes the output.
**************************************************************************************************/
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"sync"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

// ErrRender wraps every failure to decode, draw or encode an image.
var ErrRender = errors.New("render failed")

/**************************************************************************************************
** Renderer draws watermarks with the embedded Go fonts (or a custom regular font). Fonts load in
** the background as soon as the renderer is created; see Ready.
**
** A Renderer is safe for concurrent use. Faces are not, so drawing is serialized.
**************************************************************************************************/
type Renderer struct {
	logger   *logrus.Logger
	fontFile string

	ready   chan struct{}
	fonts   *fontSet
	loadErr error

	faces *utils.LRUCache[font.Face]
	mu    sync.Mutex
}

/**************************************************************************************************
** New creates a renderer and starts loading its fonts.
**
** @param logger - Logger for font warnings
** @param fontFile - Optional TTF/OTF file replacing the regular face, "" for the embedded one
** @return *Renderer - Renderer whose fonts may still be loading
**************************************************************************************************/
func New(logger *logrus.Logger, fontFile string) *Renderer {
	r := &Renderer{
		logger:   logger,
		fontFile: fontFile,
		ready:    make(chan struct{}),
		faces:    newFaceCache(logger),
	}
	go r.loadFonts()
	return r
}

/**************************************************************************************************
** Render decodes an image, adjusts and normalizes it, draws the watermark lines and encodes the
** result as a JPEG. Images whose header declares more than utils.MaxImagePixels are refused
** before their pixels are decoded.
**
** @param data - Encoded source image (JPEG, PNG, GIF, WebP, BMP or TIFF)
** @param lines - Watermark lines, top to bottom
** @param opts - Advanced options with defaults applied
** @param adjustment - Per-image adjustment, nil for none
** @return []byte - JPEG output
** @return error - Wrapping ErrRender
**************************************************************************************************/
func (r *Renderer) Render(data []byte, lines []string, opts utils.TAdvancedOptions, adjustment *utils.TImageAdjustment) ([]byte, error) {
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", ErrRender, err)
	}
	if int64(header.Width)*int64(header.Height) > utils.MaxImagePixels {
		return nil, fmt.Errorf("%w: image is %dx%d, larger than %d pixels",
			ErrRender, header.Width, header.Height, utils.MaxImagePixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", ErrRender, err)
	}
	r.logger.WithFields(logrus.Fields{
		"format": format,
		"width":  src.Bounds().Dx(),
		"height": src.Bounds().Dy(),
	}).Debug("Decoded image")

	img := Normalize(Adjust(src, adjustment))
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrRender)
	}

	if err := r.draw(img, lines, opts); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: utils.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: failed to encode image: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) draw(img *image.RGBA, lines []string, opts utils.TAdvancedOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := MetricsFor(opts)
	face, err := r.face(m.FontSize, opts.Bold)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := DrawWatermark(img, face, lines, opts, m); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}
