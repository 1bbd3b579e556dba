package render

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

// faceCacheSize covers every size/weight combination the options allow.
const faceCacheSize = 8

/**************************************************************************************************
** fontSet holds the parsed regular and bold typefaces once loading has completed.
**************************************************************************************************/
type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

/**************************************************************************************************
** loadFonts parses the typefaces and closes r.ready. A custom regular font file replaces the
** embedded Go Medium face; when it cannot be read or parsed a warning is logged and the embedded
** face is used. The bold face is always Go Bold.
**************************************************************************************************/
func (r *Renderer) loadFonts() {
	defer close(r.ready)

	set := &fontSet{}
	var err error

	if r.fontFile != "" {
		set.regular, err = parseFontFile(r.fontFile)
		if err != nil {
			r.logger.WithError(err).Warnf("Could not load font %s, using the embedded face", r.fontFile)
		}
	}
	if set.regular == nil {
		if set.regular, err = opentype.Parse(gomedium.TTF); err != nil {
			r.loadErr = fmt.Errorf("failed to parse embedded medium font: %w", err)
			return
		}
	}
	if set.bold, err = opentype.Parse(gobold.TTF); err != nil {
		r.loadErr = fmt.Errorf("failed to parse embedded bold font: %w", err)
		return
	}
	r.fonts = set
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

/**************************************************************************************************
** Ready blocks until the typefaces are loaded or ctx is done. Callers bound the wait with a
** deadline and keep going on error: Render then falls back to a basic bitmap face.
**
** @param ctx - Bounds the wait
** @return error - Load failure or ctx.Err()
**************************************************************************************************/
func (r *Renderer) Ready(ctx context.Context) error {
	select {
	case <-r.ready:
		return r.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

/**************************************************************************************************
** face returns the face for a size and weight, building and caching it on first use. It never
** blocks on font loading: until the typefaces are available, basicfont.Face7x13 is returned.
**************************************************************************************************/
func (r *Renderer) face(size int, bold bool) (font.Face, error) {
	select {
	case <-r.ready:
	default:
		return basicfont.Face7x13, nil
	}
	if r.fonts == nil {
		return basicfont.Face7x13, nil
	}

	key := fmt.Sprintf("regular/%d", size)
	typeface := r.fonts.regular
	if bold {
		key = fmt.Sprintf("bold/%d", size)
		typeface = r.fonts.bold
	}
	if f, ok := r.faces.Get(key); ok {
		return f, nil
	}

	f, err := opentype.NewFace(typeface, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s face: %w", key, err)
	}
	r.faces.Put(key, f)
	return f, nil
}

func newFaceCache(logger *logrus.Logger) *utils.LRUCache[font.Face] {
	return utils.NewLRUCache(faceCacheSize, func(key string, f font.Face) {
		if err := f.Close(); err != nil {
			logger.WithError(err).Debugf("Failed to close face %s", key)
		}
	})
}
