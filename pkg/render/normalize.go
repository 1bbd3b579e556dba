package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** TargetSize returns the dimensions an image of w x h is resized to: landscape images get a width
** of utils.StandardDimension, portrait and square images a height of utils.StandardDimension. The
** other side keeps the aspect ratio, rounded down.
**************************************************************************************************/
func TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w > h {
		return utils.StandardDimension, max(1, utils.StandardDimension*h/w)
	}
	return max(1, utils.StandardDimension*w/h), utils.StandardDimension
}

/**************************************************************************************************
** Normalize resamples an image to TargetSize with a Catmull-Rom filter onto an opaque black
** canvas, so the JPEG output never depends on source transparency.
**
** @param src - Adjusted image
** @return *image.RGBA - Opaque image whose longest side is utils.StandardDimension
**************************************************************************************************/
func Normalize(src image.Image) *image.RGBA {
	w, h := TargetSize(src.Bounds().Dx(), src.Bounds().Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
