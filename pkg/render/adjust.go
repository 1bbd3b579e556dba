package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** AspectRatioValue returns width/height of a named aspect ratio. Unknown or empty names fall back
** to 4:3.
**************************************************************************************************/
func AspectRatioValue(aspectRatio string) float64 {
	switch aspectRatio {
	case utils.AspectRatio3x4:
		return 3.0 / 4.0
	case utils.AspectRatio1x1:
		return 1
	default:
		return 4.0 / 3.0
	}
}

/**************************************************************************************************
** DefaultCrop returns the largest crop of the requested aspect ratio centered on the image.
**
** The crop is expressed in fractions of the image, so the fractional width/height ratio is the
** pixel aspect ratio multiplied by imageAspectRatio (height/width of the image).
**
** @param aspectRatio - "4:3", "3:4" or "1:1"
** @param imageAspectRatio - Height divided by width of the (rotated) image
** @return utils.TCropRect - Centered crop
**************************************************************************************************/
func DefaultCrop(aspectRatio string, imageAspectRatio float64) utils.TCropRect {
	if imageAspectRatio <= 0 {
		imageAspectRatio = 1
	}
	ratio := AspectRatioValue(aspectRatio) * imageAspectRatio

	width, height := 1.0, 1.0
	if ratio <= 1 {
		width = ratio
	} else {
		height = 1 / ratio
	}

	return clampCrop(utils.TCropRect{
		X:      (1 - width) / 2,
		Y:      (1 - height) / 2,
		Width:  width,
		Height: height,
	})
}

/**************************************************************************************************
** NormalizeCrop turns a user-supplied crop into one that has the requested aspect ratio, is at
** least utils.MinCropSize on each side and lies inside the image. The height of the supplied crop
** drives the result; when the matching width would overflow, the width drives it instead.
** A nil crop yields DefaultCrop.
**
** @param crop - Crop in image fractions, may be nil
** @param aspectRatio - "4:3", "3:4" or "1:1"
** @param imageAspectRatio - Height divided by width of the (rotated) image
** @return utils.TCropRect - Usable crop
**************************************************************************************************/
func NormalizeCrop(crop *utils.TCropRect, aspectRatio string, imageAspectRatio float64) utils.TCropRect {
	if crop == nil {
		return DefaultCrop(aspectRatio, imageAspectRatio)
	}
	if imageAspectRatio <= 0 {
		imageAspectRatio = 1
	}
	ratio := AspectRatioValue(aspectRatio) * imageAspectRatio

	width := math.Max(crop.Width, utils.MinCropSize)
	height := math.Max(crop.Height, utils.MinCropSize)

	if desiredWidth := height * ratio; desiredWidth <= 1 {
		width = desiredWidth
	} else {
		height = math.Min(width/ratio, 1)
		width = height * ratio
	}
	width = math.Min(width, 1)
	height = math.Min(height, 1)

	return utils.TCropRect{
		X:      clamp(crop.X, 0, 1-width),
		Y:      clamp(crop.Y, 0, 1-height),
		Width:  width,
		Height: height,
	}
}

func clamp(value, low, high float64) float64 {
	return math.Min(math.Max(value, low), high)
}

func clampCrop(crop utils.TCropRect) utils.TCropRect {
	width := clamp(crop.Width, utils.MinCropSize, 1)
	height := clamp(crop.Height, utils.MinCropSize, 1)
	return utils.TCropRect{
		X:      clamp(crop.X, 0, 1-width),
		Y:      clamp(crop.Y, 0, 1-height),
		Width:  width,
		Height: height,
	}
}

/**************************************************************************************************
** Adjust applies a rotation and an aspect-ratio crop to an image and returns a new RGBA image
** holding only the adjusted pixels. A nil adjustment copies the image untouched.
**
** @param src - Decoded source image
** @param adjustment - Rotation, aspect ratio and crop, may be nil
** @return *image.RGBA - Adjusted image, origin at (0,0)
**************************************************************************************************/
func Adjust(src image.Image, adjustment *utils.TImageAdjustment) *image.RGBA {
	rgba := toRGBA(src)
	if adjustment == nil {
		return rgba
	}

	rotated := Rotate(rgba, adjustment.Rotation)
	w, h := rotated.Bounds().Dx(), rotated.Bounds().Dy()
	if w == 0 || h == 0 {
		return rotated
	}

	crop := NormalizeCrop(adjustment.Crop, adjustment.AspectRatio, float64(h)/float64(w))
	cropW := max(1, int(math.Round(float64(w)*crop.Width)))
	cropH := max(1, int(math.Round(float64(h)*crop.Height)))
	cropX := int(math.Round(float64(w) * crop.X))
	cropY := int(math.Round(float64(h) * crop.Y))

	rect := image.Rect(cropX, cropY, cropX+cropW, cropY+cropH).Intersect(rotated.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), rotated, rect.Min, draw.Src)
	return out
}

/**************************************************************************************************
** Rotate turns an image clockwise by 0, 90, 180 or 270 degrees. Other values are treated as 0.
**************************************************************************************************/
func Rotate(src *image.RGBA, degrees int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var out *image.RGBA
	switch degrees {
	case 90, 270:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	case 180:
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	default:
		return src
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			var dx, dy int
			switch degrees {
			case 90:
				dx, dy = h-1-y, x
			case 180:
				dx, dy = w-1-x, h-1-y
			case 270:
				dx, dy = y, w-1-x
			}
			di := out.PixOffset(dx, dy)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

// toRGBA copies any image into an RGBA image whose bounds start at (0,0).
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
