package utils

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

/**************************************************************************************************
** DateFormat is the layout of the capture date in a watermark configuration (YYYY-MM-DD).
** DisplayDateFormat is the layout written on the watermark itself (MM/DD/YYYY).
**************************************************************************************************/
const DateFormat = "2006-01-02"
const DisplayDateFormat = "01/02/2006"

/**************************************************************************************************
** DefaultFallbackLabel is written on images that no time range covers. The batch keeps going
** rather than failing on an unassigned image.
**************************************************************************************************/
const DefaultFallbackLabel = "12:00PM"

/**************************************************************************************************
** StandardDimension is the length, in pixels, of the longest side of every processed image.
** Normalizing all images to it keeps the watermark identical across the batch regardless of the
** source resolution.
**************************************************************************************************/
const StandardDimension = 3000

/**************************************************************************************************
** JPEGQuality is the encoder quality of every output image (0.92 on a 0..1 scale).
**************************************************************************************************/
const JPEGQuality = 92

/**************************************************************************************************
** DefaultArchiveName is the name of the generated archive when the caller does not supply one.
**************************************************************************************************/
const DefaultArchiveName = "watermarked_images.zip"

/**************************************************************************************************
** Upload limits
**************************************************************************************************/
const MaxImageCount = 100
const MaxImageBytes = 20 * 1024 * 1024

/**************************************************************************************************
** MaxImagePixels caps the decoded size of an image (width times height). The header is checked
** before any pixel data is decoded.
**************************************************************************************************/
const MaxImagePixels = 64_000_000

/**************************************************************************************************
** DefaultFontTimeout bounds the wait for the watermark font before processing starts. Past it,
** processing continues with a fallback face.
**************************************************************************************************/
const DefaultFontTimeout = 5 * time.Second

/**************************************************************************************************
** MinCropSize is the smallest crop side allowed, as a fraction of the image side.
**************************************************************************************************/
const MinCropSize = 0.05

/**************************************************************************************************
** DefaultListenAddr is the address the HTTP server binds to when LISTEN_ADDR is not set.
**************************************************************************************************/
const DefaultListenAddr = ":8080"

/**************************************************************************************************
** Option values
**************************************************************************************************/
const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"

	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"

	BorderThin   = "thin"
	BorderMedium = "medium"
	BorderThick  = "thick"

	ColorWhite = "white"
	ColorBlack = "black"

	AspectRatio4x3 = "4:3"
	AspectRatio3x4 = "3:4"
	AspectRatio1x1 = "1:1"
)

/**************************************************************************************************
** DefaultOptions is used for every option the job leaves empty.
**************************************************************************************************/
var DefaultOptions = TAdvancedOptions{
	Position:    PositionBottomRight,
	FontSize:    SizeMedium,
	TextColor:   ColorWhite,
	Bold:        false,
	HasBorder:   true,
	BorderWidth: BorderMedium,
	BorderColor: ColorBlack,
}

/**************************************************************************************************
** SupportedExt lists the file extensions accepted as input images.
**************************************************************************************************/
var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg", ".JPEG", ".JPG",
	".png", ".PNG",
	".gif", ".GIF",
	".webp", ".WEBP",
	".bmp", ".BMP",
	".tif", ".tiff", ".TIF", ".TIFF",
)

/**************************************************************************************************
** Valid option values, used by job validation
**************************************************************************************************/
var ValidPositions = mapset.NewSet(PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight)
var ValidFontSizes = mapset.NewSet(SizeSmall, SizeMedium, SizeLarge)
var ValidBorderWidths = mapset.NewSet(BorderThin, BorderMedium, BorderThick)
var ValidRotations = mapset.NewSet(0, 90, 180, 270)
var ValidAspectRatios = mapset.NewSet(AspectRatio4x3, AspectRatio3x4, AspectRatio1x1)
