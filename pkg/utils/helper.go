package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

/**************************************************************************************************
** RemoveEmptyStrings removes all empty strings from a string array and returns a new array
** without the empty strings. Preserves the order of non-empty strings.
**
** @param arr - Array to process
** @return []string - New array containing only non-empty strings
**************************************************************************************************/
func RemoveEmptyStrings(arr []string) []string {
	result := make([]string, 0, len(arr))

	for _, str := range arr {
		if str != "" {
			result = append(result, str)
		}
	}

	return result
}

/**************************************************************************************************
** SplitList splits a comma-separated value, trims every item and drops empty ones.
**
** @param value - Comma-separated list (e.g. from an env var)
** @return []string - Trimmed, non-empty items in their original order
**************************************************************************************************/
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return RemoveEmptyStrings(parts)
}

/**************************************************************************************************
** IsSupportedImage reports whether a filename carries one of the accepted image extensions.
**************************************************************************************************/
func IsSupportedImage(filename string) bool {
	return SupportedExt.Contains(filepath.Ext(filename))
}

/**************************************************************************************************
** WithDefaults returns a copy of the options where every empty value is replaced by the
** matching DefaultOptions value. Booleans are kept as given.
**
** @param opts - Options as provided by the job
** @return TAdvancedOptions - Options ready for rendering
**************************************************************************************************/
func WithDefaults(opts TAdvancedOptions) TAdvancedOptions {
	if opts.Position == "" {
		opts.Position = DefaultOptions.Position
	}
	if opts.FontSize == "" {
		opts.FontSize = DefaultOptions.FontSize
	}
	if opts.TextColor == "" {
		opts.TextColor = DefaultOptions.TextColor
	}
	if opts.BorderWidth == "" {
		opts.BorderWidth = DefaultOptions.BorderWidth
	}
	if opts.BorderColor == "" {
		opts.BorderColor = DefaultOptions.BorderColor
	}
	return opts
}

/**************************************************************************************************
** AdjustmentAt returns the adjustment for the image at index i, or nil when the list is shorter.
**************************************************************************************************/
func AdjustmentAt(adjustments []TImageAdjustment, i int) *TImageAdjustment {
	if i < 0 || i >= len(adjustments) {
		return nil
	}
	adjustment := adjustments[i]
	return &adjustment
}

/**************************************************************************************************
** OutputName returns the archive entry name of the i-th (0-based) processed image. Entries are
** numbered from 1 unless keepNames is set, in which case the original base name is kept with a
** .jpg extension since every output is a JPEG.
**
** @param i - Image index in upload order
** @param original - Original filename (may be a path)
** @param keepNames - Keep the original base name
** @return string - Entry name
**************************************************************************************************/
func OutputName(i int, original string, keepNames bool) string {
	if keepNames && original != "" {
		base := filepath.Base(original)
		return strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	}
	return fmt.Sprintf("%d.jpg", i+1)
}
