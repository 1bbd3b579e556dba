package timestamp

import (
	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** Preview lists, for each of `total` images, the range and position it falls into and the label
** it will receive. Unassigned images carry the fallback label.
**
** Images are walked in order alongside the ranges, and each range's sequence is built once, the
** first time one of its images is reached, so the cost stays linear in the number of images.
**
** @param cfg - Watermark configuration
** @param total - Number of images in the batch
** @param files - Optional filenames in upload order, shown next to each entry
** @return []utils.TPreviewEntry - One entry per image
** @return error - First configuration error met in a range an image falls into
**************************************************************************************************/
func Preview(cfg *utils.TWatermarkConfig, total int, files []string) ([]utils.TPreviewEntry, error) {
	var ranges []utils.TTimeRange
	if cfg != nil {
		ranges = cfg.TimeRanges
	}

	entries := make([]utils.TPreviewEntry, 0, max(total, 0))
	rangeIndex, rangeStart := 0, 0
	var sequence []ClockTime
	built := -1

	for i := 0; i < total; i++ {
		entry := utils.TPreviewEntry{Index: i, Range: "-", Position: -1, Label: utils.DefaultFallbackLabel}
		if i < len(files) {
			entry.File = files[i]
		}

		for rangeIndex < len(ranges) && i >= rangeStart+max(ranges[rangeIndex].PhotoCount, 0) {
			rangeStart += max(ranges[rangeIndex].PhotoCount, 0)
			rangeIndex++
		}

		if rangeIndex < len(ranges) {
			if built != rangeIndex {
				rng := ranges[rangeIndex]
				var err error
				if sequence, err = buildSequence(rng, rangeIndex, rng.PhotoCount-1); err != nil {
					return nil, err
				}
				built = rangeIndex
			}
			position := i - rangeStart
			entry.Range = RangeLabel(rangeIndex)
			entry.Position = position
			entry.Label = sequence[position].Normalize().String()
			entry.Assigned = true
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
