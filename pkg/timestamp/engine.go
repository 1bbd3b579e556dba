package timestamp

import (
	"errors"
	"fmt"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

var (
	// ErrNotAssigned is returned when an image index lies past the photos covered by the ranges.
	// Callers substitute a fallback instead of failing the batch.
	ErrNotAssigned = errors.New("image is not assigned to any time range")

	// ErrInvalidReference is returned when a relative slot points at an entry that has not been
	// computed yet (or at a negative index).
	ErrInvalidReference = errors.New("relative reference must point at an already-computed entry")
)

/**************************************************************************************************
** RelativeLookahead is how far past the last computed entry a relative slot may point. At pattern
** slot j the entries 0..j are computed, so a slot may reference indexes 0..j+RelativeLookahead.
** It is 0: a slot never references the entry it is about to produce. Validation and resolution
** both go through MaxRelativeIndex so they cannot disagree.
**************************************************************************************************/
const RelativeLookahead = 0

/**************************************************************************************************
** MaxRelativeIndex returns the largest index a relative slot at pattern position `slot` may
** reference.
**************************************************************************************************/
func MaxRelativeIndex(slot int) int {
	return slot + RelativeLookahead
}

/**************************************************************************************************
** Locate maps an image index to the range that covers it and to its position within that range.
** Ranges are walked in declaration order, accumulating photo counts.
**
** @param ranges - Ordered time ranges
** @param imageIndex - Zero-based image index in upload order
** @return rangeIndex - Zero-based index of the covering range
** @return position - Zero-based position of the image inside that range
** @return ok - False when no range covers the index
**************************************************************************************************/
func Locate(ranges []utils.TTimeRange, imageIndex int) (rangeIndex int, position int, ok bool) {
	if imageIndex < 0 {
		return -1, -1, false
	}

	before := 0
	for i, rng := range ranges {
		count := rng.PhotoCount
		if count < 0 {
			count = 0
		}
		if imageIndex < before+count {
			return i, imageIndex - before, true
		}
		before += count
	}
	return -1, -1, false
}

/**************************************************************************************************
** TotalPhotos returns the number of images covered by all ranges together.
**************************************************************************************************/
func TotalPhotos(ranges []utils.TTimeRange) int {
	total := 0
	for _, rng := range ranges {
		if rng.PhotoCount > 0 {
			total += rng.PhotoCount
		}
	}
	return total
}

/**************************************************************************************************
** Resolve returns the clock time assigned to an image.
**
** The image is located in its range, then the range's time sequence is built slot by slot up to
** the image position: a direct slot adds to the previous entry, a relative slot adds to the entry
** it references. The result wraps at 24h.
**
** @param cfg - Watermark configuration (read only)
** @param imageIndex - Zero-based image index in upload order
** @return ClockTime - Resolved time of day
** @return error - ErrNotAssigned past the last covered image, or a configuration error when the
**                 covering range cannot be computed
**************************************************************************************************/
func Resolve(cfg *utils.TWatermarkConfig, imageIndex int) (ClockTime, error) {
	if cfg == nil {
		return 0, ErrNotAssigned
	}

	rangeIndex, position, ok := Locate(cfg.TimeRanges, imageIndex)
	if !ok {
		return 0, ErrNotAssigned
	}

	sequence, err := buildSequence(cfg.TimeRanges[rangeIndex], rangeIndex, position)
	if err != nil {
		return 0, err
	}
	return sequence[position].Normalize(), nil
}

/**************************************************************************************************
** ResolveOrDefault behaves like Resolve but answers `fallback` for images no range covers.
** Configuration errors are still returned.
**************************************************************************************************/
func ResolveOrDefault(cfg *utils.TWatermarkConfig, imageIndex int, fallback ClockTime) (ClockTime, error) {
	t, err := Resolve(cfg, imageIndex)
	if errors.Is(err, ErrNotAssigned) {
		return fallback.Normalize(), nil
	}
	return t, err
}

/**************************************************************************************************
** Label returns the formatted timestamp of an image, or utils.DefaultFallbackLabel when no range
** covers it.
**************************************************************************************************/
func Label(cfg *utils.TWatermarkConfig, imageIndex int) (string, error) {
	t, err := Resolve(cfg, imageIndex)
	if errors.Is(err, ErrNotAssigned) {
		return utils.DefaultFallbackLabel, nil
	}
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

/**************************************************************************************************
** Sequence returns every computed time of a range, one per photo, normalized to a single day.
**
** @param rng - The range to compute
** @return []ClockTime - PhotoCount entries (empty for an empty range)
** @return error - Configuration error in the range
**************************************************************************************************/
func Sequence(rng utils.TTimeRange) ([]ClockTime, error) {
	if rng.PhotoCount <= 0 {
		return []ClockTime{}, nil
	}
	sequence, err := buildSequence(rng, 0, rng.PhotoCount-1)
	if err != nil {
		return nil, err
	}
	for i := range sequence {
		sequence[i] = sequence[i].Normalize()
	}
	return sequence, nil
}

/**************************************************************************************************
** buildSequence computes entries 0..upto of a range. Entries are kept un-normalized while the
** sequence grows so relative references add to the exact value they point at.
**************************************************************************************************/
func buildSequence(rng utils.TTimeRange, rangeIndex, upto int) ([]ClockTime, error) {
	start, err := ParseClock(rng.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, RangeLabel(rangeIndex), err)
	}
	if rng.PhotoCount > 0 && len(rng.IncrementPattern) != rng.PhotoCount-1 {
		return nil, fmt.Errorf("%w: %s: pattern length (%d) must be %d for %d photos",
			ErrInvalidConfig, RangeLabel(rangeIndex), len(rng.IncrementPattern), rng.PhotoCount-1, rng.PhotoCount)
	}

	sequence := make([]ClockTime, 1, upto+1)
	sequence[0] = start
	for j := 0; j < upto; j++ {
		next, err := step(sequence, j, rng.IncrementPattern[j])
		if err != nil {
			return nil, fmt.Errorf("%s: pattern entry %d: %w", RangeLabel(rangeIndex), j+1, err)
		}
		sequence = append(sequence, next)
	}
	return sequence, nil
}

/**************************************************************************************************
** step derives the entry produced by pattern slot j from the entries computed so far
** (sequence holds indexes 0..j).
**************************************************************************************************/
func step(sequence []ClockTime, j int, inc utils.TIncrement) (ClockTime, error) {
	if !inc.Relative {
		if inc.Minutes < 0 {
			return 0, fmt.Errorf("%w: increment cannot be negative", ErrInvalidConfig)
		}
		return sequence[j] + ClockTime(inc.Minutes), nil
	}

	if inc.Add < 0 {
		return 0, fmt.Errorf("%w: negative add value", ErrInvalidConfig)
	}
	if inc.RelativeTo < 0 || inc.RelativeTo > MaxRelativeIndex(j) || inc.RelativeTo >= len(sequence) {
		return 0, fmt.Errorf("%w: %w: index %d at slot %d", ErrInvalidConfig, ErrInvalidReference, inc.RelativeTo, j)
	}
	return sequence[inc.RelativeTo] + ClockTime(inc.Add), nil
}

/**************************************************************************************************
** RangeLabel is the display name of the range at a zero-based index ("Range 1", "Range 2", ...).
**************************************************************************************************/
func RangeLabel(rangeIndex int) string {
	return fmt.Sprintf("Range %d", rangeIndex+1)
}

/**************************************************************************************************
** RangeName returns the display name of the range with the given ID, or "Unknown".
**************************************************************************************************/
func RangeName(ranges []utils.TTimeRange, id string) string {
	for i, rng := range ranges {
		if rng.ID == id {
			return RangeLabel(i)
		}
	}
	return "Unknown"
}
