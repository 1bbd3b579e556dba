package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

// ErrInvalidConfig wraps every configuration problem. The message that follows it is meant to be
// shown to the user as is.
var ErrInvalidConfig = errors.New("invalid configuration")

/**************************************************************************************************
** Validate checks a watermark configuration before any image is processed and reports the first
** problem found as a single human-readable error.
**
** Checked, in order:
** 1. Date present and formatted YYYY-MM-DD; street, city, state and zip present
** 2. At least one time range
** 3. Per range: start time present and valid, photo count not negative, pattern length equal to
**    photoCount-1, direct increments not negative, relative references pointing at an
**    already-computed entry (see MaxRelativeIndex) with a non-negative add
** 4. When totalImages > 0, the photo counts add up to totalImages
**
** @param cfg - Configuration to validate
** @param totalImages - Number of images in the batch, 0 to skip the total check
** @return error - nil when valid, otherwise an error wrapping ErrInvalidConfig
**************************************************************************************************/
func Validate(cfg *utils.TWatermarkConfig, totalImages int) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is required", ErrInvalidConfig)
	}

	if cfg.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidConfig)
	}
	if _, err := time.Parse(utils.DateFormat, cfg.Date); err != nil {
		return fmt.Errorf("%w: date %q must be formatted YYYY-MM-DD", ErrInvalidConfig, cfg.Date)
	}
	required := []struct {
		value string
		name  string
	}{
		{cfg.Street, "street address"},
		{cfg.City, "city"},
		{cfg.State, "state"},
		{cfg.Zip, "ZIP code"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, field.name)
		}
	}

	if len(cfg.TimeRanges) == 0 {
		return fmt.Errorf("%w: at least one time range is required", ErrInvalidConfig)
	}

	for i, rng := range cfg.TimeRanges {
		if err := validateRange(rng, i); err != nil {
			return err
		}
	}

	if totalImages > 0 {
		if assigned := TotalPhotos(cfg.TimeRanges); assigned != totalImages {
			return fmt.Errorf("%w: total photos in ranges (%d) must equal uploaded images (%d)",
				ErrInvalidConfig, assigned, totalImages)
		}
	}

	return nil
}

/**************************************************************************************************
** validateRange checks a single range. rangeIndex is only used for messages.
**************************************************************************************************/
func validateRange(rng utils.TTimeRange, rangeIndex int) error {
	name := RangeLabel(rangeIndex)

	if strings.TrimSpace(rng.StartTime) == "" {
		return fmt.Errorf("%w: %s: start time is required", ErrInvalidConfig, name)
	}
	if _, err := ParseClock(rng.StartTime); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	if rng.PhotoCount < 0 {
		return fmt.Errorf("%w: %s: photo count cannot be negative", ErrInvalidConfig, name)
	}
	if rng.PhotoCount > 0 && len(rng.IncrementPattern) != rng.PhotoCount-1 {
		return fmt.Errorf("%w: %s: pattern length (%d) must be %d for %d photos",
			ErrInvalidConfig, name, len(rng.IncrementPattern), rng.PhotoCount-1, rng.PhotoCount)
	}

	for j, inc := range rng.IncrementPattern {
		if !inc.Relative {
			if inc.Minutes < 0 {
				return fmt.Errorf("%w: %s: pattern entry %d cannot be negative", ErrInvalidConfig, name, j+1)
			}
			continue
		}
		if inc.RelativeTo < 0 || inc.RelativeTo > MaxRelativeIndex(j) {
			return fmt.Errorf("%w: %s: pattern entry %d references invalid index %d: %w",
				ErrInvalidConfig, name, j+1, inc.RelativeTo, ErrInvalidReference)
		}
		if inc.Add < 0 {
			return fmt.Errorf("%w: %s: pattern entry %d has negative add value", ErrInvalidConfig, name, j+1)
		}
	}

	return nil
}
