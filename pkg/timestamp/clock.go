package timestamp

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the modulus applied to every resolved time. Day rollover is ignored.
const MinutesPerDay = 24 * 60

/**************************************************************************************************
** ClockTime is a time of day expressed in minutes since midnight. Values produced by the engine
** are always normalized to [0, MinutesPerDay).
**************************************************************************************************/
type ClockTime int

// DefaultFallbackTime is the time used by ResolveOrDefault for images no range covers (noon).
const DefaultFallbackTime ClockTime = 12 * 60

/**************************************************************************************************
** Normalize wraps the value into a single day. Negative values wrap backwards.
**************************************************************************************************/
func (c ClockTime) Normalize() ClockTime {
	v := int(c) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return ClockTime(v)
}

// Hour returns the hour of day (0-23) of the normalized value.
func (c ClockTime) Hour() int {
	return int(c.Normalize()) / 60
}

// Minute returns the minute of the hour (0-59) of the normalized value.
func (c ClockTime) Minute() int {
	return int(c.Normalize()) % 60
}

/**************************************************************************************************
** String formats the time on a 12-hour clock with no space before the meridiem marker and no
** leading zero on the hour: 0 -> "12:00AM", 610 -> "10:10AM", 750 -> "12:30PM".
**************************************************************************************************/
func (c ClockTime) String() string {
	h := c.Hour()
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d%s", display, c.Minute(), period)
}

/**************************************************************************************************
** Clock24 formats the time as "HH:MM" on a 24-hour clock, the format of range start times.
**************************************************************************************************/
func (c ClockTime) Clock24() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

/**************************************************************************************************
** ParseClock parses a 24-hour "HH:MM" start time. One-digit hours are accepted ("9:05").
**
** @param value - Start time as written in the configuration
** @return ClockTime - Minutes since midnight
** @return error - When the value is empty, malformed or out of range
**************************************************************************************************/
func ParseClock(value string) (ClockTime, error) {
	value = strings.TrimSpace(value)
	hourPart, minutePart, found := strings.Cut(value, ":")
	if !found || hourPart == "" || len(minutePart) != 2 || len(hourPart) > 2 || !isDigits(hourPart+minutePart) {
		return 0, fmt.Errorf("invalid start time %q: expected HH:MM", value)
	}
	hours, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", value, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid start time %q: out of range", value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// isDigits reports whether s only holds ASCII digits, so signs never reach strconv.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
