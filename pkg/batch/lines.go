package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** WatermarkLines composes the three watermark lines of an image:
**
**	01/15/2025 10:02AM
**	123 N. MAIN ST.
**	CAMBRIDGE, MA 02138
**
** The date is rewritten from YYYY-MM-DD to MM/DD/YYYY; street, city and state are upper-cased;
** the ZIP code is written as given.
**
** @param cfg - Watermark configuration
** @param label - Formatted time of the image
** @return []string - Lines, top to bottom
** @return error - When the date cannot be parsed
**************************************************************************************************/
func WatermarkLines(cfg *utils.TWatermarkConfig, label string) ([]string, error) {
	date, err := time.Parse(utils.DateFormat, cfg.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be formatted YYYY-MM-DD", timestamp.ErrInvalidConfig, cfg.Date)
	}

	return []string{
		fmt.Sprintf("%s %s", date.Format(utils.DisplayDateFormat), label),
		strings.ToUpper(cfg.Street),
		fmt.Sprintf("%s, %s %s", strings.ToUpper(cfg.City), strings.ToUpper(cfg.State), cfg.Zip),
	}, nil
}
