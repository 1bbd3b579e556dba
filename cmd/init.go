/**************************************************************************************************
** Init command implementation. Scaffolds a job file to start from.
**************************************************************************************************/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

func runInit(cmd *cobra.Command, args []string) {
	logger := loadEnv()

	path := jobFile
	if len(args) > 0 {
		path = args[0]
	}
	if err := writeSampleJob(path, time.Now()); err != nil {
		logger.Fatal(err)
	}
	utils.Success(cmd.OutOrStdout(), "job written to "+path)
}

/**************************************************************************************************
** writeSampleJob writes sampleJob to path unless a file already exists there.
**************************************************************************************************/
func writeSampleJob(path string, now time.Time) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	return utils.WriteJob(sampleJob(now), path)
}

/**************************************************************************************************
** sampleJob is a valid job showing both kinds of increments: a morning range chaining direct
** increments and an afternoon range where the third photo is dated from the first one.
**************************************************************************************************/
func sampleJob(now time.Time) *utils.TJob {
	return &utils.TJob{
		Config: utils.TWatermarkConfig{
			Date:   now.Format(utils.DateFormat),
			Street: "123 N. Main St.",
			City:   "Cambridge",
			State:  "MA",
			Zip:    "02138",
			TimeRanges: []utils.TTimeRange{
				{
					ID:               "morning",
					StartTime:        "10:00",
					PhotoCount:       4,
					IncrementPattern: []utils.TIncrement{utils.Direct(2), utils.Direct(1), utils.Direct(1)},
				},
				{
					ID:               "afternoon",
					StartTime:        "14:30",
					PhotoCount:       3,
					IncrementPattern: []utils.TIncrement{utils.Direct(10), utils.RelativeTo(0, 5)},
				},
			},
		},
		Options: utils.DefaultOptions,
		Images: []string{
			"photos/IMG_0001.jpg", "photos/IMG_0002.jpg", "photos/IMG_0003.jpg", "photos/IMG_0004.jpg",
			"photos/IMG_0005.jpg", "photos/IMG_0006.jpg", "photos/IMG_0007.jpg",
		},
		ArchiveName: utils.DefaultArchiveName,
	}
}
