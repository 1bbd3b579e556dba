/**************************************************************************************************
** Preview command implementation. Prints the time every image of the job will receive.
**************************************************************************************************/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/majorfi/photo-stamp/pkg/client"
	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

func runPreview(cmd *cobra.Command, args []string) {
	logger := loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := preview(ctx, logger, args, cmd.OutOrStdout()); err != nil {
		logger.Fatal(err)
	}
}

/**************************************************************************************************
** preview prints one row per image. The images do not need to exist: only their names are shown.
** Without any image, one row is printed per photo the ranges cover and the total is not checked.
**
** @param ctx - Request context in remote mode
** @param logger - Logger instance
** @param args - Image paths, the job's images when empty
** @param out - Where the table is printed
** @return error - Job or configuration error
**************************************************************************************************/
func preview(ctx context.Context, logger *logrus.Logger, args []string, out io.Writer) error {
	job, paths, err := loadBatch(args)
	if err != nil {
		return err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}

	var entries []utils.TPreviewEntry
	if remoteURL != "" {
		c := client.NewClient(remoteURL, apiKey, logger)
		if c == nil {
			return fmt.Errorf("invalid remote URL %q", remoteURL)
		}
		if entries, err = c.Preview(ctx, job.Config, names); err != nil {
			return err
		}
	} else {
		if err := timestamp.Validate(&job.Config, len(names)); err != nil {
			return err
		}
		total := len(names)
		if total == 0 {
			total = timestamp.TotalPhotos(job.Config.TimeRanges)
		}
		if entries, err = timestamp.Preview(&job.Config, total, names); err != nil {
			return err
		}
	}

	utils.PreviewTable(out, entries)
	logger.WithField("images", len(entries)).Debug("Preview done")
	return nil
}
