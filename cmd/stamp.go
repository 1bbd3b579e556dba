/**************************************************************************************************
** Stamp command implementation. Loads the job, validates the batch, then watermarks the images
** locally or on a remote server and writes the resulting archive.
**************************************************************************************************/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/majorfi/photo-stamp/pkg/archive"
	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/client"
	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** Main command runner. Exits on the first error, nothing is written in that case.
**************************************************************************************************/
func runStamp(cmd *cobra.Command, args []string) {
	logger := loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dest, count, err := stamp(ctx, logger, args, cmd.OutOrStdout())
	if err != nil {
		logger.Fatal(err)
	}
	if dest != "" {
		utils.Success(cmd.OutOrStdout(), fmt.Sprintf("%d images written to %s", count, dest))
	}
}

/**************************************************************************************************
** stamp runs a whole batch. In dry-run mode it only prints the preview table.
**
** @param ctx - Cancels the batch between images
** @param logger - Logger instance
** @param args - Image paths, the job's images when empty
** @param out - Where progress and the preview are printed
** @return string - Path of the written archive, "" in dry-run mode
** @return int - Number of images written
** @return error - First validation, processing or write error
**************************************************************************************************/
func stamp(ctx context.Context, logger *logrus.Logger, args []string, out io.Writer) (string, int, error) {
	job, paths, err := loadBatch(args)
	if err != nil {
		return "", 0, err
	}

	files, err := describeFiles(paths)
	if err != nil {
		return "", 0, err
	}
	if err := batch.ValidateJob(job, files); err != nil {
		return "", 0, err
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		utils.Pretty(logger.Out, job)
	}

	if dryRun {
		entries, err := timestamp.Preview(&job.Config, len(files), fileNames(files))
		if err != nil {
			return "", 0, err
		}
		utils.PreviewTable(out, entries)
		return "", 0, nil
	}

	inputs, err := readInputs(paths)
	if err != nil {
		return "", 0, err
	}

	dest := output
	if dest == "" {
		dest = job.ArchiveName
	}

	if remoteURL != "" {
		return dest, len(inputs), stampRemote(ctx, logger, job, inputs, dest)
	}

	outputs, err := newProcessor(logger).Process(ctx, inputs, &job.Config, job.Options, job.Adjustments, func(p utils.TProgress) {
		utils.Progress(out, p)
	})
	if err != nil {
		return "", 0, err
	}
	if err := archive.Save(dest, outputs, job.KeepNames); err != nil {
		return "", 0, err
	}
	return dest, len(outputs), nil
}

/**************************************************************************************************
** stampRemote sends the batch to a photo-stamp server and saves the archive it answers.
**************************************************************************************************/
func stampRemote(ctx context.Context, logger *logrus.Logger, job *utils.TJob, inputs []batch.Input, dest string) error {
	c := client.NewClient(remoteURL, apiKey, logger)
	if c == nil {
		return fmt.Errorf("invalid remote URL %q", remoteURL)
	}
	data, err := c.Watermark(ctx, job, inputs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive %s: %w", dest, err)
	}
	return nil
}

/**************************************************************************************************
** loadBatch loads the job file, applies the option overrides and resolves the image paths.
** Relative paths listed in the job are relative to the job file.
**************************************************************************************************/
func loadBatch(args []string) (*utils.TJob, []string, error) {
	job, err := utils.LoadJob(jobFile)
	if err != nil {
		return nil, nil, err
	}
	applyOptionOverrides(job)

	if len(args) > 0 {
		return job, args, nil
	}
	base := filepath.Dir(jobFile)
	paths := make([]string, 0, len(job.Images))
	for _, p := range job.Images {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		paths = append(paths, p)
	}
	return job, paths, nil
}

func describeFiles(paths []string) ([]batch.FileInfo, error) {
	files := make([]batch.FileInfo, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, errors.New(p + " is a directory")
		}
		files[i] = batch.FileInfo{Name: filepath.Base(p), Size: info.Size()}
	}
	return files, nil
}

func readInputs(paths []string) ([]batch.Input, error) {
	inputs := make([]batch.Input, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		inputs[i] = batch.Input{Name: filepath.Base(p), Data: data}
	}
	return inputs, nil
}

func fileNames(files []batch.FileInfo) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
