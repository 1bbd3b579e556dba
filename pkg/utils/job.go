package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOptions is returned when an advanced option or an image adjustment holds an unknown
// value.
var ErrInvalidOptions = errors.New("invalid options")

/**************************************************************************************************
** ParseJob decodes a job description. YAML and JSON are both accepted since every JSON document
** is also a valid YAML document.
**
** @param data - Raw job file content
** @return *TJob - Decoded job with default options applied
** @return error - Any decoding error
**************************************************************************************************/
func ParseJob(data []byte) (*TJob, error) {
	var job TJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	job.Options = WithDefaults(job.Options)
	if job.ArchiveName == "" {
		job.ArchiveName = DefaultArchiveName
	}
	return &job, nil
}

/**************************************************************************************************
** LoadJob reads and decodes a job file.
**
** @param path - Path of a .yaml, .yml or .json job file
** @return *TJob - Decoded job
** @return error - Any read or decoding error
**************************************************************************************************/
func LoadJob(path string) (*TJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
	}
	job, err := ParseJob(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

/**************************************************************************************************
** WriteJob encodes a job as YAML. Used to scaffold a job file from the command line.
**************************************************************************************************/
func WriteJob(job *TJob, path string) error {
	data, err := yaml.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

/**************************************************************************************************
** ValidateOptions checks the advanced options and the per-image adjustments against the values
** the renderer understands.
**
** @param opts - Options, defaults already applied
** @param adjustments - Per-image adjustments
** @return error - First invalid value found, wrapping ErrInvalidOptions
**************************************************************************************************/
func ValidateOptions(opts TAdvancedOptions, adjustments []TImageAdjustment) error {
	if !ValidPositions.Contains(opts.Position) {
		return fmt.Errorf("%w: unknown position %q", ErrInvalidOptions, opts.Position)
	}
	if !ValidFontSizes.Contains(opts.FontSize) {
		return fmt.Errorf("%w: unknown font size %q", ErrInvalidOptions, opts.FontSize)
	}
	if opts.HasBorder && !ValidBorderWidths.Contains(opts.BorderWidth) {
		return fmt.Errorf("%w: unknown border width %q", ErrInvalidOptions, opts.BorderWidth)
	}
	for _, c := range []string{opts.TextColor, opts.BorderColor} {
		if !isKnownColor(c) {
			return fmt.Errorf("%w: unknown color %q", ErrInvalidOptions, c)
		}
	}
	for i, adj := range adjustments {
		if !ValidRotations.Contains(adj.Rotation) {
			return fmt.Errorf("%w: image %d: rotation must be 0, 90, 180 or 270", ErrInvalidOptions, i+1)
		}
		if adj.AspectRatio != "" && !ValidAspectRatios.Contains(adj.AspectRatio) {
			return fmt.Errorf("%w: image %d: unknown aspect ratio %q", ErrInvalidOptions, i+1, adj.AspectRatio)
		}
	}
	return nil
}

func isKnownColor(c string) bool {
	if c == ColorWhite || c == ColorBlack || c == "" {
		return true
	}
	if !strings.HasPrefix(c, "#") || (len(c) != 7 && len(c) != 4) {
		return false
	}
	for _, r := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
