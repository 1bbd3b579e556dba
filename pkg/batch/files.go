package batch

import (
	"errors"
	"fmt"

	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

// ErrInvalidFiles wraps every problem found by ValidateFiles.
var ErrInvalidFiles = errors.New("invalid files")

/**************************************************************************************************
** FileInfo describes a candidate input before its content is read.
**************************************************************************************************/
type FileInfo struct {
	Name string
	Size int64
}

/**************************************************************************************************
** Describe returns the FileInfo of already-read inputs.
**************************************************************************************************/
func Describe(inputs []Input) []FileInfo {
	files := make([]FileInfo, len(inputs))
	for i, input := range inputs {
		files[i] = FileInfo{Name: input.Name, Size: int64(len(input.Data))}
	}
	return files
}

/**************************************************************************************************
** ValidateFiles checks a batch before it is read or processed: at least one file, at most
** utils.MaxImageCount files, none larger than utils.MaxImageBytes and all with a supported image
** extension.
**
** @param files - Candidate inputs in upload order
** @return error - First problem found, wrapping ErrInvalidFiles
**************************************************************************************************/
func ValidateFiles(files []FileInfo) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: please select at least one image", ErrInvalidFiles)
	}
	if len(files) > utils.MaxImageCount {
		return fmt.Errorf("%w: maximum %d images allowed", ErrInvalidFiles, utils.MaxImageCount)
	}
	for _, f := range files {
		if f.Size > utils.MaxImageBytes {
			return fmt.Errorf("%w: file %q is too large (max %dMB)", ErrInvalidFiles, f.Name, utils.MaxImageBytes/(1024*1024))
		}
	}
	for _, f := range files {
		if !utils.IsSupportedImage(f.Name) {
			return fmt.Errorf("%w: file %q is not an image", ErrInvalidFiles, f.Name)
		}
	}
	return nil
}

/**************************************************************************************************
** ValidateJob runs every check that must pass before any image is read: the files, then the
** watermark configuration against the number of files, then the options and adjustments.
**
** @param job - Job with default options applied
** @param files - Candidate inputs in upload order
** @return error - First problem found
**************************************************************************************************/
func ValidateJob(job *utils.TJob, files []FileInfo) error {
	if err := ValidateFiles(files); err != nil {
		return err
	}
	if err := timestamp.Validate(&job.Config, len(files)); err != nil {
		return err
	}
	return utils.ValidateOptions(job.Options, job.Adjustments)
}
