/**************************************************************************************************
** Package batch runs a watermarking session: it walks the images in upload order, asks the
** timestamp engine for each label, composes the watermark lines and hands every image to a
** renderer.
**************************************************************************************************/
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

/**************************************************************************************************
** Input is one source image, in upload order.
**************************************************************************************************/
type Input struct {
	Name string // Original filename
	Data []byte // Encoded image
}

/**************************************************************************************************
** Output is one processed image. Name is the original filename of the matching input.
**************************************************************************************************/
type Output struct {
	Name string
	Data []byte // JPEG
}

/**************************************************************************************************
** Renderer adjusts, watermarks and encodes a single image.
**
** Ready blocks until the renderer's font is usable or ctx is done. An error only means the font
** is not available yet; Render keeps working with a fallback face.
**************************************************************************************************/
type Renderer interface {
	Ready(ctx context.Context) error
	Render(data []byte, lines []string, opts utils.TAdvancedOptions, adjustment *utils.TImageAdjustment) ([]byte, error)
}

// ProgressFunc receives one report per image, before the image is processed.
type ProgressFunc func(utils.TProgress)

/**************************************************************************************************
** Processor processes a batch strictly sequentially on the calling goroutine.
**************************************************************************************************/
type Processor struct {
	Renderer    Renderer
	Logger      *logrus.Logger
	FontTimeout time.Duration // Bound on the font wait, utils.DefaultFontTimeout when zero
}

/**************************************************************************************************
** NewProcessor creates a processor with the default font timeout.
**************************************************************************************************/
func NewProcessor(renderer Renderer, logger *logrus.Logger) *Processor {
	return &Processor{
		Renderer:    renderer,
		Logger:      logger,
		FontTimeout: utils.DefaultFontTimeout,
	}
}

/**************************************************************************************************
** Process watermarks every input and returns the outputs in the same order.
**
** The font wait is bounded by FontTimeout; on timeout a warning is logged and processing goes on.
** For each image, in order: ctx is checked, progress is reported, the label is resolved (images no
** range covers get the fallback label), the three watermark lines are composed and the image is
** rendered. Any failure stops the batch and discards what was produced so far.
**
** The configuration is expected to have been validated.
**
** @param ctx - Cancels the batch between images
** @param inputs - Source images in upload order
** @param cfg - Watermark configuration (read only)
** @param opts - Advanced options, defaults applied
** @param adjustments - Per-image adjustments matched by index, may be shorter than inputs
** @param onProgress - Optional progress callback
** @return []Output - One output per input, or nil on error
** @return error - First failure
**************************************************************************************************/
func (p *Processor) Process(
	ctx context.Context,
	inputs []Input,
	cfg *utils.TWatermarkConfig,
	opts utils.TAdvancedOptions,
	adjustments []utils.TImageAdjustment,
	onProgress ProgressFunc,
) ([]Output, error) {
	if err := p.waitForFont(ctx); err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Progress names the image about to be rendered.
		if onProgress != nil {
			onProgress(utils.TProgress{Current: i + 1, Total: len(inputs), CurrentFile: input.Name})
		}

		label, err := timestamp.Label(cfg, i)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", i+1, input.Name, err)
		}
		lines, err := WatermarkLines(cfg, label)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", i+1, input.Name, err)
		}

		p.Logger.WithFields(logrus.Fields{
			"image": i + 1,
			"file":  input.Name,
			"label": label,
		}).Debug("Rendering image")

		data, err := p.Renderer.Render(input.Data, lines, opts, utils.AdjustmentAt(adjustments, i))
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", i+1, input.Name, err)
		}
		outputs = append(outputs, Output{Name: input.Name, Data: data})
	}

	p.Logger.WithField("images", len(outputs)).Info("Batch processed")
	return outputs, nil
}

/**************************************************************************************************
** waitForFont waits for the renderer font, bounded by FontTimeout. Only the cancellation of the
** parent context is an error.
**************************************************************************************************/
func (p *Processor) waitForFont(ctx context.Context) error {
	timeout := p.FontTimeout
	if timeout <= 0 {
		timeout = utils.DefaultFontTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Renderer.Ready(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Logger.WithError(err).Warnf("Font did not load within %s, proceeding anyway", timeout)
	}
	return nil
}
