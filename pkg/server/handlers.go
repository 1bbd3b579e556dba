package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/majorfi/photo-stamp/pkg/archive"
	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/render"
	"github.com/majorfi/photo-stamp/pkg/timestamp"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

const (
	// JobField is the multipart field holding the job (JSON or YAML).
	JobField = "job"
	// FilesField is the multipart field holding the images, in upload order.
	FilesField = "files"
)

var errTooManyImages = fmt.Errorf("maximum %d images allowed", utils.MaxImageCount)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, utils.THealthResponse{Status: "ok"})
}

/**************************************************************************************************
** handlePreview answers the label of every image of a batch. The configuration is validated
** first; the photo-count total is only checked when the request names a total.
**************************************************************************************************/
func (s *Server) handlePreview(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPreviewBytes)

	var req utils.TPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Total > utils.MaxImageCount || len(req.Files) > utils.MaxImageCount {
		abortWithError(c, http.StatusBadRequest, errTooManyImages)
		return
	}

	if err := timestamp.Validate(&req.Config, req.Total); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	total := req.Total
	if total <= 0 {
		total = max(timestamp.TotalPhotos(req.Config.TimeRanges), len(req.Files))
	}
	if total > utils.MaxImageCount {
		abortWithError(c, http.StatusBadRequest, errTooManyImages)
		return
	}
	entries, err := timestamp.Preview(&req.Config, total, req.Files)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, utils.TPreviewResponse{Entries: entries})
}

/**************************************************************************************************
** handleWatermark processes a multipart upload (a job plus the images, in order) and answers the
** zip archive as an attachment named after the job's archive name.
**************************************************************************************************/
func (s *Server) handleWatermark(c *gin.Context) {
	if c.Request.ContentLength > s.maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.maxUploadBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxErr.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	rawJob := form.Value[JobField]
	if len(rawJob) == 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("missing %q field", JobField))
		return
	}
	job, err := utils.ParseJob([]byte(rawJob[0]))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	headers := form.File[FilesField]
	files := make([]batch.FileInfo, len(headers))
	for i, h := range headers {
		files[i] = batch.FileInfo{Name: h.Filename, Size: h.Size}
	}
	if err := batch.ValidateJob(job, files); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	inputs, err := readInputs(headers)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"request": c.Writer.Header().Get(RequestIDHeader),
		"images":  len(inputs),
		"archive": job.ArchiveName,
	})
	if err := s.batches.Acquire(c.Request.Context(), 1); err != nil {
		abortWithError(c, http.StatusServiceUnavailable, errors.New("request cancelled while waiting for a free slot"))
		return
	}
	defer s.batches.Release(1)
	log.Info("Processing batch")

	outputs, err := s.processor.Process(c.Request.Context(), inputs, &job.Config, job.Options, job.Adjustments,
		func(p utils.TProgress) {
			log.WithFields(logrus.Fields{"current": p.Current, "file": p.CurrentFile}).Debug("Processing image")
		})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, timestamp.ErrInvalidConfig) || errors.Is(err, render.ErrRender) {
			status = http.StatusUnprocessableEntity
		}
		abortWithError(c, status, err)
		return
	}

	data, err := archive.Zip(outputs, job.KeepNames)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ArchiveName))
	c.Data(http.StatusOK, "application/zip", data)
}

func readInputs(headers []*multipart.FileHeader) ([]batch.Input, error) {
	inputs := make([]batch.Input, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", h.Filename, err)
		}
		inputs = append(inputs, batch.Input{Name: h.Filename, Data: data})
	}
	return inputs, nil
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, utils.TErrorResponse{Error: err.Error()})
}
