package server

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

/************************************************************************************************
** Test helpers
************************************************************************************************/

// fakeRenderer answers "<input>:<first watermark line>" as the processed image.
type fakeRenderer struct{}

func (fakeRenderer) Ready(context.Context) error { return nil }

func (fakeRenderer) Render(data []byte, lines []string, _ utils.TAdvancedOptions, _ *utils.TImageAdjustment) ([]byte, error) {
	return []byte(string(data) + ":" + lines[0]), nil
}

func newTestServer(apiKey string) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(batch.NewProcessor(fakeRenderer{}, logger), logger, apiKey)
}

const jobJSON = `{
  "config": {
    "date": "2025-01-15",
    "street": "1 Main St",
    "city": "Boston",
    "state": "MA",
    "zip": "02108",
    "timeRanges": [{"startTime": "09:00", "incrementPattern": [10], "photoCount": 2}]
  },
  "options": {"position": "top-left"}
}`

func multipartBody(t *testing.T, job string, files map[string]string, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if job != "" {
		require.NoError(t, w.WriteField(JobField, job))
	}
	for _, name := range order {
		part, err := w.CreateFormFile(FilesField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.TErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

/************************************************************************************************
** Routes
************************************************************************************************/

func TestHealth(t *testing.T) {
	s := newTestServer("secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreview(t *testing.T) {
	s := newTestServer("")

	t.Run("labels every image", func(t *testing.T) {
		req := utils.TPreviewRequest{
			Config: utils.TWatermarkConfig{
				Date: "2025-01-15", Street: "1 Main St", City: "Boston", State: "MA", Zip: "02108",
				TimeRanges: []utils.TTimeRange{{StartTime: "09:00", PhotoCount: 3, IncrementPattern: []utils.TIncrement{utils.Direct(10), utils.RelativeTo(0, 5)}}},
			},
			Files: []string{"a.jpg"},
		}
		payload, err := json.Marshal(req)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", bytes.NewReader(payload)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp utils.TPreviewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 3)
		assert.Equal(t, "a.jpg", resp.Entries[0].File)
		assert.Equal(t, []string{"9:00AM", "9:10AM", "9:05AM"},
			[]string{resp.Entries[0].Label, resp.Entries[1].Label, resp.Entries[2].Label})
	})

	t.Run("invalid configuration", func(t *testing.T) {
		payload := `{"config": {"date": "2025-01-15", "street": "", "city": "x", "state": "y", "zip": "z", "timeRanges": []}}`
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(payload)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "street address is required")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		payload := `{"files": ["` + strings.Repeat("a", maxPreviewBytes) + `"]}`
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(payload)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestPreviewImageCap(t *testing.T) {
	s := newTestServer("")

	rangeOf := func(photos int) utils.TTimeRange {
		return utils.TTimeRange{StartTime: "09:00", PhotoCount: photos, IncrementPattern: make([]utils.TIncrement, photos-1)}
	}
	config := func(ranges ...utils.TTimeRange) utils.TWatermarkConfig {
		return utils.TWatermarkConfig{
			Date: "2025-01-15", Street: "1 Main St", City: "Boston", State: "MA", Zip: "02108",
			TimeRanges: ranges,
		}
	}

	tests := []struct {
		name     string
		req      utils.TPreviewRequest
		wantCode int
	}{
		{
			name:     "ranges at the cap",
			req:      utils.TPreviewRequest{Config: config(rangeOf(60), rangeOf(utils.MaxImageCount-60))},
			wantCode: http.StatusOK,
		},
		{
			name:     "ranges above the cap without a total",
			req:      utils.TPreviewRequest{Config: config(rangeOf(60), rangeOf(utils.MaxImageCount-59))},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "total above the cap",
			req:      utils.TPreviewRequest{Config: config(rangeOf(utils.MaxImageCount + 1)), Total: utils.MaxImageCount + 1},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "too many files",
			req:      utils.TPreviewRequest{Config: config(rangeOf(1)), Files: make([]string, utils.MaxImageCount+1)},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.req)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", bytes.NewReader(payload)))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, decodeError(t, rec), "maximum 100 images allowed")
				return
			}
			var resp utils.TPreviewResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Entries, utils.MaxImageCount)
		})
	}
}

func TestWatermark(t *testing.T) {
	s := newTestServer("")

	t.Run("answers a zip of the processed images", func(t *testing.T) {
		body, contentType := multipartBody(t, jobJSON, map[string]string{"b.jpg": "B", "a.jpg": "A"}, []string{"b.jpg", "a.jpg"})
		req := httptest.NewRequest(http.MethodPost, "/api/watermark", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="watermarked_images.zip"`, rec.Header().Get("Content-Disposition"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 2)

		expected := map[string]string{
			"1.jpg": "B:01/15/2025 9:00AM",
			"2.jpg": "A:01/15/2025 9:10AM",
		}
		for _, f := range zr.File {
			rc, err := f.Open()
			require.NoError(t, err)
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			assert.Equal(t, expected[f.Name], string(content), f.Name)
		}
	})

	tests := []struct {
		name        string
		job         string
		files       []string
		wantMessage string
	}{
		{name: "missing job", job: "", files: []string{"a.jpg", "b.jpg"}, wantMessage: `missing "job" field`},
		{name: "unparseable job", job: "config: [", files: []string{"a.jpg", "b.jpg"}, wantMessage: "failed to parse job"},
		{name: "no files", job: jobJSON, files: nil, wantMessage: "please select at least one image"},
		{name: "not an image", job: jobJSON, files: []string{"a.jpg", "notes.txt"}, wantMessage: "is not an image"},
		{name: "count mismatch", job: jobJSON, files: []string{"a.jpg"}, wantMessage: "total photos in ranges (2) must equal uploaded images (1)"},
		{
			name:        "invalid option",
			job:         strings.Replace(jobJSON, `"top-left"`, `"center"`, 1),
			files:       []string{"a.jpg", "b.jpg"},
			wantMessage: `unknown position "center"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := map[string]string{}
			for _, f := range tt.files {
				contents[f] = "x"
			}
			body, contentType := multipartBody(t, tt.job, contents, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/watermark", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantMessage)
		})
	}
}

func TestWatermarkUploadTooLarge(t *testing.T) {
	s := newTestServer("")
	s.maxUploadBytes = 1024

	tests := []struct {
		name          string
		unknownLength bool
	}{
		{name: "declared length over the limit"},
		{name: "unknown length", unknownLength: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{"a.jpg": strings.Repeat("A", 2048), "b.jpg": "B"}
			body, contentType := multipartBody(t, jobJSON, files, []string{"a.jpg", "b.jpg"})
			req := httptest.NewRequest(http.MethodPost, "/api/watermark", body)
			req.Header.Set("Content-Type", contentType)
			if tt.unknownLength {
				req.ContentLength = -1
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Contains(t, decodeError(t, rec), "upload exceeds 1024 bytes")
		})
	}
}

func TestAPIKey(t *testing.T) {
	s := newTestServer("secret")
	payload := `{"config": {"date": "2025-01-15", "street": "s", "city": "c", "state": "st", "zip": "z",
		"timeRanges": [{"startTime": "10:00", "incrementPattern": [], "photoCount": 1}]}}`

	tests := []struct {
		name     string
		key      *string
		wantCode int
	}{
		{name: "missing", key: nil, wantCode: http.StatusUnauthorized},
		{name: "empty", key: ptr(""), wantCode: http.StatusUnauthorized},
		{name: "wrong", key: ptr("public"), wantCode: http.StatusUnauthorized},
		{name: "prefix", key: ptr("secre"), wantCode: http.StatusUnauthorized},
		{name: "longer", key: ptr("secret2"), wantCode: http.StatusUnauthorized},
		{name: "different case", key: ptr("Secret"), wantCode: http.StatusUnauthorized},
		{name: "correct", key: ptr("secret"), wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(payload))
			if tt.key != nil {
				req.Header.Set(APIKeyHeader, *tt.key)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func ptr(s string) *string { return &s }

func TestCORSPreflight(t *testing.T) {
	s := newTestServer("secret")

	req := httptest.NewRequest(http.MethodOptions, "/api/watermark", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGzip(t *testing.T) {
	s := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	t.Run("archives are sent as is", func(t *testing.T) {
		body, contentType := multipartBody(t, jobJSON, map[string]string{"a.jpg": "A", "b.jpg": "B"}, []string{"a.jpg", "b.jpg"})
		req := httptest.NewRequest(http.MethodPost, "/api/watermark", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept-Encoding", "gzip")

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})
}

func TestRequestID(t *testing.T) {
	s := newTestServer("")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestWatermarkWaitsForAFreeSlot(t *testing.T) {
	s := newTestServer("")
	require.NoError(t, s.batches.Acquire(context.Background(), maxConcurrentBatches))
	defer s.batches.Release(maxConcurrentBatches)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	body, contentType := multipartBody(t, jobJSON, map[string]string{"a.jpg": "A", "b.jpg": "B"}, []string{"a.jpg", "b.jpg"})
	req := httptest.NewRequest(http.MethodPost, "/api/watermark", body).WithContext(ctx)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeError(t, rec), "waiting for a free slot")
}
