/**************************************************************************************************
** Package client talks to a running photo-stamp server, so the CLI can hand a batch to a remote
** machine and download the resulting archive.
**************************************************************************************************/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/majorfi/photo-stamp/pkg/batch"
	"github.com/majorfi/photo-stamp/pkg/server"
	"github.com/majorfi/photo-stamp/pkg/utils"
)

// HTTP client configuration constants
const (
	defaultHTTPTimeout  = 600 * time.Second
	maxIdleConns        = 10
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
	retryBaseDelay      = 500 * time.Millisecond
	maxRetries          = 3
)

/**************************************************************************************************
** Client represents a photo-stamp server client. It handles request retries, the optional API key
** and error responses.
**************************************************************************************************/
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

/**************************************************************************************************
** NewClient creates a new client for the server at serverURL.
**
** @param serverURL - Base URL of the server, e.g. http://localhost:8080
** @param apiKey - Shared secret, "" when the server runs without one
** @param logger - Logger instance for output
** @return *Client - Configured client, nil when the URL or logger is unusable
**************************************************************************************************/
func NewClient(serverURL, apiKey string, logger *logrus.Logger) *Client {
	if serverURL == "" || logger == nil {
		return nil
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil
	}

	client := &http.Client{
		Timeout: defaultHTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
		},
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(fmt.Sprintf("%s://%s%s", parsedURL.Scheme, parsedURL.Host, parsedURL.Path), "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

/**************************************************************************************************
** doRequest sends a request with retry logic and proper error handling. Transport errors are
** retried with a linear backoff; any HTTP response is final. Non-2xx responses are turned into an
** error carrying the server message.
**
** @param ctx - Cancels the request and the backoff
** @param method - HTTP method
** @param path - Endpoint path
** @param contentType - Body content type, "" without body
** @param body - Request body, replayed on every attempt
** @return []byte - Response body
** @return error - Any error that occurred during the request
**************************************************************************************************/
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.apiKey != "" {
			req.Header.Set(server.APIKeyHeader, c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WithError(err).Debugf("Request %s %s failed (attempt %d/%d)", method, path, i+1, maxRetries)
			select {
			case <-time.After(retryBaseDelay * time.Duration(i+1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading response: %w", err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		var apiErr utils.TErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("error response: %s - %s", resp.Status, apiErr.Error)
		}
		return nil, fmt.Errorf("error response: %s - %s", resp.Status, string(data))
	}

	return nil, fmt.Errorf("error making request after %d retries: %w", maxRetries, lastErr)
}

/**************************************************************************************************
** Health checks that the server is up.
**************************************************************************************************/
func (c *Client) Health(ctx context.Context) error {
	data, err := c.doRequest(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	var resp utils.THealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server reported status %q", resp.Status)
	}
	return nil
}

/**************************************************************************************************
** Preview asks the server for the label of every image.
**
** @param ctx - Request context
** @param cfg - Watermark configuration
** @param files - Filenames in upload order
** @return []utils.TPreviewEntry - One entry per file
** @return error - Validation or transport error
**************************************************************************************************/
func (c *Client) Preview(ctx context.Context, cfg utils.TWatermarkConfig, files []string) ([]utils.TPreviewEntry, error) {
	payload, err := json.Marshal(utils.TPreviewRequest{Config: cfg, Total: len(files), Files: files})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/api/preview", "application/json", payload)
	if err != nil {
		return nil, err
	}
	var resp utils.TPreviewResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return resp.Entries, nil
}

/**************************************************************************************************
** Watermark uploads the job and the images and returns the zip archive produced by the server.
** The job's own image list is ignored: inputs are sent in the order given.
**
** @param ctx - Request context
** @param job - Job description
** @param inputs - Images in upload order
** @return []byte - Zip archive
** @return error - Validation, processing or transport error
**************************************************************************************************/
func (c *Client) Watermark(ctx context.Context, job *utils.TJob, inputs []batch.Input) ([]byte, error) {
	body, contentType, err := encodeWatermarkRequest(job, inputs)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"images": len(inputs),
		"bytes":  len(body),
	}).Info("Uploading batch to server")

	return c.doRequest(ctx, http.MethodPost, "/api/watermark", contentType, body)
}

func encodeWatermarkRequest(job *utils.TJob, inputs []batch.Input) ([]byte, string, error) {
	remote := *job
	remote.Images = nil
	jobData, err := yaml.Marshal(&remote)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding job: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField(server.JobField, string(jobData)); err != nil {
		return nil, "", fmt.Errorf("error writing job field: %w", err)
	}
	for _, input := range inputs {
		part, err := w.CreateFormFile(server.FilesField, input.Name)
		if err != nil {
			return nil, "", fmt.Errorf("error adding %s: %w", input.Name, err)
		}
		if _, err := part.Write(input.Data); err != nil {
			return nil, "", fmt.Errorf("error adding %s: %w", input.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("error closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
