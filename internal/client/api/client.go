// Package api is the terminal client's view of the yearbook server: the
// entry list, multipart submissions and the SSE change feed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// Paths served by the yearbook server.
const (
	EntriesPath = "/api/entries"
	StreamPath  = "/api/entries/stream"
	HealthPath  = "/health"
)

type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	logger  logging.Logger
}

// NewClient builds a client for the server at baseURL. Requests other than
// the stream use timeout.
func NewClient(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		logger:  logger.With("module", "api_client"),
	}
}

// BaseURL is the server origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadURL is the browser form guests are sent to.
func (c *Client) UploadURL() string {
	return c.baseURL + common.UploadRoute
}

// List fetches every entry, newest first.
func (c *Client) List(ctx context.Context) ([]models.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EntriesPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list returned %s", common.ErrUnavailable, resp.Status)
	}

	var entries []models.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

// Create submits sub as a multipart form. The returned Result carries the
// server's message for both success and rejection; err is reserved for
// transport failures.
func (c *Client) Create(ctx context.Context, sub models.Submission) (models.Result, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return models.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EntriesPath, body)
	if err != nil {
		return models.Result{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var res models.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.Result{}, fmt.Errorf("%w: create returned %s", common.ErrUnavailable, resp.Status)
	}
	return res, nil
}

// Ping reports whether the server answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %s", common.ErrUnavailable, resp.Status)
	}
	return nil
}

func encodeSubmission(sub models.Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", sub.Name); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("quote", sub.Quote); err != nil {
		return nil, "", err
	}

	if !sub.Image.Empty() {
		filename := sub.Image.Filename
		if filename == "" {
			filename = "captured-image.jpg"
		}
		contentType := sub.Image.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(sub.Image.Data)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(sub.Image.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
