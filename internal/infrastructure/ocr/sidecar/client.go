// Package sidecar talks to the OCR engine sidecar over HTTP. The sidecar
// accepts a page image and returns raw text detections with quadrilateral
// bounding polygons and per-detection confidence in [0,1].
package sidecar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithResilienceExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recognizeRequest struct {
	Image string `json:"image"`
}

type recognizeResponse struct {
	Blocks []domain.RawBlock `json:"blocks"`
}

// DetectAndRecognize submits one page image and returns its detections.
// Detections come back in the sidecar's own order; callers are expected
// to re-sort into reading order.
func (c *Client) DetectAndRecognize(ctx context.Context, image []byte) ([]domain.RawBlock, error) {
	if len(image) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ocr recognize", fmt.Errorf("empty image"))
	}

	payload := recognizeRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var response recognizeResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/ocr", payload, &response, "recognize")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ocr.recognize", call, classifySidecarError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapUpstream("ocr recognize", err)
	}
	if response.Blocks == nil {
		return []domain.RawBlock{}, nil
	}
	return response.Blocks, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ocr %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
