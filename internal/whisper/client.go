// Package whisper is a client for the LLMWhisperer V2 text-extraction API:
// submit a document, poll its status, retrieve the extracted text.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIError is a non-2xx response from the service. Status 429 and 5xx are
// transient; callers may retry those.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llmwhisperer status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth another attempt.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Config struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	MaxWait      time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger,
	}
}

type submitResponse struct {
	WhisperHash string `json:"whisper_hash"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type retrieveResponse struct {
	Extraction struct {
		ResultText string `json:"result_text"`
	} `json:"extraction"`
}

// ExtractText submits the file at path, waits for processing to finish and
// returns the extracted text. The wait is caller-enforced: polling stops at
// MaxWait regardless of what the service reports.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	payload, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	c.log.Info("whisper.submit", "req_id", rid, "path", path, "bytes", len(payload))
	hash, err := c.submit(ctx, payload)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.cfg.MaxWait)
	for {
		status, err := c.status(ctx, hash)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case "processed":
			text, err := c.retrieve(ctx, hash)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("extracted text is empty")
			}
			c.log.Info("whisper.done",
				"req_id", rid, "hash", hash,
				"chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
			return text, nil
		case "error":
			return "", fmt.Errorf("llmwhisperer processing error: %s", status.Error)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out after %s waiting for llmwhisperer", c.cfg.MaxWait)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

func (c *Client) submit(ctx context.Context, payload []byte) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/whisper"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("unstract-key", c.cfg.APIKey)

	raw, err := c.do(req)
	if err != nil {
		return "", err
	}
	var sr submitResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if sr.WhisperHash == "" {
		return "", fmt.Errorf("submit response missing whisper_hash")
	}
	return sr.WhisperHash, nil
}

func (c *Client) status(ctx context.Context, hash string) (statusResponse, error) {
	raw, err := c.get(ctx, "/whisper-status", hash)
	if err != nil {
		return statusResponse{}, err
	}
	var sr statusResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return statusResponse{}, fmt.Errorf("decode status response: %w", err)
	}
	return sr, nil
}

func (c *Client) retrieve(ctx context.Context, hash string) (string, error) {
	raw, err := c.get(ctx, "/whisper-retrieve", hash)
	if err != nil {
		return "", err
	}
	var rr retrieveResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return "", fmt.Errorf("decode retrieve response: %w", err)
	}
	return rr.Extraction.ResultText, nil
}

func (c *Client) get(ctx context.Context, apiPath, hash string) ([]byte, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + apiPath + "?whisper_hash=" + url.QueryEscape(hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("unstract-key", c.cfg.APIKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmwhisperer http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("whisper.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}
