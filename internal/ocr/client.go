// Package ocr holds the client for the external extraction service. The
// service is opaque: one POST with the encoded image, one structured response
// back, exactly one attempt per item.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Extractor is the single operation the pipeline needs from the OCR service.
// Tests substitute a deterministic double without network access.
type Extractor interface {
	Extract(ctx context.Context, payload string) (map[string]interface{}, error)
}

// Request is the fixed request shape the service expects. The encoded image
// travels under data.document1.
type Request struct {
	TaskID  string      `json:"task_id"`
	GroupID string      `json:"group_id"`
	Data    RequestData `json:"data"`
}

// RequestData wraps the document payload.
type RequestData struct {
	Document1 string `json:"document1"`
}

// Client issues synchronous extraction requests over HTTP.
type Client struct {
	url        string
	apiKey     string
	apiHost    string
	taskID     string
	groupID    string
	httpClient *http.Client
}

// NewClient builds a Client. timeout bounds the whole call; an expired
// deadline surfaces as a transport error, never as a hang.
func NewClient(url, apiKey, apiHost, taskID, groupID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		apiHost:    apiHost,
		taskID:     taskID,
		groupID:    groupID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract sends one encoded image and returns the parsed response body.
// Failure modes collapse into an error the caller logs and skips on:
// transport failure, non-200 status, or a 200 body that is not valid JSON.
func (c *Client) Extract(ctx context.Context, payload string) (map[string]interface{}, error) {
	reqBody := Request{
		TaskID:  c.taskID,
		GroupID: c.groupID,
		Data:    RequestData{Document1: payload},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-api-host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Prefer the structured body in the error when the service sent one;
		// fall back to raw text for proxies and gateways that do not.
		var parsed map[string]interface{}
		if json.Unmarshal(respBody, &parsed) == nil {
			return nil, fmt.Errorf("ocr status %d: %v", resp.StatusCode, parsed)
		}
		return nil, fmt.Errorf("ocr status %d: %s", resp.StatusCode, string(respBody))
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("parse ocr response: %w", err)
	}
	return doc, nil
}
