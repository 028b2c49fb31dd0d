package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ChatPath is appended to the agent base URL.
const ChatPath = "/agent/chat"

// maxResponseBytes caps how much of an agent response is read.
const maxResponseBytes = 5 << 20

// HTTPClient posts chat turns to an external agent service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the agent at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat implements Client.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if len(raw) > maxResponseBytes {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("response too large (over %d bytes)", maxResponseBytes)}
	}
	log.Printf("[agent] POST %s -> %d (%s, %d bytes)", ChatPath, resp.StatusCode, time.Since(start).Round(time.Millisecond), len(raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}
	return raw, nil
}

// upstreamMessage pulls a readable message out of an error body.
func upstreamMessage(raw []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, m := range []string{body.Detail, body.Error, body.Message} {
			if m != "" {
				return m
			}
		}
	}
	return "unexpected response from agent"
}
