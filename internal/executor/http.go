package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// updateCommand is the body posted to an instance's update endpoint.
type updateCommand struct {
	CodeVersion          string    `json:"code_version"`
	ConfigurationVersion string    `json:"configuration_version"`
	Timestamp            time.Time `json:"timestamp"`
}

// instanceResponse is the body an instance's update endpoint returns.
type instanceResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// HTTPExecutor applies updates by POSTing to an instance's HTTP endpoint,
// grounded on the teacher's device HTTP client: the instance is addressed
// as {BaseURL}/instances/{id}/update, bearer-authenticated, and a non-2xx
// response or transport error counts as an attempt failure rather than a
// hard error, matching the executor contract.
type HTTPExecutor struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPExecutor builds an HTTPExecutor with a bounded per-request
// timeout; the orchestrator's own per-instance context still governs the
// end-to-end deadline for an attempt.
func NewHTTPExecutor(baseURL, apiKey string) *HTTPExecutor {
	return &HTTPExecutor{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// SetTransport swaps the underlying transport, for tests.
func (h *HTTPExecutor) SetTransport(rt http.RoundTripper) {
	h.client.Transport = rt
}

func (h *HTTPExecutor) Update(ctx context.Context, instanceID, codeVersion, configurationVersion string) (bool, string, error) {
	cmd := updateCommand{
		CodeVersion:          codeVersion,
		ConfigurationVersion: configurationVersion,
		Timestamp:            time.Now(),
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return false, "", fmt.Errorf("marshal update command: %w", err)
	}

	url := fmt.Sprintf("%s/instances/%s/update", h.baseURL, instanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false, "transport error", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return false, fmt.Sprintf("status %d: %s", resp.StatusCode, string(b)), nil
	}

	var instResp instanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&instResp); err != nil {
		return false, "malformed response", nil
	}
	if !instResp.Success {
		return false, instResp.Reason, nil
	}
	return true, "", nil
}

// DelaySeconds is zero: HTTP round-trip latency is the only delay, no
// extra synthetic delay is permitted for a production executor.
func (h *HTTPExecutor) DelaySeconds() float64 {
	return 0
}
