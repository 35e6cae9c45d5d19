package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/schema"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	toolName   = "extract_data"

	// DefaultModel favors cost efficiency over capability; any model
	// name accepted by the Messages API works.
	DefaultModel = "claude-3-haiku-20240307"

	// DefaultMaxRetries is the transient-failure retry budget per call.
	DefaultMaxRetries = 3

	maxTokens      = 2500
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// providerError is a classified provider failure. Transient errors
// (rate limits, timeouts, 5xx) are retried; everything else falls
// straight through to the pattern path.
type providerError struct {
	status     int // 0 for network-level failures
	retryAfter time.Duration
	err        error
}

func (e *providerError) Error() string {
	if e.status == 0 {
		return fmt.Sprintf("provider unreachable: %v", e.err)
	}
	return fmt.Sprintf("provider error (status %d): %v", e.status, e.err)
}

func (e *providerError) Unwrap() error {
	return e.err
}

func (e *providerError) transient() bool {
	return e.status == 0 || e.status == http.StatusTooManyRequests || e.status >= 500
}

// parseRetryAfter parses a Retry-After header value into a duration.
// Returns 0 when absent or unparseable.
func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// AnthropicClient speaks the Anthropic Messages API over plain HTTP,
// forcing a tool-use response shaped by the extraction schema.
type AnthropicClient struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
}

// NewAnthropicClient creates a client. Empty model and zero retries
// select the defaults.
func NewAnthropicClient(apiKey, model string, maxRetries int, logger *zap.Logger) *AnthropicClient {
	return NewAnthropicClientWithEndpoint(apiKey, model, maxRetries, apiURL, logger)
}

// NewAnthropicClientWithEndpoint creates a client pointing at a custom
// API endpoint (for testing).
func NewAnthropicClientWithEndpoint(apiKey, model string, maxRetries int, endpoint string, logger *zap.Logger) *AnthropicClient {
	if model == "" {
		model = DefaultModel
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

// Extract asks the provider for one structured answer mapping each
// schema field to its value. Transient failures are retried with
// exponential backoff up to the budget; the final error is returned
// for the caller to downgrade to the fallback path.
func (c *AnthropicClient) Extract(ctx context.Context, text string, s schema.Schema) (map[string]*string, error) {
	reqID := uuid.New().String()
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		fields, err := c.call(ctx, text, s, reqID)
		if err == nil {
			return fields, nil
		}
		lastErr = err

		var pe *providerError
		if !errors.As(err, &pe) || !pe.transient() || attempt == c.maxRetries {
			break
		}

		delay := backoff
		if pe.retryAfter > 0 {
			delay = pe.retryAfter
		}
		if delay > maxBackoff {
			delay = maxBackoff
		}
		c.logger.Warn("provider call failed, retrying",
			zap.String("req_id", reqID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		backoff *= 2
	}

	return nil, lastErr
}

// call performs a single Messages API round trip.
func (c *AnthropicClient) call(ctx context.Context, text string, s schema.Schema, reqID string) (map[string]*string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"max_tokens":  maxTokens,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(text)},
		},
		"tools": []map[string]any{
			{
				"name":         toolName,
				"description":  "Extracts structured data from the document.",
				"input_schema": toolInputSchema(s),
			},
		},
		"tool_choice": map[string]any{"type": "tool", "name": toolName},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &providerError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providerError{err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("provider response",
		zap.String("req_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode != http.StatusOK {
		pe := &providerError{
			status: resp.StatusCode,
			err:    fmt.Errorf("anthropic API error: %s", truncate(string(respBody), 500)),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			pe.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return nil, pe
	}

	return parseToolResponse(respBody, s)
}

// buildPrompt wraps the document text with extraction instructions.
func buildPrompt(text string) string {
	return fmt.Sprintf(`You are a data extraction expert tasked with extracting structured information from the following document.

<document>
%s
</document>

Extract all relevant information according to the provided schema. If a field is not found in the document, use null.

For dates, format consistently (YYYY-MM-DD where possible).
For names, extract full names where available.
For identification numbers, pay attention to formats like A-Numbers (e.g. A12345678) and receipt numbers.

Use the %s tool to return the structured data.`, text, toolName)
}

// toolInputSchema builds the tool's JSON input schema from the
// extraction schema's field hints.
func toolInputSchema(s schema.Schema) map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = map[string]any{
			"type":        []string{"string", "null"},
			"description": f.Hint,
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// apiResponse models the Messages API response.
type apiResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// parseToolResponse pulls the forced tool call out of the response and
// coerces its input into the schema's field set.
func parseToolResponse(body []byte, s schema.Schema) (map[string]*string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	for _, content := range resp.Content {
		if content.Type != "tool_use" || content.Name != toolName {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(content.Input, &raw); err != nil {
			return nil, fmt.Errorf("parsing tool input: %w", err)
		}

		fields := make(map[string]*string, len(s.Fields))
		for _, f := range s.Fields {
			fields[f.Name] = coerceValue(raw[f.Name])
		}
		return fields, nil
	}

	return nil, fmt.Errorf("no structured data found in provider response")
}

// coerceValue converts a tool-input value to a string pointer; nulls,
// absent keys and empty strings map to nil.
func coerceValue(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return &val
	case float64:
		str := strconv.FormatFloat(val, 'f', -1, 64)
		return &str
	case bool:
		str := strconv.FormatBool(val)
		return &str
	default:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
