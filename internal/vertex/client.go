// Package vertex implements the inference invoker against the Vertex AI
// generateContent REST API, with fallback across an ordered list of model
// candidates and from the batch endpoint down to individual calls.
package vertex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"invoscan/internal/config"
	"invoscan/internal/port"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DefaultFallbacks is the fixed fallback sequence tried after the preferred
// model, in order.
var DefaultFallbacks = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash-001",
	"gemini-1.5-pro-002",
	"gemini-1.5-flash-002",
}

// thinkingModels matches models that support an extended reasoning mode. For
// those, the thinking budget is explicitly zeroed to bound latency and cost.
var thinkingModels = regexp.MustCompile(`(?i)gemini-2\.5-pro`)

// notFoundPattern recognizes "model not found" provider messages.
var notFoundPattern = regexp.MustCompile(`(?i)not\s*found`)

// batchUnavailablePattern recognizes batch-endpoint-missing provider messages.
var batchUnavailablePattern = regexp.MustCompile(`(?i)not\s*found|unimplemented`)

// inlineRetryPattern recognizes permission/provisioning failures worth
// retrying with an inline payload instead of the storage reference.
var inlineRetryPattern = regexp.MustCompile(`(?i)Service agents are being provisioned|Permission|not\s*found`)

// ModelUnavailableError marks a candidate model the provider does not serve.
// The invoker advances past these; any other error is fatal for the call.
type ModelUnavailableError struct {
	Model string
	Msg   string
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %s", e.Model, e.Msg)
}

// Client calls the Vertex generateContent API. It implements port.Inference.
type Client struct {
	projectID string
	location  string
	model     string
	fallbacks []string
	tokens    oauth2.TokenSource
	client    *http.Client
	endpoint  string // host override for testing; "" means the regional host
}

// NewClient creates a Client using application default credentials.
func NewClient(ctx context.Context, cfg *config.VertexConfig) (*Client, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("resolving default credentials: %w", err)
	}
	return newClient(cfg, ts, ""), nil
}

// NewClientWithEndpoint creates a Client pointing at a custom API endpoint
// with an optional token source (for testing).
func NewClientWithEndpoint(cfg *config.VertexConfig, endpoint string, ts oauth2.TokenSource) *Client {
	return newClient(cfg, ts, endpoint)
}

func newClient(cfg *config.VertexConfig, ts oauth2.TokenSource, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-pro"
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	fallbacks := cfg.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = DefaultFallbacks
	}
	return &Client{
		projectID: cfg.ProjectID,
		location:  location,
		model:     model,
		fallbacks: fallbacks,
		tokens:    ts,
		client:    &http.Client{Timeout: timeout},
		endpoint:  endpoint,
	}
}

// Invoke runs one inference request, walking the model candidate list and
// falling back from batch to single calls per candidate. If a storage-URI
// request fails on a permission/provisioning error and an inline payload is
// available, the call is retried once inline.
func (c *Client) Invoke(ctx context.Context, in port.InvokeInput) (json.RawMessage, error) {
	out, err := c.invoke(ctx, in)
	if err != nil && in.GSURI != "" && len(in.InlineData) > 0 && inlineRetryPattern.MatchString(err.Error()) {
		log.Printf("vertex: gs-uri call failed (%v); retrying with inline payload", err)
		inline := in
		inline.GSURI = ""
		inline.MimeType = ""
		return c.invoke(ctx, inline)
	}
	return out, err
}

func (c *Client) invoke(ctx context.Context, in port.InvokeInput) (json.RawMessage, error) {
	candidates := c.candidates(in.Model)
	location := in.Location
	if location == "" {
		location = c.location
	}

	var lastErr error
	for _, model := range candidates {
		body, err := c.buildBody(in, model)
		if err != nil {
			return nil, err
		}
		base := c.modelURL(location, model)

		if in.UseBatch {
			raw, err := c.postBatch(ctx, base, body)
			if err == nil {
				return raw, nil
			}
			var unavailable *ModelUnavailableError
			if !errors.As(err, &unavailable) {
				return nil, err
			}
			log.Printf("vertex: model %s batch unavailable, falling back to single calls", model)
			lastErr = err
		}

		raw, err := c.postSingle(ctx, base, body)
		if err == nil {
			return raw, nil
		}
		var unavailable *ModelUnavailableError
		if errors.As(err, &unavailable) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all model attempts failed: %w", lastErr)
	}
	return nil, fmt.Errorf("all model attempts failed")
}

// candidates returns the preferred model followed by the fallback sequence,
// deduplicated in order.
func (c *Client) candidates(preferred string) []string {
	first := strings.TrimSpace(preferred)
	if first == "" {
		first = c.model
	}
	seen := map[string]bool{}
	out := make([]string, 0, 1+len(c.fallbacks))
	for _, m := range append([]string{first}, c.fallbacks...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (c *Client) modelURL(location, model string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s",
			c.endpoint, c.projectID, location, model)
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s",
		location, c.projectID, location, model)
}

func (c *Client) buildBody(in port.InvokeInput, model string) (map[string]any, error) {
	parts := []map[string]any{{"text": in.Prompt}}
	// A storage reference is preferred; inline bytes are the fallback input.
	switch {
	case in.GSURI != "" && in.MimeType != "":
		parts = append(parts, map[string]any{
			"fileData": map[string]any{
				"fileUri":  in.GSURI,
				"mimeType": in.MimeType,
			},
		})
	case len(in.InlineData) > 0 && in.InlineMimeType != "":
		parts = append(parts, map[string]any{
			"inlineData": map[string]any{
				"mimeType": in.InlineMimeType,
				"data":     base64.StdEncoding.EncodeToString(in.InlineData),
			},
		})
	default:
		return nil, fmt.Errorf("invoke missing input: either inline data with mime type or gsUri with mime type")
	}

	body := map[string]any{
		"contents": []map[string]any{{"role": "user", "parts": parts}},
	}
	if thinkingModels.MatchString(model) {
		// The provider renamed the budget field; set both spellings so the
		// zero budget applies regardless of API vintage.
		body["generationConfig"] = map[string]any{
			"thinkingConfig": map[string]any{
				"thinkingBudget":  0,
				"thinking_budget": 0,
				"includeThoughts": false,
			},
		}
	}
	return body, nil
}

func (c *Client) postBatch(ctx context.Context, base string, body map[string]any) (json.RawMessage, error) {
	raw, status, err := c.post(ctx, base+":batchGenerateContent", map[string]any{
		"requests": []map[string]any{body},
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		var batch struct {
			Responses []json.RawMessage `json:"responses"`
		}
		if err := json.Unmarshal(raw, &batch); err == nil && len(batch.Responses) > 0 {
			return batch.Responses[0], nil
		}
		return raw, nil
	}
	msg := providerMessage(raw, status, "Vertex batch request failed")
	if status == http.StatusNotFound || status == http.StatusBadRequest || batchUnavailablePattern.MatchString(msg) {
		return nil, &ModelUnavailableError{Model: base, Msg: msg}
	}
	return nil, fmt.Errorf("%s", msg)
}

func (c *Client) postSingle(ctx context.Context, base string, body map[string]any) (json.RawMessage, error) {
	raw, status, err := c.post(ctx, base+":generateContent", body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		return raw, nil
	}
	msg := providerMessage(raw, status, "Vertex request failed")
	if status == http.StatusNotFound || notFoundPattern.MatchString(msg) {
		return nil, &ModelUnavailableError{Model: base, Msg: msg}
	}
	return nil, fmt.Errorf("%s", msg)
}

func (c *Client) post(ctx context.Context, url string, body any) (json.RawMessage, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, 0, fmt.Errorf("obtaining access token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling vertex API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// providerMessage extracts the provider's error message verbatim, falling
// back to a status-line description.
func providerMessage(raw []byte, status int, what string) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return fmt.Sprintf("%s with %d", what, status)
}
