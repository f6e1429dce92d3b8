package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stepflow/internal/step"
	"stepflow/internal/types"
)

// HTTPStep performs a single HTTP request and stores the response in the
// data bag under the step name as {"status_code": int, "body": string}.
// Config keys:
//
//	url:     request URL (required, http or https)
//	method:  HTTP method (default GET)
//	headers: map of header name -> value
//	body:    request body string
type HTTPStep struct {
	step.Base
	client *http.Client
}

// NewHTTPStep is the factory constructor for the "http" step type.
func NewHTTPStep(name, description string, config map[string]any) (step.Step, error) {
	rawURL, _ := config["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("http step %q: missing required config key \"url\"", name)
	}
	if !strings.HasPrefix(strings.ToLower(rawURL), "http") {
		return nil, fmt.Errorf("http step %q: url must be http or https", name)
	}
	return &HTTPStep{
		Base:   step.NewBase(name, description, config),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *HTTPStep) Execute(ctx context.Context, data *types.WorkflowData) *types.StepResult {
	start := time.Now()

	method := strings.ToUpper(s.ConfigString("method", http.MethodGet))
	url := s.ConfigString("url", "")

	var body io.Reader
	if raw := s.ConfigString("body", ""); raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return s.Failed(fmt.Errorf("building request: %w", err), time.Since(start))
	}
	if headers, ok := s.Config["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return s.Failed(err, time.Since(start))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.Failed(fmt.Errorf("reading response body: %w", err), time.Since(start))
	}

	data.Set(s.StepName, map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	})

	if resp.StatusCode >= 400 {
		return s.Failed(fmt.Errorf("http status %d", resp.StatusCode), time.Since(start))
	}
	return s.Completed(fmt.Sprintf("%s %s -> %d", method, url, resp.StatusCode), time.Since(start))
}

func (s *HTTPStep) OutputKeys() []string { return []string{s.StepName} }
