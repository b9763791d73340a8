package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to talk to the queue API.
type Config struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// Client wraps the backend queue REST surface.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a queue API client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIToken:       strings.TrimSpace(cfg.APIToken),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// StatusError reports a non-success HTTP response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("queue api: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether the error is a 404 from the backend.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func (c *Client) endpoint(parts ...string) string {
	return c.cfg.BaseURL + "/" + strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("queue api: new request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("queue api: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("queue api: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("queue api: decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue api: encode body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded), "application/json", out)
}

// postMultipart sends the request fields as a multipart form with the source
// image attached under the "image" part.
func (c *Client) postMultipart(ctx context.Context, endpoint string, req CreateJobRequest, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields, err := multipartFields(req)
	if err != nil {
		return err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("queue api: write field %s: %w", key, err)
		}
	}

	name := req.SourceImageName
	if name == "" {
		name = "source.png"
	}
	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return fmt.Errorf("queue api: create image part: %w", err)
	}
	if _, err := part.Write(req.SourceImage); err != nil {
		return fmt.Errorf("queue api: write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("queue api: finalize form: %w", err)
	}

	return c.do(ctx, http.MethodPost, endpoint, &buf, writer.FormDataContentType(), out)
}

// multipartFields flattens the JSON shape of a create request into form
// fields so multipart and JSON submissions carry identical parameters.
func multipartFields(req CreateJobRequest) (map[string]string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("queue api: encode form fields: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, fmt.Errorf("queue api: flatten form fields: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			fields[key] = text
			continue
		}
		fields[key] = string(value)
	}
	return fields, nil
}

// DownloadFile fetches stored file bytes by the path recorded on a job. The
// path may be server-relative or a full URL.
func (c *Client) DownloadFile(ctx context.Context, path string) ([]byte, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("queue api: empty file path")
	}
	endpoint := trimmed
	if parsed, err := url.Parse(trimmed); err != nil || parsed.Scheme == "" {
		endpoint = c.cfg.BaseURL + "/" + strings.TrimLeft(trimmed, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("queue api: new request: %w", err)
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("queue api: download %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("queue api: read file: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
