// Package aiml implements the upstream video-generation provider protocol:
// an asynchronous submit call followed by status polling.
package aiml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/infra"
	"clipforge/internal/jsonval"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReadTimeout       = 45 * time.Second
	defaultStatusReadTimeout = 30 * time.Second
	defaultSubmitAttempts    = 2
	defaultStatusAttempts    = 2
	defaultBackoffBase       = time.Second
)

// Options configures the provider client.
type Options struct {
	BaseURL          string
	APIKey           string
	GeneratePath     string
	StatusPath       string
	StatusQueryParam string
	DefaultModel     string

	// HTTPClient overrides both internal clients when set (tests).
	HTTPClient *http.Client

	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	StatusReadTimeout time.Duration
	SubmitAttempts    int
	StatusAttempts    int
	BackoffBase       time.Duration

	Logger *infra.Logger

	// Sleep is injected so tests can run retries without real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client talks to the generation provider. Submit and Poll never return
// transport failures as Go errors; a local failure becomes a Response with
// StatusCode 0 so callers can tell local trouble from remote rejection.
type Client struct {
	baseURL          string
	apiKey           string
	generatePath     string
	statusPath       string
	statusQueryParam string
	defaultModel     string

	submitClient *http.Client
	statusClient *http.Client

	submitAttempts int
	statusAttempts int
	backoffBase    time.Duration

	logger infra.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// SubmitRequest carries one immutable generation submission.
type SubmitRequest struct {
	Prompt          string
	DurationSeconds int
	Seed            *int64
	Model           string
	AspectRatio     string
	Resolution      string

	// GeneratePathOverride replaces the configured generate path, used by
	// model families served under their own endpoint.
	GeneratePathOverride string
}

// Response is the normalized outcome of one provider call.
type Response struct {
	StatusCode int
	Body       jsonval.Value
	URL        string
}

type generationPayload struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	Seed        *int64 `json:"seed,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

// NewClient constructs a provider client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("aiml: base url is required")
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	statusReadTimeout := opts.StatusReadTimeout
	if statusReadTimeout <= 0 {
		statusReadTimeout = defaultStatusReadTimeout
	}
	submitClient := opts.HTTPClient
	statusClient := opts.HTTPClient
	if submitClient == nil {
		transport := &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		}
		submitClient = &http.Client{Timeout: readTimeout, Transport: transport}
		statusClient = &http.Client{Timeout: statusReadTimeout, Transport: transport}
	}
	submitAttempts := opts.SubmitAttempts
	if submitAttempts <= 0 {
		submitAttempts = defaultSubmitAttempts
	}
	statusAttempts := opts.StatusAttempts
	if statusAttempts <= 0 {
		statusAttempts = defaultStatusAttempts
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	var logger infra.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	model := strings.TrimSpace(opts.DefaultModel)
	if model == "" {
		model = "alibaba/wan2.1-t2v-turbo"
	}
	queryParam := strings.TrimSpace(opts.StatusQueryParam)
	if queryParam == "" {
		queryParam = "generation_id"
	}
	return &Client{
		baseURL:          baseURL,
		apiKey:           strings.TrimSpace(opts.APIKey),
		generatePath:     opts.GeneratePath,
		statusPath:       opts.StatusPath,
		statusQueryParam: queryParam,
		defaultModel:     model,
		submitClient:     submitClient,
		statusClient:     statusClient,
		submitAttempts:   submitAttempts,
		statusAttempts:   statusAttempts,
		backoffBase:      backoffBase,
		logger:           logger,
		sleep:            sleep,
	}, nil
}

// Submit creates a generation job. Only transient failures (local transport
// errors, 429, 5xx) are retried with exponential backoff; any other response,
// including a definitive non-429 4xx, returns immediately.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) *Response {
	payload := generationPayload{
		Model:  strings.TrimSpace(req.Model),
		Prompt: req.Prompt,
	}
	if payload.Model == "" {
		payload.Model = c.defaultModel
	}
	if req.Seed != nil {
		payload.Seed = req.Seed
	}
	if req.DurationSeconds > 0 {
		payload.Duration = req.DurationSeconds
	}
	if req.AspectRatio != "" {
		payload.AspectRatio = req.AspectRatio
	}
	if req.Resolution != "" {
		payload.Resolution = req.Resolution
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return localFailure("", fmt.Errorf("encode payload: %w", err))
	}

	path := req.GeneratePathOverride
	if path == "" {
		path = c.generatePath
	}
	endpoint := c.baseURL + path

	return c.doWithRetry(ctx, c.submitAttempts, func() *Response {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return localFailure(endpoint, err)
		}
		c.setHeaders(httpReq)
		resp, err := c.submitClient.Do(httpReq)
		if err != nil {
			return localFailure(endpoint, err)
		}
		return decodeResponse(resp, endpoint)
	})
}

// Poll performs a single status query for jobID. Two addressing conventions
// are supported: a REST-style path template containing "{id}", and a
// path+query-parameter style. Compound job ids of the form "<uuid>:<model>"
// substitute only the UUID into REST templates.
func (c *Client) Poll(ctx context.Context, jobID, statusPathOverride string) *Response {
	path := statusPathOverride
	if path == "" {
		path = c.statusPath
	}

	var endpoint string
	if strings.Contains(path, "{id}") {
		idOnly, _, _ := strings.Cut(jobID, ":")
		endpoint = c.baseURL + strings.ReplaceAll(path, "{id}", url.PathEscape(idOnly))
	} else {
		endpoint = c.baseURL + path + "?" + c.statusQueryParam + "=" + url.QueryEscape(jobID)
	}

	return c.doWithRetry(ctx, c.statusAttempts, func() *Response {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return localFailure(endpoint, err)
		}
		c.setHeaders(httpReq)
		resp, err := c.statusClient.Do(httpReq)
		if err != nil {
			return localFailure(endpoint, err)
		}
		return decodeResponse(resp, endpoint)
	})
}

func (c *Client) doWithRetry(ctx context.Context, attempts int, call func() *Response) *Response {
	backoff := c.backoffBase
	var last *Response
	for attempt := 0; attempt < attempts; attempt++ {
		last = call()
		if !retryable(last.StatusCode) {
			return last
		}
		c.logger.Debug().
			Int("status", last.StatusCode).
			Int("attempt", attempt+1).
			Str("url", last.URL).
			Msg("aiml: transient failure")
		if attempt == attempts-1 {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return last
		}
		backoff *= 2
	}
	return last
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// retryable classifies transient provider failures: local transport errors
// (status 0), throttling and server-side errors.
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func decodeResponse(resp *http.Response, endpoint string) *Response {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       errorBody(fmt.Sprintf("read body: %v", err)),
			URL:        endpoint,
		}
	}
	body, err := jsonval.Decode(raw)
	if err != nil {
		body = errorBody(strings.TrimSpace(string(raw)))
	}
	return &Response{StatusCode: resp.StatusCode, Body: body, URL: endpoint}
}

func localFailure(endpoint string, err error) *Response {
	return &Response{
		StatusCode: 0,
		Body:       errorBody(err.Error()),
		URL:        endpoint,
	}
}

func errorBody(detail string) jsonval.Value {
	return jsonval.ObjectValue(jsonval.Member{Key: "error", Value: jsonval.StringValue(detail)})
}

// Status returns the lowercased status token from the response body, if any.
func (r *Response) Status() string {
	if r == nil {
		return ""
	}
	status, _ := r.Body.FieldString("status")
	return strings.ToLower(strings.TrimSpace(status))
}

// JobID returns the provider job identifier under its known aliases.
func (r *Response) JobID() string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"id", "job_id", "generation_id"} {
		if id, ok := r.Body.FieldString(key); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

// ErrorDetail extracts a human-readable error string from the body, falling
// back to the re-encoded body itself.
func (r *Response) ErrorDetail() string {
	if r == nil {
		return ""
	}
	if detail, ok := r.Body.FieldString("error"); ok && detail != "" {
		return detail
	}
	if encoded, err := r.Body.MarshalJSON(); err == nil {
		return string(encoded)
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
