package aiml

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts Options) (*Client, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	opts.HTTPClient = &http.Client{Transport: rt}
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.example.com/v2"
	}
	if opts.GeneratePath == "" {
		opts.GeneratePath = "/generate/video/alibaba/generation"
	}
	if opts.StatusPath == "" {
		opts.StatusPath = "/generate/video/alibaba/generation"
	}
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, &slept
}

func TestSubmitFillsDefaultModelAndOmitsUnsetFields(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Fatalf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"id":"job-1","status":"queued"}`), nil
	}, Options{APIKey: "key-1", DefaultModel: "alibaba/wan2.1-t2v-turbo"})

	resp := client.Submit(context.Background(), SubmitRequest{Prompt: "a fox", DurationSeconds: 8})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if captured["model"] != "alibaba/wan2.1-t2v-turbo" {
		t.Fatalf("model = %v, want default", captured["model"])
	}
	if captured["prompt"] != "a fox" {
		t.Fatalf("prompt = %v", captured["prompt"])
	}
	if captured["duration"] != float64(8) {
		t.Fatalf("duration = %v, want 8", captured["duration"])
	}
	for _, key := range []string{"seed", "aspect_ratio", "resolution"} {
		if _, present := captured[key]; present {
			t.Fatalf("optional field %q should be omitted when unset", key)
		}
	}
	if resp.JobID() != "job-1" {
		t.Fatalf("JobID = %q, want job-1", resp.JobID())
	}
}

func TestSubmitDoesNotRetryDefinitiveRejection(t *testing.T) {
	var calls int
	client, slept := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadRequest, `{"error":"prompt rejected"}`), nil
	}, Options{SubmitAttempts: 4})

	resp := client.Submit(context.Background(), SubmitRequest{Prompt: "x"})
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1 for a definitive 4xx", calls)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(*slept) != 0 {
		t.Fatalf("slept %v, want no backoff", *slept)
	}
	if resp.ErrorDetail() != "prompt rejected" {
		t.Fatalf("ErrorDetail = %q", resp.ErrorDetail())
	}
}

func TestSubmitRetriesTransientWithExponentialBackoff(t *testing.T) {
	var calls int
	client, slept := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		switch calls {
		case 1:
			return jsonResponse(http.StatusServiceUnavailable, `{"error":"busy"}`), nil
		case 2:
			return jsonResponse(http.StatusTooManyRequests, `{"error":"slow down"}`), nil
		default:
			return jsonResponse(http.StatusOK, `{"id":"job-2","status":"queued"}`), nil
		}
	}, Options{SubmitAttempts: 3})

	resp := client.Submit(context.Background(), SubmitRequest{Prompt: "x"})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("backoff[%d] = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestSubmitNetworkFailureReturnsStatusZero(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection reset by peer")
	}, Options{SubmitAttempts: 2})

	resp := client.Submit(context.Background(), SubmitRequest{Prompt: "x"})
	if calls != 2 {
		t.Fatalf("calls = %d, want bounded retries", calls)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status = %d, want 0 for local failure", resp.StatusCode)
	}
	if !strings.Contains(resp.ErrorDetail(), "connection reset") {
		t.Fatalf("ErrorDetail = %q", resp.ErrorDetail())
	}
}

func TestPollRESTTemplateUsesUUIDPortionOfCompoundID(t *testing.T) {
	var gotURL string
	client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		return jsonResponse(http.StatusOK, `{"status":"active"}`), nil
	}, Options{})

	resp := client.Poll(context.Background(), "a1b2c3:google/veo-3.1-t2v", "/video/generations/{id}")
	want := "https://api.example.com/v2/video/generations/a1b2c3"
	if gotURL != want {
		t.Fatalf("url = %q, want %q", gotURL, want)
	}
	if resp.Status() != "active" {
		t.Fatalf("Status = %q, want active", resp.Status())
	}
}

func TestPollQueryStyleAddressing(t *testing.T) {
	var gotURL string
	client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		return jsonResponse(http.StatusOK, `{"status":"queued"}`), nil
	}, Options{StatusQueryParam: "generation_id"})

	client.Poll(context.Background(), "job-42:model", "")
	want := "https://api.example.com/v2/generate/video/alibaba/generation?generation_id=job-42%3Amodel"
	if gotURL != want {
		t.Fatalf("url = %q, want %q", gotURL, want)
	}
}

func TestResponseJobIDAliases(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"id":"a"}`, "a"},
		{`{"job_id":"b"}`, "b"},
		{`{"generation_id":"c"}`, "c"},
		{`{"id":"a","generation_id":"c"}`, "a"},
		{`{"status":"queued"}`, ""},
	}
	for _, tc := range tests {
		client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, tc.body), nil
		}, Options{})
		resp := client.Poll(context.Background(), "j", "")
		if got := resp.JobID(); got != tc.want {
			t.Fatalf("JobID(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestDecodeNonJSONBodyBecomesErrorPayload(t *testing.T) {
	client, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream exploded"), nil
	}, Options{SubmitAttempts: 1})

	resp := client.Submit(context.Background(), SubmitRequest{Prompt: "x"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.ErrorDetail() != "upstream exploded" {
		t.Fatalf("ErrorDetail = %q", resp.ErrorDetail())
	}
}
