package generate

import (
	"context"
	"net/http"
	"testing"
	"time"

	"clipforge/internal/jsonval"
	"clipforge/internal/providers/aiml"
)

type scriptedPollClient struct {
	responses []*aiml.Response
	calls     []string // status path per call
}

func (s *scriptedPollClient) Poll(ctx context.Context, jobID, statusPathOverride string) *aiml.Response {
	s.calls = append(s.calls, statusPathOverride)
	if len(s.responses) == 0 {
		return statusResponse(http.StatusOK, "waiting")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp
}

func statusResponse(code int, status string, extra ...jsonval.Member) *aiml.Response {
	members := append([]jsonval.Member{
		{Key: "status", Value: jsonval.StringValue(status)},
	}, extra...)
	return &aiml.Response{StatusCode: code, Body: jsonval.ObjectValue(members...)}
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	cancel func()
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newTestPoller(client PollClient, clock *fakeClock) *Poller {
	return &Poller{
		Client:   client,
		Interval: 5 * time.Second,
		MaxWait:  300 * time.Second,
		Now:      clock.Now,
		Sleep:    clock.Sleep,
	}
}

func TestPollerWaitsThroughProgressStates(t *testing.T) {
	client := &scriptedPollClient{responses: []*aiml.Response{
		statusResponse(http.StatusOK, "queued"),
		statusResponse(http.StatusOK, "active"),
		statusResponse(http.StatusOK, "completed", jsonval.Member{
			Key: "video", Value: jsonval.ObjectValue(jsonval.Member{
				Key: "url", Value: jsonval.StringValue("https://cdn.example.com/out.mp4"),
			}),
		}),
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestPoller(client, clock)

	out := p.Wait(context.Background(), "job-1", "")
	if out.Status != JobCompleted {
		t.Fatalf("Status = %q, want completed", out.Status)
	}
	if out.MediaURL != "https://cdn.example.com/out.mp4" {
		t.Fatalf("MediaURL = %q", out.MediaURL)
	}
	if len(clock.slept) != 2 {
		t.Fatalf("slept %d times, want 2 (one per in-progress tick)", len(clock.slept))
	}
	for _, d := range clock.slept {
		if d != 5*time.Second {
			t.Fatalf("slept %v, want the 5s interval", d)
		}
	}
}

func TestPollerTimesOutAtMaxWait(t *testing.T) {
	client := &scriptedPollClient{} // always "waiting"
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestPoller(client, clock)

	out := p.Wait(context.Background(), "job-slow", "")
	if out.Status != JobTimeout {
		t.Fatalf("Status = %q, want timeout", out.Status)
	}
	if out.Response == nil {
		t.Fatal("timeout outcome must carry the last observed response")
	}
	if got := out.Response.Status(); got != "waiting" {
		t.Fatalf("last response status = %q", got)
	}
	// 300s budget at 5s per tick: 60 polls, the 60th sleep crosses the deadline.
	if len(client.calls) != 60 {
		t.Fatalf("polled %d times, want 60", len(client.calls))
	}
}

func TestPollerTriesFallbackPathsOn404(t *testing.T) {
	client := &scriptedPollClient{responses: []*aiml.Response{
		{StatusCode: http.StatusNotFound, Body: jsonval.ObjectValue()},
		{StatusCode: http.StatusNotFound, Body: jsonval.ObjectValue()}, // first fallback
		statusResponse(http.StatusOK, "completed", jsonval.Member{ // second fallback
			Key: "video_url", Value: jsonval.StringValue("https://cdn.example.com/v.mp4"),
		}),
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestPoller(client, clock)

	out := p.Wait(context.Background(), "job-404", "")
	if out.Status != JobCompleted || out.MediaURL == "" {
		t.Fatalf("outcome = %+v, want completed with URL", out)
	}
	want := []string{"", "/video/generations", "/generate/video/google/generation"}
	if len(client.calls) != len(want) {
		t.Fatalf("calls = %v", client.calls)
	}
	for i, path := range want {
		if client.calls[i] != path {
			t.Fatalf("call %d used path %q, want %q", i, client.calls[i], path)
		}
	}
}

func TestPollerReportsProviderFailure(t *testing.T) {
	client := &scriptedPollClient{responses: []*aiml.Response{
		statusResponse(http.StatusOK, "queued"),
		statusResponse(http.StatusOK, "error", jsonval.Member{
			Key: "error", Value: jsonval.StringValue("content policy"),
		}),
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestPoller(client, clock)

	out := p.Wait(context.Background(), "job-bad", "")
	if out.Status != JobFailed {
		t.Fatalf("Status = %q, want failed", out.Status)
	}
	if out.Response.ErrorDetail() != "content policy" {
		t.Fatalf("detail = %q", out.Response.ErrorDetail())
	}
}

func TestPollerCompletedWithoutURLStaysCompleted(t *testing.T) {
	client := &scriptedPollClient{responses: []*aiml.Response{
		statusResponse(http.StatusOK, "succeeded"),
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := newTestPoller(client, clock)

	out := p.Wait(context.Background(), "job-empty", "")
	if out.Status != JobCompleted {
		t.Fatalf("Status = %q, want completed", out.Status)
	}
	if out.MediaURL != "" {
		t.Fatalf("MediaURL = %q, want empty", out.MediaURL)
	}
}
