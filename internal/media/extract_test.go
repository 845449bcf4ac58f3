package media

import (
	"testing"

	"clipforge/internal/jsonval"
)

func decode(t *testing.T, doc string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode %q: %v", doc, err)
	}
	return v
}

func TestExtractSkipsStatusURL(t *testing.T) {
	v := decode(t, `{
		"status_url": "https://api.example.com/status?id=123",
		"result": {"video": {"url": "https://cdn.example.com/clip.mp4?sig=abc"}}
	}`)
	got, ok := ExtractVideoURL(v)
	if !ok {
		t.Fatalf("expected a media URL")
	}
	if got != "https://cdn.example.com/clip.mp4?sig=abc" {
		t.Fatalf("ExtractVideoURL = %q", got)
	}
}

func TestExtractReturnsFirstQualifyingCandidate(t *testing.T) {
	v := decode(t, `{
		"first": "https://cdn.example.com/a.webm",
		"second": "https://cdn.example.com/b.mp4"
	}`)
	got, ok := ExtractVideoURL(v)
	if !ok || got != "https://cdn.example.com/a.webm" {
		t.Fatalf("ExtractVideoURL = %q, %v, want first candidate", got, ok)
	}
}

func TestExtractSearchesNestedArrays(t *testing.T) {
	v := decode(t, `{"outputs": [
		{"kind": "poll", "href": "https://api.example.com/v2/generations/42"},
		{"kind": "asset", "files": ["https://cdn.example.com/video/final.mp4"]}
	]}`)
	got, ok := ExtractVideoURL(v)
	if !ok || got != "https://cdn.example.com/video/final.mp4" {
		t.Fatalf("ExtractVideoURL = %q, %v", got, ok)
	}
}

func TestExtractNoCandidates(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no urls", `{"status": "queued", "progress": 40}`},
		{"only status urls", `{"poll": "https://api.example.com/generation?generation_id=9"}`},
		{"relative path", `{"file": "/local/clip.mp4"}`},
		{"extension in query only", `{"u": "https://api.example.com/fetch?name=clip.mp4"}`},
		{"scalar root", `"completed"`},
		{"null root", `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := ExtractVideoURL(decode(t, tc.doc)); ok {
				t.Fatalf("expected no media URL, got %q", got)
			}
		})
	}
}

func TestIsVideoURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://cdn.example.com/clip.mp4", true},
		{"https://cdn.example.com/clip.MP4?sig=x", true},
		{"https://cdn.example.com/clip.webm", true},
		{"https://api.example.com/status?id=clip.mp4", false},
		{"https://cdn.example.com/clip.mov", false},
		{"://bad", false},
	}
	for _, tc := range tests {
		if got := IsVideoURL(tc.raw); got != tc.want {
			t.Fatalf("IsVideoURL(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
