package cliplib

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorePreservesInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	urls := []string{
		"https://cdn.example.com/first.mp4",
		"https://cdn.example.com/second.webm",
		"https://cdn.example.com/third.mp4",
	}
	for _, u := range urls {
		if err := s.Add(ctx, "owner-1", Clip{URL: u}); err != nil {
			t.Fatalf("Add(%s): %v", u, err)
		}
	}

	clips, err := s.List(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(clips) != 3 {
		t.Fatalf("len = %d", len(clips))
	}
	for i, u := range urls {
		if clips[i].URL != u {
			t.Fatalf("clip %d = %q, want %q", i, clips[i].URL, u)
		}
		if clips[i].ID == "" || clips[i].AddedAt.IsZero() {
			t.Fatalf("clip %d missing generated fields: %+v", i, clips[i])
		}
	}
}

func TestMemoryStoreRejectsNonVideoURLs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	cases := []struct {
		url  string
		want error
	}{
		{"", ErrEmptyURL},
		{"   ", ErrEmptyURL},
		{"https://cdn.example.com/page.html", ErrNotVideo},
		{"/relative/clip.mp4", ErrNotVideo},
		{"https://cdn.example.com/status?file=clip.mp4", ErrNotVideo},
	}
	for _, tc := range cases {
		if err := s.Add(ctx, "o", Clip{URL: tc.url}); !errors.Is(err, tc.want) {
			t.Fatalf("Add(%q) = %v, want %v", tc.url, err, tc.want)
		}
	}
	clips, _ := s.List(ctx, "o")
	if len(clips) != 0 {
		t.Fatalf("rejected clips were stored: %v", clips)
	}
}

func TestMemoryStoreRemoveAndClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Add(ctx, "o", Clip{ID: "keep", URL: "https://x.test/a.mp4"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "o", Clip{ID: "drop", URL: "https://x.test/b.mp4"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(ctx, "o", "drop"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, "o", "drop"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove = %v, want not found", err)
	}
	clips, _ := s.List(ctx, "o")
	if len(clips) != 1 || clips[0].ID != "keep" {
		t.Fatalf("clips = %v", clips)
	}

	if err := s.Clear(ctx, "o"); err != nil {
		t.Fatal(err)
	}
	clips, _ = s.List(ctx, "o")
	if len(clips) != 0 {
		t.Fatalf("clips after clear = %v", clips)
	}
}

func TestMemoryStoreIsolatesOwners(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Add(ctx, "a", Clip{URL: "https://x.test/a.mp4"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "b", Clip{URL: "https://x.test/b.mp4"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	clips, _ := s.List(ctx, "b")
	if len(clips) != 1 {
		t.Fatalf("owner b affected by owner a clear: %v", clips)
	}
}
