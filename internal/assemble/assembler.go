// Package assemble downloads ordered segment media and concatenates it into
// one continuous output artifact.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/infra"
)

// Mode selects the continuity strategy at segment boundaries.
type Mode string

const (
	// ModeCrossfade overlaps adjacent segments with a visual crossfade and a
	// symmetric audio fade, masking discontinuity between independently
	// generated clips.
	ModeCrossfade Mode = "crossfade"
	// ModeSeamless performs hard cuts with only a short audio fade per
	// boundary to prevent clicks, for already-continuous narratives.
	ModeSeamless Mode = "seamless"
)

// Stage identifies where an assembly failed.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageCompose Stage = "compose"
)

// WellKnownKey is the fixed, overwritable output artifact name used when no
// per-request key is supplied.
const WellKnownKey = "stitched_output.mp4"

const (
	defaultCrossfadeSeconds = 0.5
	defaultAudioFadeSeconds = 0.15
	defaultFetchTimeout     = 10 * time.Minute
)

// Result is the outcome of one Assemble call; it is never mutated afterward.
type Result struct {
	Success      bool
	OutputKey    string
	OutputPath   string
	SegmentPaths []string
	Stage        Stage
	Err          error
}

// Options configures an Assembler.
type Options struct {
	// OutputDir is the directory holding finished artifacts.
	OutputDir string
	// HTTPClient fetches segment media; defaults to a client with a generous
	// timeout since segments can be large.
	HTTPClient *http.Client
	// Runner executes the composition command; defaults to ffmpeg.
	Runner CommandRunner
	// Prober measures clip durations; defaults to ffprobe.
	Prober DurationProber

	FFmpegBin  string
	FFprobeBin string

	CrossfadeSeconds float64
	AudioFadeSeconds float64

	Logger *infra.Logger
}

// Assembler stitches remote segments into local artifacts. The latest
// successful artifact is tracked under a mutex since concurrent requests may
// assemble at once.
type Assembler struct {
	outputDir  string
	httpClient *http.Client
	runner     CommandRunner
	prober     DurationProber

	crossfade float64
	audioFade float64

	logger infra.Logger

	mu         sync.Mutex
	latestKey  string
	latestPath string
}

// New constructs an Assembler rooted at opts.OutputDir.
func New(opts Options) (*Assembler, error) {
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		return nil, errors.New("assemble: output dir is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("assemble: ensure output dir: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	runner := opts.Runner
	if runner == nil {
		bin := opts.FFmpegBin
		if bin == "" {
			bin = "ffmpeg"
		}
		runner = &execRunner{bin: bin}
	}
	prober := opts.Prober
	if prober == nil {
		bin := opts.FFprobeBin
		if bin == "" {
			bin = "ffprobe"
		}
		prober = &ffprobeProber{bin: bin}
	}
	crossfade := opts.CrossfadeSeconds
	if crossfade <= 0 {
		crossfade = defaultCrossfadeSeconds
	}
	audioFade := opts.AudioFadeSeconds
	if audioFade <= 0 {
		audioFade = defaultAudioFadeSeconds
	}
	var logger infra.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}
	return &Assembler{
		outputDir:  outputDir,
		httpClient: httpClient,
		runner:     runner,
		prober:     prober,
		crossfade:  crossfade,
		audioFade:  audioFade,
		logger:     logger,
	}, nil
}

// Assemble streams each URL into a scoped temporary directory and
// concatenates the segments in order under the given mode. Any single
// download failure aborts the whole assembly with no partial output. The
// temporary directory is removed on every exit path. An empty outputKey
// writes the fixed well-known artifact, replacing any prior one.
func (a *Assembler) Assemble(ctx context.Context, orderedURLs []string, mode Mode, outputKey string) Result {
	if len(orderedURLs) == 0 {
		return Result{Stage: StageCompose, Err: errors.New("assemble: no segment urls")}
	}
	if mode != ModeSeamless {
		mode = ModeCrossfade
	}
	key, err := resolveKey(outputKey)
	if err != nil {
		return Result{Stage: StageCompose, Err: err}
	}

	tempDir, err := os.MkdirTemp("", "clipforge_stitch_")
	if err != nil {
		return Result{Stage: StageCompose, Err: fmt.Errorf("assemble: temp dir: %w", err)}
	}
	defer os.RemoveAll(tempDir)

	segmentPaths := make([]string, len(orderedURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, rawURL := range orderedURLs {
		segmentPaths[i] = filepath.Join(tempDir, fmt.Sprintf("segment_%02d.mp4", i))
		i, rawURL := i, rawURL
		g.Go(func() error {
			return a.download(gctx, rawURL, segmentPaths[i])
		})
	}
	if err := g.Wait(); err != nil {
		return Result{SegmentPaths: segmentPaths, Stage: StageFetch, Err: err}
	}

	workPath := filepath.Join(tempDir, "output.mp4")
	if err := a.compose(ctx, segmentPaths, mode, workPath); err != nil {
		return Result{SegmentPaths: segmentPaths, Stage: StageCompose, Err: err}
	}

	finalPath := filepath.Join(a.outputDir, key)
	if err := moveFile(workPath, finalPath); err != nil {
		return Result{SegmentPaths: segmentPaths, Stage: StageCompose, Err: fmt.Errorf("assemble: place artifact: %w", err)}
	}

	a.mu.Lock()
	a.latestKey = key
	a.latestPath = finalPath
	a.mu.Unlock()

	a.logger.Info().
		Str("key", key).
		Int("segments", len(orderedURLs)).
		Str("mode", string(mode)).
		Msg("assemble: artifact written")
	return Result{
		Success:      true,
		OutputKey:    key,
		OutputPath:   finalPath,
		SegmentPaths: segmentPaths,
	}
}

// Latest returns the key and path of the most recent successful artifact.
func (a *Assembler) Latest() (string, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latestKey, a.latestPath, a.latestKey != ""
}

// ArtifactPath resolves an artifact key to its on-disk path, rejecting keys
// that would escape the output directory.
func (a *Assembler) ArtifactPath(key string) (string, error) {
	clean, err := resolveKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(a.outputDir, clean), nil
}

func (a *Assembler) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("assemble: build segment request %s: %w", rawURL, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assemble: fetch segment %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("assemble: fetch segment %s: status %d", rawURL, resp.StatusCode)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("assemble: create segment file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("assemble: stream segment %s: %w", rawURL, err)
	}
	return out.Close()
}

func resolveKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = WellKnownKey
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("assemble: invalid artifact key %q", key)
	}
	if !strings.HasSuffix(strings.ToLower(key), ".mp4") {
		key += ".mp4"
	}
	return key, nil
}

// moveFile renames src to dst, falling back to copy+remove across devices.
// Any prior artifact at dst is replaced.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
