package assemble

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner executes an external composition command.
type CommandRunner interface {
	Run(ctx context.Context, args ...string) error
}

// DurationProber measures the playable length of a local clip in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// compose concatenates the ordered local segments into outPath. A single
// segment is stream-copied; multiple segments are joined under the selected
// continuity mode.
func (a *Assembler) compose(ctx context.Context, segments []string, mode Mode, outPath string) error {
	if len(segments) == 1 {
		return a.runner.Run(ctx, "-y", "-i", segments[0], "-c", "copy", outPath)
	}

	durations := make([]float64, len(segments))
	for i, path := range segments {
		d, err := a.prober.Duration(ctx, path)
		if err != nil {
			return fmt.Errorf("assemble: probe %s: %w", path, err)
		}
		if d <= 0 {
			return fmt.Errorf("assemble: probe %s: non-positive duration %.3f", path, d)
		}
		durations[i] = d
	}

	args := []string{"-y"}
	for _, path := range segments {
		args = append(args, "-i", path)
	}

	var filter string
	switch mode {
	case ModeSeamless:
		filter = a.seamlessFilter(durations)
	default:
		filter = a.crossfadeFilter(durations)
	}
	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		"-c:v", "libx264", "-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	return a.runner.Run(ctx, args...)
}

// crossfadeFilter chains xfade/acrossfade across all boundaries. The overlap
// at each boundary is the configured crossfade clamped to 25% of the shorter
// adjacent clip.
func (a *Assembler) crossfadeFilter(durations []float64) string {
	var b strings.Builder
	n := len(durations)
	videoIn := "[0:v]"
	audioIn := "[0:a]"
	offset := 0.0
	for i := 1; i < n; i++ {
		overlap := a.boundaryOverlap(durations[i-1], durations[i])
		offset += durations[i-1] - overlap

		videoOut := fmt.Sprintf("[vx%d]", i)
		audioOut := fmt.Sprintf("[ax%d]", i)
		if i == n-1 {
			videoOut = "[v]"
			audioOut = "[a]"
		}
		fmt.Fprintf(&b, "%s[%d:v]xfade=transition=fade:duration=%s:offset=%s%s;",
			videoIn, i, ffnum(overlap), ffnum(offset), videoOut)
		fmt.Fprintf(&b, "%s[%d:a]acrossfade=d=%s%s", audioIn, i, ffnum(overlap), audioOut)
		if i != n-1 {
			b.WriteByte(';')
		}
		videoIn = videoOut
		audioIn = audioOut
	}
	return b.String()
}

// seamlessFilter hard-cuts video and applies a short audio fade on each side
// of every boundary to prevent clicks. Outer edges are left untouched.
func (a *Assembler) seamlessFilter(durations []float64) string {
	var b strings.Builder
	n := len(durations)
	for i, d := range durations {
		var fades []string
		if i > 0 {
			fades = append(fades, fmt.Sprintf("afade=t=in:st=0:d=%s", ffnum(a.audioFade)))
		}
		if i < n-1 {
			start := d - a.audioFade
			if start < 0 {
				start = 0
			}
			fades = append(fades, fmt.Sprintf("afade=t=out:st=%s:d=%s", ffnum(start), ffnum(a.audioFade)))
		}
		fmt.Fprintf(&b, "[%d:a]%s[fa%d];", i, strings.Join(fades, ","), i)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:v][fa%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1[v][a]", n)
	return b.String()
}

// boundaryOverlap clamps the crossfade to a quarter of the shorter clip.
func (a *Assembler) boundaryOverlap(prev, next float64) float64 {
	overlap := a.crossfade
	shorter := prev
	if next < shorter {
		shorter = next
	}
	if limit := shorter * 0.25; overlap > limit {
		overlap = limit
	}
	return overlap
}

func ffnum(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

type execRunner struct {
	bin string
}

func (r *execRunner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", r.bin, err, tail(string(out), 512))
	}
	return nil
}

type ffprobeProber struct {
	bin string
}

func (p *ffprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", p.bin, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse duration: %w", p.bin, err)
	}
	return d, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
