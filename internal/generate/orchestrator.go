package generate

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipforge/internal/assemble"
	"clipforge/internal/infra"
	"clipforge/internal/providers/aiml"
	"clipforge/internal/quota"
)

const (
	pairedAdModel         = "google/veo-3.1-t2v"
	pairedAdGeneratePath  = "/video/generations"
	pairedAdStatusPath    = "/video/generations"
	pairedAdSceneDuration = 8
)

// Submitter starts one provider generation job.
type Submitter interface {
	Submit(ctx context.Context, req aiml.SubmitRequest) *aiml.Response
}

// Waiter blocks until a submitted job reaches a terminal state.
type Waiter interface {
	Wait(ctx context.Context, jobID, statusPath string) PollOutcome
}

// Stitcher turns finished segment URLs into one local artifact.
type Stitcher interface {
	Assemble(ctx context.Context, orderedURLs []string, mode assemble.Mode, outputKey string) assemble.Result
}

// Params is one caller-facing generation request.
type Params struct {
	Prompt          string
	DurationSeconds int
	Quality         Quality
	// CallerKey identifies the caller for quota accounting. Empty skips the
	// quota check (trusted internal callers such as the CLI).
	CallerKey string
}

// Orchestrator sequences one generation request end to end. Scenes of a
// multi-scene request run strictly sequentially; the first failed scene
// aborts the request and its failure is returned verbatim.
type Orchestrator struct {
	Submitter Submitter
	Waiter    Waiter
	Planner   *ScenePlanner
	Stitcher  Stitcher
	Quota     quota.Store
	Mode      assemble.Mode
	Logger    *infra.Logger
}

// Generate runs the full pipeline for p: quota check, scene planning, one
// submit-poll cycle per scene, then assembly. Even a single finished segment
// is assembled so the output is always a locally stitched artifact.
func (o *Orchestrator) Generate(ctx context.Context, p Params) Result {
	logger := o.logger()
	duration := p.DurationSeconds
	if duration <= 0 {
		duration = defaultClipSeconds
	}

	if p.CallerKey != "" && o.Quota != nil {
		allowed, remaining, err := o.Quota.Allow(ctx, p.CallerKey)
		if err != nil {
			logger.Error().Err(err).Msg("orchestrator: quota check failed")
			return failResult(&Failure{Kind: KindQuotaExceeded, Detail: "quota check unavailable"})
		}
		if !allowed {
			return failResult(&Failure{Kind: KindQuotaExceeded, Detail: "free generation limit reached"})
		}
		logger.Debug().Int("remaining", remaining).Msg("orchestrator: quota ok")
	}

	scenes := o.planScenes(ctx, p.Prompt, duration)
	logger.Info().Int("scenes", len(scenes)).Int("duration_s", duration).Msg("orchestrator: starting generation")

	segments := make([]Segment, 0, len(scenes))
	for i, scene := range scenes {
		seg, failure := o.generateScene(ctx, scene, sceneRequest(scene, p.Quality))
		if failure != nil {
			logger.Warn().Int("scene", i+1).Int("total", len(scenes)).
				Str("kind", string(failure.Kind)).Msg("orchestrator: scene failed, aborting")
			return failResult(failure)
		}
		segments = append(segments, seg)
	}

	return o.finish(ctx, p.CallerKey, segments, o.mode())
}

// GeneratePairedAd produces a two-scene hook/payoff ad: both scenes share one
// seed for visual continuity and render on the cinematic model family.
func (o *Orchestrator) GeneratePairedAd(ctx context.Context, p Params) Result {
	logger := o.logger()
	if p.CallerKey != "" && o.Quota != nil {
		allowed, _, err := o.Quota.Allow(ctx, p.CallerKey)
		if err != nil {
			logger.Error().Err(err).Msg("orchestrator: quota check failed")
			return failResult(&Failure{Kind: KindQuotaExceeded, Detail: "quota check unavailable"})
		}
		if !allowed {
			return failResult(&Failure{Kind: KindQuotaExceeded, Detail: "free generation limit reached"})
		}
	}

	pair := o.planner().PlanPair(ctx, p.Prompt, pairedAdSceneDuration)
	seed := rand.Int63n(1_000_000)

	segments := make([]Segment, 0, 2)
	for i, scene := range pair {
		req := aiml.SubmitRequest{
			Prompt:               scene.Prompt,
			DurationSeconds:      scene.DurationSeconds,
			Seed:                 &seed,
			Model:                pairedAdModel,
			AspectRatio:          "16:9",
			Resolution:           "720p",
			GeneratePathOverride: pairedAdGeneratePath,
		}
		seg, failure := o.generateSceneWithStatusPath(ctx, scene, req, pairedAdStatusPath)
		if failure != nil {
			logger.Warn().Int("scene", i+1).Str("kind", string(failure.Kind)).
				Msg("orchestrator: paired scene failed, aborting")
			return failResult(failure)
		}
		segments = append(segments, seg)
	}

	// Paired ads cut on action, so boundaries are joined seamlessly rather
	// than crossfaded.
	return o.finish(ctx, p.CallerKey, segments, assemble.ModeSeamless)
}

func (o *Orchestrator) generateScene(ctx context.Context, scene Scene, req aiml.SubmitRequest) (Segment, *Failure) {
	return o.generateSceneWithStatusPath(ctx, scene, req, "")
}

func (o *Orchestrator) generateSceneWithStatusPath(ctx context.Context, scene Scene, req aiml.SubmitRequest, statusPath string) (Segment, *Failure) {
	logger := o.logger()

	resp := o.Submitter.Submit(ctx, req)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Segment{}, classifySubmitFailure(resp)
	}
	jobID := resp.JobID()
	if jobID == "" {
		return Segment{}, &Failure{
			Kind:       KindSubmissionRejected,
			Detail:     "provider accepted the job but returned no job id",
			StatusCode: resp.StatusCode,
			Response:   resp.Body,
		}
	}
	logger.Info().Str("job_id", jobID).Msg("orchestrator: job submitted")

	outcome := o.Waiter.Wait(ctx, jobID, statusPath)
	job := Job{ID: jobID, Status: outcome.Status}
	if outcome.Response != nil {
		job.LastResponse = outcome.Response.Body
	}

	switch outcome.Status {
	case JobCompleted:
		if outcome.MediaURL == "" {
			return Segment{}, &Failure{
				Kind:     KindNoMediaURL,
				Detail:   fmt.Sprintf("job %s completed without a downloadable video URL", jobID),
				Response: job.LastResponse,
			}
		}
		return Segment{Scene: scene, MediaURL: outcome.MediaURL, Job: job}, nil
	case JobFailed:
		detail := "provider reported failure"
		if outcome.Response != nil {
			if d := outcome.Response.ErrorDetail(); d != "" {
				detail = d
			}
		}
		return Segment{}, &Failure{
			Kind:     KindProviderReportedFailure,
			Detail:   detail,
			Response: job.LastResponse,
		}
	default:
		return Segment{}, &Failure{
			Kind:     KindPollTimeout,
			Detail:   fmt.Sprintf("job %s did not reach a terminal state in time", jobID),
			Response: job.LastResponse,
		}
	}
}

func (o *Orchestrator) finish(ctx context.Context, callerKey string, segments []Segment, mode assemble.Mode) Result {
	logger := o.logger()
	urls := make([]string, len(segments))
	total := 0
	for i, seg := range segments {
		urls[i] = seg.MediaURL
		total += seg.Scene.DurationSeconds
	}

	stitched := o.Stitcher.Assemble(ctx, urls, mode, uuid.NewString())
	if !stitched.Success {
		kind := KindAssembly
		if stitched.Stage == assemble.StageFetch {
			kind = KindSegmentFetch
		}
		detail := "assembly failed"
		if stitched.Err != nil {
			detail = stitched.Err.Error()
		}
		return failResult(&Failure{Kind: kind, Detail: detail})
	}

	if callerKey != "" && o.Quota != nil {
		if err := o.Quota.RecordSuccess(ctx, callerKey); err != nil {
			// The artifact exists; losing one counter tick is the lesser harm.
			logger.Error().Err(err).Msg("orchestrator: recording quota usage failed")
		}
	}

	logger.Info().Str("artifact", stitched.OutputKey).Int("segments", len(segments)).
		Int("total_duration_s", total).Msg("orchestrator: generation complete")
	return Result{
		Success:       true,
		ArtifactKey:   stitched.OutputKey,
		OutputPath:    stitched.OutputPath,
		Segments:      segments,
		TotalDuration: total,
	}
}

func (o *Orchestrator) planScenes(ctx context.Context, prompt string, duration int) []Scene {
	return o.planner().Plan(ctx, prompt, duration)
}

func (o *Orchestrator) planner() *ScenePlanner {
	if o.Planner != nil {
		return o.Planner
	}
	return &ScenePlanner{}
}

func (o *Orchestrator) mode() assemble.Mode {
	if o.Mode != "" {
		return o.Mode
	}
	return assemble.ModeCrossfade
}

func (o *Orchestrator) logger() infra.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return zerolog.New(io.Discard)
}

func sceneRequest(scene Scene, q Quality) aiml.SubmitRequest {
	return aiml.SubmitRequest{
		Prompt:          scene.Prompt,
		DurationSeconds: scene.DurationSeconds,
		Resolution:      resolutionFor(q),
	}
}

func resolutionFor(q Quality) string {
	switch q {
	case QualityHigh:
		return "1080p"
	case QualityMedium:
		return "720p"
	default:
		return ""
	}
}

func classifySubmitFailure(resp *aiml.Response) *Failure {
	detail := resp.ErrorDetail()
	if detail == "" {
		detail = "provider rejected the submission"
	}
	f := &Failure{Detail: detail, StatusCode: resp.StatusCode, Response: resp.Body}
	switch {
	case resp.StatusCode == 0 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		f.Kind = KindTransientProvider
	default:
		f.Kind = KindSubmissionRejected
	}
	return f
}
