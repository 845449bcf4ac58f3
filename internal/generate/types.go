// Package generate sequences prompt-to-video generation end to end: scene
// planning, provider submission, status polling and final assembly.
package generate

import (
	"clipforge/internal/jsonval"
)

// Quality selects the provider rendering tier.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
)

// JobStatus tracks the lifecycle of one provider generation job. Transitions
// are monotonic: pending, then active while the provider works, then exactly
// one terminal state. A job never re-enters pending.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimeout   JobStatus = "timeout"
)

// Terminal reports whether the status permits no further polling.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimeout:
		return true
	default:
		return false
	}
}

// Job is one provider generation job.
type Job struct {
	ID           string
	Status       JobStatus
	LastResponse jsonval.Value
}

// Scene is one narrative sub-segment of a longer requested video.
type Scene struct {
	Prompt          string
	DurationSeconds int
}

// Segment is the concrete media result of generating one scene. Order in a
// Result always matches scene submission order.
type Segment struct {
	Scene    Scene
	MediaURL string
	Job      Job
}

// Result is the explicit outcome of one Generate call. Success is never
// implied by absence of error detail: either Success is true and ArtifactKey
// names the assembled output, or Failure describes what went wrong.
type Result struct {
	Success       bool
	ArtifactKey   string
	OutputPath    string
	Segments      []Segment
	TotalDuration int
	Failure       *Failure
}
