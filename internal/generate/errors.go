package generate

import (
	"fmt"

	"clipforge/internal/jsonval"
)

// FailureKind classifies every way a generation request can fail.
type FailureKind string

const (
	// KindQuotaExceeded rejects a caller before any provider call is made.
	KindQuotaExceeded FailureKind = "quota_exceeded"
	// KindSubmissionRejected is a definitive non-429 4xx from the provider.
	KindSubmissionRejected FailureKind = "submission_rejected"
	// KindTransientProvider covers timeouts, resets, 5xx and 429 that
	// survived the bounded retry budget.
	KindTransientProvider FailureKind = "transient_provider_error"
	// KindPollTimeout means the deadline expired without a terminal state.
	KindPollTimeout FailureKind = "poll_timeout"
	// KindProviderReportedFailure is a terminal failure token from polling.
	KindProviderReportedFailure FailureKind = "provider_reported_failure"
	// KindNoMediaURL means the provider looked done but no qualifying media
	// URL was extractable. Always a failure, never success-with-null-url.
	KindNoMediaURL FailureKind = "no_media_url"
	// KindSegmentFetch means downloading a finished segment failed.
	KindSegmentFetch FailureKind = "segment_fetch_failure"
	// KindAssembly means the composition step itself failed.
	KindAssembly FailureKind = "assembly_failure"
)

// Failure carries a diagnosable failure through the pipeline. It implements
// error but is always surfaced inside a Result, never panicked.
type Failure struct {
	Kind       FailureKind
	Detail     string
	StatusCode int
	Response   jsonval.Value
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.StatusCode, f.Detail)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func failResult(f *Failure) Result {
	return Result{Success: false, Failure: f}
}
