package pipeline

import (
	"errors"
	"fmt"

	"clipforge/internal/assembler"
	"clipforge/internal/extractor"
	"clipforge/internal/plan"
	"clipforge/internal/probe"
	"clipforge/internal/renderer"
	"clipforge/internal/vad"
	"clipforge/internal/vision"
)

// ErrorKind classifies export failures for callers
type ErrorKind string

const (
	KindInvalidRange        ErrorKind = "invalid_range"
	KindSourceUnreadable    ErrorKind = "source_unreadable"
	KindDecodeFailed        ErrorKind = "decode_failed"
	KindAnalyzerUnavailable ErrorKind = "analyzer_unavailable"
	KindVisionUnavailable   ErrorKind = "vision_unavailable"
	KindEmptyPlan           ErrorKind = "empty_plan"
	KindIOFailure           ErrorKind = "io_failure"
	KindRenderFailed        ErrorKind = "render_failed"
	KindSyncError           ErrorKind = "sync_error"
	KindInternal            ErrorKind = "internal"
)

// ExportError is a classified failure of one export request
type ExportError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// newExportError wraps err with the kind matching its sentinel
func newExportError(err error) *ExportError {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExportError{Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, probe.ErrSourceUnreadable):
		return KindSourceUnreadable
	case errors.Is(err, extractor.ErrDecode):
		return KindDecodeFailed
	case errors.Is(err, vad.ErrAnalyzerUnavailable):
		return KindAnalyzerUnavailable
	case errors.Is(err, vision.ErrVisionUnavailable):
		return KindVisionUnavailable
	case errors.Is(err, plan.ErrEmptyPlan):
		return KindEmptyPlan
	case errors.Is(err, assembler.ErrIOFailure):
		return KindIOFailure
	case errors.Is(err, renderer.ErrSync):
		return KindSyncError
	case errors.Is(err, renderer.ErrRenderFailed):
		return KindRenderFailed
	default:
		return KindInternal
	}
}
