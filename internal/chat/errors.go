package chat

import (
	"errors"
	"fmt"
)

// Kind identifies which class of failure produced a ChatResponse.
type Kind string

const (
	KindNone       Kind = ""
	KindEmptyInput Kind = "empty_input"
	KindUpstream   Kind = "upstream"
	KindDataLoad   Kind = "data_load"
)

type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "message is empty"
}

// UpstreamError is returned when a hosted model call fails or returns
// something unusable. Reason is safe to show to users, Err is not.
type UpstreamError struct {
	Reason    string
	Retryable bool
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("error loading dataset from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func kindOf(err error) Kind {
	var (
		emptyErr    *EmptyInputError
		upstreamErr *UpstreamError
		dataErr     *DataLoadError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &emptyErr):
		return KindEmptyInput
	case errors.As(err, &dataErr):
		return KindDataLoad
	case errors.As(err, &upstreamErr):
		return KindUpstream
	default:
		return KindUpstream
	}
}

// publicReason returns the part of err that may be shown to a user.
func publicReason(err error) string {
	var (
		upstreamErr *UpstreamError
		dataErr     *DataLoadError
	)
	switch {
	case errors.As(err, &dataErr):
		return "the dataset is not available"
	case errors.As(err, &upstreamErr):
		return upstreamErr.Reason
	default:
		return "the request failed"
	}
}

func isRetryable(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.Retryable
}
