package realtime

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure kinds of a poll cycle. Use errors.Is
// against these to test the kind of a *CycleError.
var (
	ErrTransport                = errors.New("transport error")
	ErrMalformedFeed            = errors.New("malformed vehicle feed")
	ErrMalformedMappingResponse = errors.New("malformed mapping response")
)

// ErrorKind identifies which stage of a poll cycle failed and how.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindMalformedFeed
	KindMalformedMappingResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformedFeed:
		return "malformed_feed"
	case KindMalformedMappingResponse:
		return "malformed_mapping_response"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindMalformedFeed:
		return ErrMalformedFeed
	case KindMalformedMappingResponse:
		return ErrMalformedMappingResponse
	default:
		return nil
	}
}

// CycleError is returned by the fetcher and resolver.
type CycleError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *CycleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind.sentinel(), e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

func (e *CycleError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newTransportError(stage string, err error) error {
	return &CycleError{Kind: KindTransport, Stage: stage, Err: err}
}

func newMalformedFeedError(err error) error {
	return &CycleError{Kind: KindMalformedFeed, Stage: "fetch", Err: err}
}

func newMalformedMappingError(err error) error {
	return &CycleError{Kind: KindMalformedMappingResponse, Stage: "resolve", Err: err}
}

// Classification is the user-facing category of a surfaced failure.
type Classification string

const (
	ClassificationUnreachable Classification = "could not reach server"
	ClassificationBadData     Classification = "received bad data"
)

// Classify maps a cycle error to its user-facing category. Anything that is
// not a malformed response is treated as unreachable.
func Classify(err error) Classification {
	if errors.Is(err, ErrMalformedFeed) || errors.Is(err, ErrMalformedMappingResponse) {
		return ClassificationBadData
	}
	return ClassificationUnreachable
}

// KindOf returns the kind of a cycle error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr.Kind
	}
	return 0
}
