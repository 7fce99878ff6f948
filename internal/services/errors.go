package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying every way a render attempt can fail. All of
// them are terminal for the attempt; retry policy belongs to the caller.
var (
	ErrPrecondition = errors.New("precondition failed")
	ErrProbe        = errors.New("probe error")
	ErrSplit        = errors.New("split error")
	ErrFilterBuild  = errors.New("filter build error")
	ErrEncode       = errors.New("encode error")
	ErrMerge        = errors.New("merge error")
)

// Encode failures subdivide by cause. Each derives from ErrEncode, so
// errors.Is(err, ErrEncode) holds for all three.
var (
	ErrEncodeExit    = fmt.Errorf("%w: process exited", ErrEncode)
	ErrEncodeTimeout = fmt.Errorf("%w: hard timeout", ErrEncode)
	ErrEncodeStall   = fmt.Errorf("%w: stalled", ErrEncode)
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPrecondition
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns a short stable label for a pipeline error, suitable for
// journal rows and CLI output.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncodeStall):
		return "stall"
	case errors.Is(err, ErrEncodeTimeout):
		return "timeout"
	case errors.Is(err, ErrEncodeExit):
		return "encode_exit"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrSplit):
		return "split"
	case errors.Is(err, ErrFilterBuild):
		return "filter_build"
	case errors.Is(err, ErrMerge):
		return "merge"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
