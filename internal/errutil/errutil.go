// Package errutil provides small helpers for constructing and wrapping
// gRPC status errors, generalizing the util.StatusWrap /
// util.StatusWrapWithCode helpers used throughout the teacher project.
package errutil

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Wrap prefixes err's message with a formatted string while preserving
// its status code. If err does not already carry a status code, it is
// wrapped with codes.Unknown.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	code := codes.Unknown
	if ok {
		code = st.Code()
	}
	prefix := fmt.Sprintf(format, args...)
	return status.Errorf(code, "%s: %s", prefix, st.Message())
}

// WrapWithCode is like Wrap, but overrides the resulting status code.
func WrapWithCode(err error, code codes.Code, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf(format, args...)
	return status.Errorf(code, "%s: %v", prefix, err)
}
