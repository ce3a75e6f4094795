package log

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// marshalStack is installed as zerolog.ErrorStackMarshaler.
// It extracts the stack trace recorded by cockroachdb/errors.WithStack.
func marshalStack(err error) interface{} {
	if err == nil {
		return nil
	}
	if st := extractStacktrace(err); st != "" {
		return st
	}
	return nil
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	if errors.GetReportableStackTrace(err) != nil {
		return fmt.Sprintf("%+v", err)
	}
	return ""
}
