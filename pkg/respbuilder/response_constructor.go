package respbuilder

import (
	"context"
)

func Error(ctx context.Context, reasonKind ErrKind, err error) HTTPError {
	stuff := MustExtract(ctx)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	reason, ok := ReasonMap[reasonKind]
	if !ok {
		return HTTPError{
			Err: ErrorEntity{
				Code:    "XX",
				Message: "unknown error kind",
				Debug:   "", // don't leak message on unknown kind
				TraceID: stuff.AppTraceID,
			},
		}
	}

	return HTTPError{
		Err: ErrorEntity{
			Code:    reason.Code,
			Message: reason.Message,
			Debug:   errMsg,
			TraceID: stuff.AppTraceID,
		},
	}
}

func Success(ctx context.Context, data interface{}) HTTPSuccess {
	stuff := MustExtract(ctx)

	return HTTPSuccess{
		TraceID: stuff.AppTraceID,
		Data:    data,
	}
}
