package challan

import (
	"context"
	"errors"
	"fmt"

	"challan-backend/internal/scrapers/erp"
)

type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindERPResult  Kind = "erp_result"
	KindDownstream Kind = "downstream"
	KindBadRequest Kind = "bad_request"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

const messageDownstream = "ERP server is not responding, please try again"

// Failure is the error every workflow returns, Message is meant to be shown to the operator as is.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure creates a failure carrying a message for the operator.
func NewFailure(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func fail(kind Kind, message string) *Failure {
	return NewFailure(kind, message)
}

// AsFailure converts any workflow error into a *Failure, network failures and expired deadlines
// become KindDownstream.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	if errors.Is(err, erp.ErrDownstreamUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindDownstream, Message: messageDownstream, Err: err}
	}
	return &Failure{Kind: KindInternal, Message: "Server Error", Err: err}
}

// KindOf returns the kind of a workflow error, "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsFailure(err).Kind
}
