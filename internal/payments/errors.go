package payments

import "errors"

// Kind classifies every failure the service can surface. Handlers dispatch
// on the kind, never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindEmptyCart
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidState
	KindAlreadyInitialized
	KindInvalidStateForDeletion
	KindDuplicateOrderNumber
	KindPaymentFailed
	KindAmountMismatch
	KindGatewayUnavailable
	KindInvalidSignature
	KindInternal
)

// Error is the typed error returned by the order service. Message is safe to
// show to the caller; wrapped errors carry the internal detail for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a typed error with a caller-safe message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an internal cause to a typed error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain; unclassified errors report
// KindInternal so nothing escapes the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
