// Package classify maps errors from remote calls (language model, identity
// provider, analytical backend) to a retry decision. The classification is a
// pure function over the error value; callers own the retry loop itself.
package classify

import (
	"errors"
	"strings"
	"time"
)

// User-facing messages. These are sent verbatim over the messaging channel,
// so they stay non-technical.
const (
	// MsgRetrying tells the user the question is still being processed.
	MsgRetrying = "Estamos processando sua pergunta, só um instante..."

	// MsgFailed tells the user processing failed and to try again later.
	MsgFailed = "Não consegui processar sua pergunta agora. Tente novamente em alguns minutos."
)

// Classification is the outcome of classifying a remote-call error.
type Classification struct {
	// IsTemporary indicates the condition is expected to clear on its own.
	IsTemporary bool

	// ShouldRetry indicates the caller should attempt the call again.
	ShouldRetry bool

	// RetryAfter is the suggested wait before the next attempt.
	RetryAfter time.Duration

	// UserMessage is a fixed non-technical message for the end user.
	UserMessage string
}

// StatusCoder is implemented by errors that carry an HTTP status code from a
// remote service. Adapters wrap provider SDK errors into this shape before
// classification.
type StatusCoder interface {
	HTTPStatus() int
}

// StatusError wraps an error with the HTTP status code of the failed call.
type StatusError struct {
	Status int
	Err    error
}

// Error returns the wrapped error message.
func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "remote call failed"
}

// Unwrap returns the wrapped error.
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus returns the HTTP status code.
func (e *StatusError) HTTPStatus() int { return e.Status }

// Verify interface compliance.
var _ StatusCoder = (*StatusError)(nil)

// transportSignatures are substrings that identify transport-layer failures.
var transportSignatures = []string{
	"connection reset",
	"timed out",
	"network",
}

// Classify maps an error to a retry decision. The decision table is evaluated
// in order; the first matching branch wins.
//
//	529, 503, 429          -> temporary, retry (60s for 429, 10s otherwise)
//	"timeout" in message   -> temporary, retry after 5s
//	transport signature    -> temporary, retry after 3s
//	400, 401, 403          -> fatal, no retry
//	anything else          -> temporary, retry after 5s
//
// Unknown errors default to retryable, favoring availability over fast-failing
// on unrecognized conditions.
func Classify(err error) Classification {
	status := httpStatus(err)
	msg := strings.ToLower(errMessage(err))

	switch status {
	case 529, 503:
		return temporary(10 * time.Second)
	case 429:
		return temporary(60 * time.Second)
	}

	if strings.Contains(msg, "timeout") {
		return temporary(5 * time.Second)
	}

	for _, sig := range transportSignatures {
		if strings.Contains(msg, sig) {
			return temporary(3 * time.Second)
		}
	}

	switch status {
	case 400, 401, 403:
		return Classification{
			IsTemporary: false,
			ShouldRetry: false,
			UserMessage: MsgFailed,
		}
	}

	return temporary(5 * time.Second)
}

func temporary(retryAfter time.Duration) Classification {
	return Classification{
		IsTemporary: true,
		ShouldRetry: true,
		RetryAfter:  retryAfter,
		UserMessage: MsgRetrying,
	}
}

// httpStatus extracts an HTTP status code from the error chain, or 0.
func httpStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
