package sb8200

import "errors"

// FailureKind classifies scrape failures for the exporter's meta metrics.
type FailureKind string

const (
	FailureNone              FailureKind = "none"
	FailureTransport         FailureKind = "transport"
	FailureAuth              FailureKind = "auth"
	FailureUnexpectedContent FailureKind = "unexpected_content"
	FailureParse             FailureKind = "parse"
)

var (
	// ErrAuthFailed means the modem rejected the credentials, or the
	// session could not be re-established after one full re-login.
	ErrAuthFailed = errors.New("modem rejected authentication")

	// ErrSessionInvalid means an authenticated fetch came back as the
	// login page. The modem does this at unpredictable times; it is a
	// recoverable condition, not a credential problem.
	ErrSessionInvalid = errors.New("modem session invalidated")

	// ErrUnexpectedContent means the modem answered with a status or
	// body that matches neither success nor the login page.
	ErrUnexpectedContent = errors.New("unexpected modem response")

	// ErrParse means a page was fetched fine but none of the expected
	// structure could be found in it.
	ErrParse = errors.New("unparseable modem page")
)

// Classify reduces any error from this package to a FailureKind.
// Errors without a sentinel are network/timeout failures from the
// transport underneath.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrSessionInvalid):
		return FailureAuth
	case errors.Is(err, ErrUnexpectedContent):
		return FailureUnexpectedContent
	case errors.Is(err, ErrParse):
		return FailureParse
	default:
		return FailureTransport
	}
}
