package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyInput       = errors.New("empty input")
	ErrAuthentication   = errors.New("authentication failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrMalformedRequest = errors.New("malformed request")
	ErrTransport        = errors.New("transport failure")
	ErrParse            = errors.New("unparseable reply")
)

type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindAuthentication   ErrorKind = "authentication"
	KindRateLimited      ErrorKind = "rate_limited"
	KindMalformedRequest ErrorKind = "malformed_request"
	KindTransport        ErrorKind = "transport"
	KindParse            ErrorKind = "parse"
)

// KindOf maps any error onto the error taxonomy. Unknown errors count as transport failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrMalformedRequest):
		return KindMalformedRequest
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindTransport
	}
}

const (
	FallbackAuthentication = "Authentication error. Please check your OpenAI API key configuration."
	FallbackRateLimited    = "Simba AI is experiencing high demand right now. Please try again shortly."
	FallbackMalformed      = "Invalid request. Please try rephrasing your message."
	FallbackTransport      = "Sorry, Simba AI is experiencing technical difficulties. Please try again later."
	FallbackSummary        = "Unable to generate conversation summary."
)

var FallbackFollowUps = []string{
	"Can you tell me more about that?",
	"What would you like to explore next?",
	"Is there anything specific you'd like help with?",
}

// FallbackText is the user-facing reply that replaces a failed generation.
func FallbackText(kind ErrorKind) string {
	switch kind {
	case KindAuthentication:
		return FallbackAuthentication
	case KindRateLimited:
		return FallbackRateLimited
	case KindMalformedRequest:
		return FallbackMalformed
	default:
		return FallbackTransport
	}
}
