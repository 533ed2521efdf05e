package reply

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the closed set of remote generator failures.
type Kind string

const (
	KindRateLimited        Kind = "rate_limited"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindTimeout            Kind = "timeout"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindUnknown            Kind = "unknown"
)

var userMessages = map[Kind]string{
	KindRateLimited:        "Our AI agent is experiencing high demand right now. Please try again in a moment.",
	KindInvalidCredentials: "There seems to be a configuration issue. Please contact support at " + SupportContact + ".",
	KindTimeout:            "The request took too long to process. Please try sending your message again.",
	KindNetworkUnavailable: "Unable to connect to our AI service. Please check your internet connection and try again.",
	KindUnknown:            "I encountered an unexpected error. Please try again or contact our support team at " + SupportContact + ".",
}

// UserMessage returns the pre-approved text shown in place of a failure.
func UserMessage(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// ErrEmptyCompletion means the provider answered without any text.
var ErrEmptyCompletion = errors.New("no response from LLM")

// Error is a classified generator failure. Callers substitute UserMessage for
// the reply instead of failing the turn.
type Error struct {
	Kind        Kind
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reply generator (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err. An error that is already classified is returned as is.
func Wrap(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	kind := Classify(FaultOf(err))
	return &Error{Kind: kind, UserMessage: UserMessage(kind), Err: err}
}

// Fault holds the raw attributes classification looks at.
type Fault struct {
	StatusCode int
	Code       string
	Message    string
}

var (
	rateLimitCodes   = []string{"rate_limit_exceeded", "RESOURCE_EXHAUSTED", "RATE_LIMIT_EXCEEDED"}
	credentialCodes  = []string{"invalid_api_key", "API_KEY_INVALID", "UNAUTHENTICATED", "PERMISSION_DENIED"}
	timeoutCodes     = []string{"ETIMEDOUT", "DEADLINE_EXCEEDED"}
	networkDownCodes = []string{"ENOTFOUND", "ECONNREFUSED", "UNAVAILABLE"}
)

// Classify maps fault attributes to a Kind. Rules are checked in order and
// the first match wins; KindUnknown is the default.
func Classify(f Fault) Kind {
	switch {
	case f.StatusCode == 429 || oneOf(f.Code, rateLimitCodes):
		return KindRateLimited
	case f.StatusCode == 401 || f.StatusCode == 403 || oneOf(f.Code, credentialCodes):
		return KindInvalidCredentials
	case oneOf(f.Code, timeoutCodes) || strings.Contains(strings.ToLower(f.Message), "timeout"):
		return KindTimeout
	case oneOf(f.Code, networkDownCodes):
		return KindNetworkUnavailable
	default:
		return KindUnknown
	}
}

func oneOf(code string, set []string) bool {
	if code == "" {
		return false
	}
	for _, c := range set {
		if code == c {
			return true
		}
	}
	return false
}

var grpcCodeNames = map[codes.Code]string{
	codes.ResourceExhausted: "RESOURCE_EXHAUSTED",
	codes.Unauthenticated:   "UNAUTHENTICATED",
	codes.PermissionDenied:  "PERMISSION_DENIED",
	codes.DeadlineExceeded:  "DEADLINE_EXCEEDED",
	codes.Unavailable:       "UNAVAILABLE",
}

// FaultOf extracts status code, error code and message from provider and
// transport errors.
func FaultOf(err error) Fault {
	if err == nil {
		return Fault{}
	}
	f := Fault{Message: err.Error()}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			f.StatusCode = code
		}
		f.Code = apiErr.Reason()
	}

	var gErr *googleapi.Error
	if f.StatusCode == 0 && errors.As(err, &gErr) {
		f.StatusCode = gErr.Code
	}

	if f.Code == "" {
		if s, ok := status.FromError(err); ok {
			f.Code = grpcCodeNames[s.Code()]
		}
	}

	if f.Code == "" {
		f.Code = transportCode(err)
	}

	return f
}

func transportCode(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	case errors.As(err, &dnsErr):
		return "ENOTFOUND"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "ETIMEDOUT"
	}
	return ""
}
