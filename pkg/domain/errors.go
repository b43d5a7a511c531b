package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/schema"
)

// ErrInvalidArguments is returned when an invocation's arguments do not match
// the shape the pipeline was declared with.
var ErrInvalidArguments = errors.New("invalid arguments")

// Kind discriminates the three failure families a run can carry.
// It is fixed when the error is constructed.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "Signal"
	case KindValidation:
		return "ValidationError"
	default:
		return "ServerError"
	}
}

// ErrorCode names a domain failure. Each code maps to a status and a default
// message through the fixed table below.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "BAD_REQUEST"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodePaymentRequired      ErrorCode = "PAYMENT_REQUIRED"
	CodeForbidden            ErrorCode = "FORBIDDEN"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeMethodNotAllowed     ErrorCode = "METHOD_NOT_ALLOWED"
	CodeRequestTimeout       ErrorCode = "REQUEST_TIMEOUT"
	CodeConflict             ErrorCode = "CONFLICT"
	CodePreconditionFailed   ErrorCode = "PRECONDITION_FAILED"
	CodePayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	CodeTeapot               ErrorCode = "IM_A_TEAPOT"
	CodeUnprocessableEntity  ErrorCode = "UNPROCESSABLE_ENTITY"
	CodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
	CodeInternal             ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeNotImplemented       ErrorCode = "NOT_IMPLEMENTED"
	CodeBadGateway           ErrorCode = "BAD_GATEWAY"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInsufficientStorage  ErrorCode = "INSUFFICIENT_STORAGE"
)

type codeInfo struct {
	status  int
	message string
}

var codes = map[ErrorCode]codeInfo{
	CodeBadRequest:           {400, "The server could not understand the request due to invalid syntax or a client error."},
	CodeUnauthorized:         {401, "The request was not completed because it lacks valid authentication credentials."},
	CodePaymentRequired:      {402, "Payment is required to process the request. This status code is reserved for future use."},
	CodeForbidden:            {403, "The server understood the request but refuses to authorize it due to insufficient permissions."},
	CodeNotFound:             {404, "The requested resource could not be found on the server."},
	CodeMethodNotAllowed:     {405, "The request method is known by the server but is not supported by the target resource."},
	CodeRequestTimeout:       {408, "The server timed out waiting for the request. The connection was closed before the server could process the request."},
	CodeConflict:             {409, "The request could not be completed due to a conflict with the current state of the resource."},
	CodePreconditionFailed:   {412, "The server does not meet one of the preconditions that the client placed on the request."},
	CodePayloadTooLarge:      {413, "The request entity is larger than what the server is willing or able to process."},
	CodeUnsupportedMediaType: {415, "The server refuses to process the request because the payload is in an unsupported format."},
	CodeTeapot:               {418, "The server refuses to brew coffee because it is, permanently, a teapot. (Just for fun!)"},
	CodeUnprocessableEntity:  {422, "The server understands the content type and syntax of the request but was unable to process the contained instructions."},
	CodeTooManyRequests:      {429, "The user has sent too many requests in a given amount of time (rate limiting)."},
	CodeInternal:             {500, "The server encountered an unexpected condition that prevented it from fulfilling the request."},
	CodeNotImplemented:       {501, "The server does not support the functionality required to fulfill the request."},
	CodeBadGateway:           {502, "The server, while acting as a gateway or proxy, received an invalid response from the upstream server."},
	CodeServiceUnavailable:   {503, "The server is currently unable to handle the request due to temporary overload or maintenance."},
	CodeInsufficientStorage:  {507, "The server is unable to store the representation needed to complete the request."},
}

// Status returns the HTTP-like status of the code, 500 for unknown codes.
func (c ErrorCode) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return codes[CodeInternal].status
}

// Message returns the default message of the code.
func (c ErrorCode) Message() string {
	if info, ok := codes[c]; ok {
		return info.message
	}
	return codes[CodeInternal].message
}

// Codes lists every known error code.
func Codes() []ErrorCode {
	return []ErrorCode{
		CodeBadRequest, CodeUnauthorized, CodePaymentRequired, CodeForbidden,
		CodeNotFound, CodeMethodNotAllowed, CodeRequestTimeout, CodeConflict,
		CodePreconditionFailed, CodePayloadTooLarge, CodeUnsupportedMediaType,
		CodeTeapot, CodeUnprocessableEntity, CodeTooManyRequests, CodeInternal,
		CodeNotImplemented, CodeBadGateway, CodeServiceUnavailable,
		CodeInsufficientStorage,
	}
}

// DefaultMessage is the message of errors that are not part of the taxonomy.
const DefaultMessage = "An unexpected error occurred."

// ServerError is a coded domain failure.
type ServerError struct {
	Code    ErrorCode
	Status  int
	Message string
	Cause   any
}

// NewServerError creates a ServerError. An empty message falls back to the
// code's default message.
func NewServerError(code ErrorCode, message string) *ServerError {
	if message == "" {
		message = code.Message()
	}
	return &ServerError{Code: code, Status: code.Status(), Message: message}
}

// WrapServerError creates a ServerError carrying cause.
func WrapServerError(code ErrorCode, cause error) *ServerError {
	e := NewServerError(code, "")
	if cause != nil {
		e.Message = cause.Error()
		e.Cause = cause
	}
	return e
}

// FromError turns a plain error into an internal ServerError, keeping its message.
func FromError(err error) *ServerError {
	return &ServerError{
		Code:    CodeInternal,
		Status:  CodeInternal.Status(),
		Message: err.Error(),
		Cause:   err,
	}
}

// DefaultServerError wraps a value that is not an error at all.
func DefaultServerError(cause any) *ServerError {
	return &ServerError{
		Code:    CodeInternal,
		Status:  CodeInternal.Status(),
		Message: DefaultMessage,
		Cause:   cause,
	}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServerError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

func (e *ServerError) Kind() Kind { return KindServer }

// ValidationError carries every issue collected by one validation pass.
type ValidationError struct {
	Issues []schema.Issue
}

// NewValidationError creates a ValidationError from issues.
func NewValidationError(issues ...schema.Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// Signal is a control-flow instruction meant for the hosting framework.
// Pipelines hand it back to the caller unchanged.
type Signal struct {
	Payload any
}

// RedirectPayload instructs the host to redirect.
type RedirectPayload struct {
	URL    string
	Status int
}

// NotFoundPayload instructs the host to answer with its not-found response.
type NotFoundPayload struct{}

// NewSignal wraps an arbitrary host payload.
func NewSignal(payload any) *Signal {
	return &Signal{Payload: payload}
}

// Redirect creates a redirect signal. A zero status means 303 See Other.
func Redirect(url string, status int) *Signal {
	if status == 0 {
		status = 303
	}
	return &Signal{Payload: RedirectPayload{URL: url, Status: status}}
}

// NotFound creates a not-found signal.
func NotFound() *Signal {
	return &Signal{Payload: NotFoundPayload{}}
}

func (s *Signal) Error() string {
	switch p := s.Payload.(type) {
	case RedirectPayload:
		return fmt.Sprintf("signal: redirect %d %s", p.Status, p.URL)
	case NotFoundPayload:
		return "signal: not found"
	default:
		return fmt.Sprintf("signal: %v", p)
	}
}

func (s *Signal) Kind() Kind { return KindSignal }

// KindOf reports the family of err. Errors outside the taxonomy are KindServer.
func KindOf(err error) Kind {
	var sig *Signal
	if errors.As(err, &sig) {
		return KindSignal
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	return KindServer
}

// Classify maps err onto the taxonomy, in precedence order Signal,
// ValidationError, ServerError. Anything else becomes an internal ServerError
// with the original message. Context errors map to REQUEST_TIMEOUT when the
// deadline was exceeded.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var sig *Signal
	if errors.As(err, &sig) {
		return sig
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var serr *ServerError
	if errors.As(err, &serr) {
		return serr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapServerError(CodeRequestTimeout, err)
	}
	return FromError(err)
}

// Recovered classifies a value caught by recover.
func Recovered(v any) error {
	if err, ok := v.(error); ok {
		return Classify(err)
	}
	return DefaultServerError(v)
}

// Serialized is the client-visible shape of a failure.
type Serialized struct {
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Issues  []schema.Issue `json:"issues,omitempty"`
	Code    ErrorCode      `json:"code,omitempty"`
	Status  int            `json:"status,omitempty"`
}

// Serialize projects err for clients. Signals are never serialized and
// yield nil, as does a nil error.
func Serialize(err error) *Serialized {
	switch e := Classify(err).(type) {
	case nil, *Signal:
		return nil
	case *ValidationError:
		issues := e.Issues
		if issues == nil {
			issues = []schema.Issue{}
		}
		return &Serialized{
			Name:    KindValidation.String(),
			Message: e.Error(),
			Issues:  issues,
		}
	case *ServerError:
		return &Serialized{
			Name:    KindServer.String(),
			Message: e.Message,
			Code:    e.Code,
			Status:  e.Status,
		}
	default:
		return nil
	}
}
