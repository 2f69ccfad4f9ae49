package shared

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateFrame    = errors.New("duplicate frame")
	ErrEmptyQuery        = errors.New("empty query")
	ErrIndexUnavailable  = errors.New("index unavailable")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidFrame      = errors.New("invalid frame")
	ErrInvalidConfig     = errors.New("invalid config")
)

type DuplicateFrameError struct {
	VideoID    string
	FrameIndex int
}

func (e *DuplicateFrameError) Error() string {
	return fmt.Sprintf("frame %d of video %q already exists", e.FrameIndex, e.VideoID)
}

func (e *DuplicateFrameError) Is(target error) bool {
	return target == ErrDuplicateFrame
}

type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension %d does not match index dimension %d", e.Got, e.Expected)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// IndexUnavailableError reports that the vector index backend could not be
// reached. It is fatal for the current request and never retried internally.
type IndexUnavailableError struct {
	Backend string
	Err     error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("%s index unavailable: %v", e.Backend, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error {
	return e.Err
}

func (e *IndexUnavailableError) Is(target error) bool {
	return target == ErrIndexUnavailable
}

type InvalidFrameError struct {
	VideoID    string
	FrameIndex int
	Reason     string
}

func (e *InvalidFrameError) Error() string {
	return fmt.Sprintf("invalid frame %d of video %q: %s", e.FrameIndex, e.VideoID, e.Reason)
}

func (e *InvalidFrameError) Is(target error) bool {
	return target == ErrInvalidFrame
}

type APIError struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, e)
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

func NotFound(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusNotFound)
}

func Conflict(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusConflict)
}

func ServiceUnavailable(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusServiceUnavailable)
}

func InternalError(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusInternalServerError)
}

// ErrorCode maps domain errors onto the stable codes used in API payloads.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateFrame):
		return "duplicate_frame"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrInvalidFrame):
		return "invalid_frame"
	case errors.Is(err, ErrIndexUnavailable):
		return "index_unavailable"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_parameters"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
