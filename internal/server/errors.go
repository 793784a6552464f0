package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountsdomain "github.com/ledgerwell/praxis/internal/accounts/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"gorm.io/gorm"
)

type errorBody struct {
	Code    string                           `json:"code"`
	Message string                           `json:"message"`
	Details []accountsdomain.ValidationError `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var (
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrNotFound         = errors.New("not_found")
	ErrRateLimited      = errors.New("rate_limited")
	ErrRenderInProgress = errors.New("render_in_progress")
	ErrInternal         = errors.New("internal_error")
)

// requestError is a request-shape failure raised by a handler before the
// service layer is involved.
type requestError struct {
	findings []accountsdomain.ValidationError
}

func (e *requestError) Error() string { return "invalid request" }

func (e *requestError) Unwrap() error { return ErrInvalidRequest }

func invalidField(field, code, message string) error {
	return &requestError{findings: []accountsdomain.ValidationError{{
		Field:   field,
		Code:    code,
		Message: message,
	}}}
}

// ErrorHandlingMiddleware renders the last handler error once the chain
// has finished, unless the handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: body})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

var badRequestErrors = []error{
	ErrInvalidRequest,
	accountsdomain.ErrInvalidID,
	accountsdomain.ErrInvalidClientID,
	accountsdomain.ErrInvalidPeriod,
	accountsdomain.ErrInvalidFramework,
	accountsdomain.ErrInvalidSectionKey,
	accountsdomain.ErrCalculatedField,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidType,
	clientdomain.ErrInvalidID,
	clientdomain.ErrInvalidYearEnd,
	clientdomain.ErrCompanyNumberSet,
}

var notFoundErrors = []error{
	ErrNotFound,
	accountsdomain.ErrNotFound,
	accountsdomain.ErrClientNotFound,
	clientdomain.ErrNotFound,
}

var conflictErrors = []error{
	ErrRenderInProgress,
	accountsdomain.ErrDocumentLocked,
	accountsdomain.ErrInvalidTransition,
	accountsdomain.ErrNotReady,
	accountsdomain.ErrNotLocked,
	accountsdomain.ErrOutputsMissing,
	accountsdomain.ErrFrameworkLocked,
}

func mapError(err error) (int, errorBody) {
	if err == nil {
		return http.StatusInternalServerError, errorBody{
			Code:    "internal_error",
			Message: "internal server error",
		}
	}

	// Section writes fail with every finding at once so the caller can
	// surface the complete list.
	var sectionErr *accountsdomain.SectionValidationError
	if errors.As(err, &sectionErr) {
		return http.StatusUnprocessableEntity, errorBody{
			Code:    "section_validation_failed",
			Message: "section failed validation",
			Details: sectionErr.Findings,
		}
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, errorBody{
			Code:    "invalid_request",
			Message: "invalid request",
			Details: reqErr.findings,
		}
	}

	if matched := matchSentinel(err, badRequestErrors); matched != nil {
		return http.StatusBadRequest, errorBody{
			Code:    matched.Error(),
			Message: err.Error(),
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorBody{
			Code:    "not_found",
			Message: "not found",
		}
	}
	if matched := matchSentinel(err, notFoundErrors); matched != nil {
		return http.StatusNotFound, errorBody{
			Code:    matched.Error(),
			Message: err.Error(),
		}
	}
	if matched := matchSentinel(err, conflictErrors); matched != nil {
		return http.StatusConflict, errorBody{
			Code:    matched.Error(),
			Message: err.Error(),
		}
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests, errorBody{
			Code:    "rate_limited",
			Message: "output generation rate limited, retry later",
		}
	}

	return http.StatusInternalServerError, errorBody{
		Code:    "internal_error",
		Message: "internal server error",
	}
}

func matchSentinel(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	status, body := mapError(err)
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation", body.Code
	case http.StatusNotFound:
		return "not_found", body.Code
	case http.StatusConflict:
		return "conflict", body.Code
	case http.StatusTooManyRequests:
		return "rate_limited", body.Code
	default:
		return "internal", body.Code
	}
}
