package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/auth"
	creditgatedomain "github.com/skipscan/skipscan/internal/creditgate/domain"
	creditpackagedomain "github.com/skipscan/skipscan/internal/creditpackage/domain"
	enrichmentdomain "github.com/skipscan/skipscan/internal/enrichment/domain"
	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	purchasedomain "github.com/skipscan/skipscan/internal/purchase/domain"
	queryresultdomain "github.com/skipscan/skipscan/internal/queryresult/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

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

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, creditgatedomain.ErrInsufficientCredits):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_credits",
			Message: "not enough credits for this request",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, accountdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, enrichmentdomain.ErrProviderUnavailable),
		errors.Is(err, paymentdomain.ErrProcessorUnavailable),
		errors.Is(err, purchasedomain.ErrCheckoutFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "upstream provider error",
		}
	case errors.Is(err, ErrInternal),
		errors.Is(err, paymentdomain.ErrGrantFailed):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, accountdomain.ErrInvalidEmail),
		errors.Is(err, enrichmentdomain.ErrInvalidKind),
		errors.Is(err, enrichmentdomain.ErrEmptyRequest),
		errors.Is(err, enrichmentdomain.ErrEmptyBatch),
		errors.Is(err, queryresultdomain.ErrInvalidID),
		errors.Is(err, queryresultdomain.ErrInvalidKind),
		errors.Is(err, creditgatedomain.ErrInvalidCost),
		errors.Is(err, creditpackagedomain.ErrInvalidID),
		errors.Is(err, purchasedomain.ErrInvalidID),
		errors.Is(err, purchasedomain.ErrInvalidQuantity),
		errors.Is(err, purchasedomain.ErrBelowMinimum),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent),
		errors.Is(err, paymentdomain.ErrInvalidMetadata),
		errors.Is(err, paymentdomain.ErrInvalidSession):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, accountdomain.ErrInvalidAccount),
		errors.Is(err, creditgatedomain.ErrInvalidAccount),
		errors.Is(err, queryresultdomain.ErrInvalidAccount),
		errors.Is(err, purchasedomain.ErrInvalidAccount),
		errors.Is(err, paymentdomain.ErrInvalidAccount):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, purchasedomain.ErrEligibilityDenied),
		errors.Is(err, purchasedomain.ErrPartnerLocationRequired),
		errors.Is(err, paymentdomain.ErrSessionMismatch):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, creditgatedomain.ErrNotFound),
		errors.Is(err, creditpackagedomain.ErrNotFound),
		errors.Is(err, queryresultdomain.ErrNotFound),
		errors.Is(err, purchasedomain.ErrPackageNotFound),
		errors.Is(err, purchasedomain.ErrSandboxDisabled),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, purchasedomain.ErrBelowMinimum):
		return "below_minimum_quantity"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "below_minimum_quantity" {
		return "quantity"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "below_minimum_quantity":
		return "quantity is below the package minimum"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog tags request log lines without leaking payload detail.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
