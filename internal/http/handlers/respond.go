package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chitworks/chitfund-api/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// productionMode suppresses internal error detail in 500 responses.
var productionMode bool

// SetProductionMode toggles error detail suppression for 500 responses.
func SetProductionMode(enabled bool) {
	productionMode = enabled
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// response is the uniform envelope returned by every endpoint.
type response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, response{Success: false, Message: message})
}

func respondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, message)
}

// respondBindError translates a binding failure into the 400 validation
// envelope. Validator errors carry per-field detail; anything else is
// reported as a malformed body.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Message: validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "Validation failed", Errors: fields})
		return
	}
	c.JSON(http.StatusBadRequest, response{Success: false, Message: "Validation failed", Error: "malformed request body"})
}

// validationMessage renders a human-readable message for one field failure.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// respondServerError returns a 500 envelope. Error detail is included only
// outside production mode.
func respondServerError(c *gin.Context, err error) {
	resp := response{Success: false, Message: "Internal server error"}
	if !productionMode && err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

// respondLedgerError maps ledger business-rule errors onto the envelope.
// Missing records are 404; everything else the ledger rejects is 400.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "Record not found")
	case errors.Is(err, ledger.ErrCapacityExceeded),
		errors.Is(err, ledger.ErrAlreadyEnrolled),
		errors.Is(err, ledger.ErrHasDependents),
		errors.Is(err, ledger.ErrInvalidMember),
		errors.Is(err, ledger.ErrCompleted),
		errors.Is(err, ledger.ErrGeneratedEntry),
		errors.Is(err, ledger.ErrDuplicateManualEntry),
		errors.Is(err, ledger.ErrAmbiguousEnrollment):
		respondError(c, http.StatusBadRequest, capitalize(err.Error()))
	default:
		respondServerError(c, err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
