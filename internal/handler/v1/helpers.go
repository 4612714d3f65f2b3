package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/domain/medication"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/domain/visit"
	"github.com/klinikku/clinic-api/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, visit.ErrVisitNotFound),
		errors.Is(err, treatment.ErrTreatmentNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrPackageNotFound),
		errors.Is(err, billing.ErrPaymentNotFound),
		errors.Is(err, billing.ErrCommissionNotFound),
		errors.Is(err, medication.ErrMedicationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, visit.ErrDuplicateVisitNumber):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, visit.ErrInvalidStatus),
		errors.Is(err, visit.ErrInvalidStatusTransition),
		errors.Is(err, treatment.ErrInvalidQuantity),
		errors.Is(err, treatment.ErrInvalidDiscount),
		errors.Is(err, billing.ErrInvalidPaymentMethod),
		errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, billing.ErrInvalidPaidAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, treatment.ErrNotPerformer),
		errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	case errors.Is(err, visit.ErrVisitNumberExhausted):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "VISIT_NUMBER_EXHAUSTED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})

	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}
