package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/service"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type recordPaymentRequest struct {
	VisitID         uuid.UUID `json:"visit_id" binding:"required"`
	Method          string    `json:"method" binding:"required"`
	Amount          float64   `json:"amount" binding:"required"`
	PaidAmount      float64   `json:"paid_amount"`
	ReferenceNumber string    `json:"reference_number"`
	Notes           string    `json:"notes"`
}

func (h *PaymentHandler) Record(c *gin.Context) {
	var req recordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	p, err := h.svc.RecordPayment(c.Request.Context(), &billing.RecordPaymentCommand{
		VisitID:         req.VisitID,
		Method:          billing.PaymentMethod(req.Method),
		Amount:          req.Amount,
		PaidAmount:      req.PaidAmount,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PaymentHandler) ListByVisit(c *gin.Context) {
	visitID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	payments, err := h.svc.ListPaymentsByVisit(c.Request.Context(), visitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, payments)
}

func (h *PaymentHandler) ListCommissions(c *gin.Context) {
	q := &billing.ListCommissionsQuery{}
	if raw := c.Query("staff_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid staff_id: must be a valid UUID")
			return
		}
		q.StaffID = &id
	}
	if v := parseQueryInt(c, "period_month", 0); v > 0 {
		q.PeriodMonth = &v
	}
	if v := parseQueryInt(c, "period_year", 0); v > 0 {
		q.PeriodYear = &v
	}
	if raw := c.Query("status"); raw != "" {
		st := billing.CommissionStatus(raw)
		q.Status = &st
	}

	commissions, err := h.svc.ListCommissions(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, commissions)
}
