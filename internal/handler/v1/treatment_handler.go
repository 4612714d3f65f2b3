package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/service"
)

type TreatmentHandler struct {
	svc *service.TreatmentService
}

func NewTreatmentHandler(svc *service.TreatmentService) *TreatmentHandler {
	return &TreatmentHandler{svc: svc}
}

type createTreatmentRequest struct {
	VisitID     uuid.UUID `json:"visit_id" binding:"required"`
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	ToothNumber string    `json:"tooth_number"`
	Diagnosis   string    `json:"diagnosis"`
	Notes       string    `json:"notes"`
	Quantity    int       `json:"quantity" binding:"required"`
	Discount    float64   `json:"discount"`
}

func (h *TreatmentHandler) Create(c *gin.Context) {
	var req createTreatmentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	t, err := h.svc.AddTreatment(c.Request.Context(), &treatment.CreateTreatmentCommand{
		VisitID:     req.VisitID,
		ServiceID:   req.ServiceID,
		ToothNumber: req.ToothNumber,
		Diagnosis:   req.Diagnosis,
		Notes:       req.Notes,
		Quantity:    req.Quantity,
		Discount:    req.Discount,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, t)
}

func (h *TreatmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	t, err := h.svc.GetTreatment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, t)
}

type updateTreatmentRequest struct {
	ToothNumber *string  `json:"tooth_number"`
	Diagnosis   *string  `json:"diagnosis"`
	Notes       *string  `json:"notes"`
	Quantity    *int     `json:"quantity"`
	Discount    *float64 `json:"discount"`
}

func (h *TreatmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateTreatmentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	t, err := h.svc.UpdateTreatment(c.Request.Context(), id, &treatment.UpdateTreatmentCommand{
		ToothNumber: req.ToothNumber,
		Diagnosis:   req.Diagnosis,
		Notes:       req.Notes,
		Quantity:    req.Quantity,
		Discount:    req.Discount,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, t)
}

func (h *TreatmentHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole, ip := caller(c)
	if err := h.svc.DeleteTreatment(c.Request.Context(), id, callerID, callerRole, ip); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(204)
}

func (h *TreatmentHandler) ListByVisit(c *gin.Context) {
	visitID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	treatments, err := h.svc.ListByVisit(c.Request.Context(), visitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, treatments)
}

func (h *TreatmentHandler) List(c *gin.Context) {
	q := &treatment.ListTreatmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("performed_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid performed_by: must be a valid UUID")
			return
		}
		q.PerformedBy = &id
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid patient_id: must be a valid UUID")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, 400, "invalid date_from: expected YYYY-MM-DD")
			return
		}
		q.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, 400, "invalid date_to: expected YYYY-MM-DD")
			return
		}
		q.DateTo = &t
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		respondError(c, 400, "date_to must not be before date_from")
		return
	}

	page, err := h.svc.ListTreatments(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}
