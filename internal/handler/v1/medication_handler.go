package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/medication"
	"github.com/klinikku/clinic-api/internal/service"
)

type MedicationHandler struct {
	svc *service.MedicationService
}

func NewMedicationHandler(svc *service.MedicationService) *MedicationHandler {
	return &MedicationHandler{svc: svc}
}

type createMedicationRequest struct {
	VisitID      uuid.UUID `json:"visit_id" binding:"required"`
	Name         string    `json:"name" binding:"required"`
	Quantity     string    `json:"quantity" binding:"required"`
	Instructions string    `json:"instructions"`
}

func (h *MedicationHandler) Create(c *gin.Context) {
	var req createMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	m, err := h.svc.AddMedication(c.Request.Context(), &medication.CreateMedicationCommand{
		VisitID:      req.VisitID,
		Name:         req.Name,
		Quantity:     req.Quantity,
		Instructions: req.Instructions,
		PrescribedBy: callerID,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, m)
}

type updateMedicationRequest struct {
	Name         *string `json:"name"`
	Quantity     *string `json:"quantity"`
	Instructions *string `json:"instructions"`
}

func (h *MedicationHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	m, err := h.svc.UpdateMedication(c.Request.Context(), id, &medication.UpdateMedicationCommand{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Instructions: req.Instructions,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, m)
}

func (h *MedicationHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	callerID, callerRole, ip := caller(c)
	if err := h.svc.DeleteMedication(c.Request.Context(), id, callerID, callerRole, ip); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(204)
}

func (h *MedicationHandler) ListByVisit(c *gin.Context) {
	visitID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	medications, err := h.svc.ListByVisit(c.Request.Context(), visitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, medications)
}
