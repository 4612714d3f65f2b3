package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/service"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req newPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	p, err := h.svc.RegisterPatient(c.Request.Context(), req.toCommand(), callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type updatePatientRequest struct {
	FullName       *string `json:"full_name"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Address        *string `json:"address"`
	BloodType      *string `json:"blood_type"`
	Allergies      *string `json:"allergies"`
	MedicalHistory *string `json:"medical_history"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	p, err := h.svc.UpdatePatient(c.Request.Context(), id, &patient.UpdatePatientCommand{
		FullName:       req.FullName,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		BloodType:      req.BloodType,
		Allergies:      req.Allergies,
		MedicalHistory: req.MedicalHistory,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	page, err := h.svc.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}
