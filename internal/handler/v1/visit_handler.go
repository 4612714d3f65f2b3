package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/visit"
	"github.com/klinikku/clinic-api/internal/service"
)

type VisitHandler struct {
	svc *service.VisitService
}

func NewVisitHandler(svc *service.VisitService) *VisitHandler {
	return &VisitHandler{svc: svc}
}

type newPatientRequest struct {
	FullName       string    `json:"full_name" binding:"required"`
	DateOfBirth    time.Time `json:"date_of_birth" binding:"required"`
	Gender         string    `json:"gender" binding:"required"`
	Phone          string    `json:"phone" binding:"required"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	BloodType      string    `json:"blood_type"`
	Allergies      string    `json:"allergies"`
	MedicalHistory string    `json:"medical_history"`
}

func (r *newPatientRequest) toCommand() *patient.CreatePatientCommand {
	return &patient.CreatePatientCommand{
		FullName:       r.FullName,
		DateOfBirth:    r.DateOfBirth,
		Gender:         patient.Gender(r.Gender),
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		BloodType:      r.BloodType,
		Allergies:      r.Allergies,
		MedicalHistory: r.MedicalHistory,
	}
}

type createVisitRequest struct {
	PatientID      *uuid.UUID         `json:"patient_id"`
	Patient        *newPatientRequest `json:"patient"`
	VisitDate      *time.Time         `json:"visit_date"`
	ChiefComplaint string             `json:"chief_complaint"`
	BloodPressure  string             `json:"blood_pressure"`
	Notes          string             `json:"notes"`
}

func (h *VisitHandler) Create(c *gin.Context) {
	var req createVisitRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)

	cmd := &visit.CreateVisitCommand{
		Patient:        visit.PatientRef{ID: req.PatientID},
		ChiefComplaint: req.ChiefComplaint,
		BloodPressure:  req.BloodPressure,
		Notes:          req.Notes,
		OpenedBy:       callerID,
	}
	if req.Patient != nil {
		cmd.Patient.Inline = req.Patient.toCommand()
	}
	if req.VisitDate != nil {
		cmd.VisitDate = *req.VisitDate
	}

	v, err := h.svc.OpenVisit(c.Request.Context(), cmd, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, v)
}

func (h *VisitHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.svc.GetVisit(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, v)
}

func (h *VisitHandler) List(c *gin.Context) {
	q := &visit.ListVisitsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := visit.Status(raw)
		if !st.IsValid() {
			respondError(c, 400, "invalid status filter")
			return
		}
		q.Status = &st
	}

	page, err := h.svc.ListVisits(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

// Queue returns the day's waiting and in-progress visits in queue order.
// Defaults to today; accepts ?date=2006-01-02.
func (h *VisitHandler) Queue(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, 400, "invalid date: expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	queue, err := h.svc.TodayQueue(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, queue)
}

type updateVisitStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *VisitHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateVisitStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	v, err := h.svc.TransitionStatus(c.Request.Context(), id, visit.Status(req.Status), callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, v)
}

type updateVisitRequest struct {
	VisitDate      *time.Time `json:"visit_date"`
	ChiefComplaint *string    `json:"chief_complaint"`
	BloodPressure  *string    `json:"blood_pressure"`
	Notes          *string    `json:"notes"`
}

func (h *VisitHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateVisitRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	v, err := h.svc.UpdateVisit(c.Request.Context(), id, &visit.UpdateVisitCommand{
		VisitDate:      req.VisitDate,
		ChiefComplaint: req.ChiefComplaint,
		BloodPressure:  req.BloodPressure,
		Notes:          req.Notes,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, v)
}
