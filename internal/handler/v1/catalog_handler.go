package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/service"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

type createServiceRequest struct {
	Name           string  `json:"name" binding:"required"`
	Category       string  `json:"category" binding:"required"`
	BasePrice      float64 `json:"base_price"`
	CommissionRate float64 `json:"commission_rate"`
	Description    string  `json:"description"`
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	svc, err := h.svc.CreateService(c.Request.Context(), &catalog.CreateServiceCommand{
		Name:           req.Name,
		Category:       catalog.ServiceCategory(req.Category),
		BasePrice:      req.BasePrice,
		CommissionRate: req.CommissionRate,
		Description:    req.Description,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, svc)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	svc, err := h.svc.GetService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, svc)
}

type updateServiceRequest struct {
	Name           *string  `json:"name"`
	Category       *string  `json:"category"`
	BasePrice      *float64 `json:"base_price"`
	CommissionRate *float64 `json:"commission_rate"`
	Description    *string  `json:"description"`
	IsActive       *bool    `json:"is_active"`
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &catalog.UpdateServiceCommand{
		Name:           req.Name,
		BasePrice:      req.BasePrice,
		CommissionRate: req.CommissionRate,
		Description:    req.Description,
		IsActive:       req.IsActive,
	}
	if req.Category != nil {
		cat := catalog.ServiceCategory(*req.Category)
		if !cat.IsValid() {
			respondError(c, 400, "invalid category")
			return
		}
		cmd.Category = &cat
	}

	callerID, callerRole, ip := caller(c)
	svc, err := h.svc.UpdateService(c.Request.Context(), id, cmd, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, svc)
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	var category *catalog.ServiceCategory
	if raw := c.Query("category"); raw != "" {
		cat := catalog.ServiceCategory(raw)
		if !cat.IsValid() {
			respondError(c, 400, "invalid category filter")
			return
		}
		category = &cat
	}

	services, err := h.svc.ListServices(c.Request.Context(), category, c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, services)
}

type createProcedureRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *CatalogHandler) CreateProcedure(c *gin.Context) {
	var req createProcedureRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	p, err := h.svc.CreateProcedure(c.Request.Context(), &catalog.CreateProcedureCommand{
		Name:        req.Name,
		Description: req.Description,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *CatalogHandler) ListProcedures(c *gin.Context) {
	procedures, err := h.svc.ListProcedures(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, procedures)
}

type createPackageRequest struct {
	Name          string    `json:"name" binding:"required"`
	ServiceID     uuid.UUID `json:"service_id" binding:"required"`
	SessionsCount int       `json:"sessions_count" binding:"required"`
	Price         float64   `json:"price"`
	Description   string    `json:"description"`
}

func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req createPackageRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	p, err := h.svc.CreatePackage(c.Request.Context(), &catalog.CreatePackageCommand{
		Name:          req.Name,
		ServiceID:     req.ServiceID,
		SessionsCount: req.SessionsCount,
		Price:         req.Price,
		Description:   req.Description,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *CatalogHandler) ListPackages(c *gin.Context) {
	packages, err := h.svc.ListPackages(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, packages)
}
