package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/config"
	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/service"
	"github.com/klinikku/clinic-api/pkg/auth"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

type Services struct {
	Auth       *service.AuthService
	Patient    *service.PatientService
	Visit      *service.VisitService
	Treatment  *service.TreatmentService
	Medication *service.MedicationService
	Payment    *service.PaymentService
	Catalog    *service.CatalogService
}

func NewRouter(
	cfg *config.Config,
	services Services,
	jwtManager *auth.JWTManager,
	m *metrics.Collector,
	log *zap.Logger,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(Metrics(m))
	r.Use(cors(cfg.CORS))
	r.Use(RateLimit(cfg.RateLimit))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(services.Auth)
	patientHandler := NewPatientHandler(services.Patient)
	visitHandler := NewVisitHandler(services.Visit)
	treatmentHandler := NewTreatmentHandler(services.Treatment)
	medicationHandler := NewMedicationHandler(services.Medication)
	paymentHandler := NewPaymentHandler(services.Payment)
	catalogHandler := NewCatalogHandler(services.Catalog)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(AuthRateLimit(cfg.RateLimit))
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(Authenticate(jwtManager))
	{
		protected.POST("/auth/register", RequireRoles(), authHandler.RegisterStaff)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		anyStaff := RequireRoles(domain.RoleDoctor, domain.RoleNurse, domain.RoleReceptionist)
		frontDesk := RequireRoles(domain.RoleReceptionist)
		clinicians := RequireRoles(domain.RoleDoctor, domain.RoleNurse)

		protected.POST("/patients", frontDesk, patientHandler.Create)
		protected.GET("/patients", anyStaff, patientHandler.List)
		protected.GET("/patients/:id", anyStaff, patientHandler.Get)
		protected.PATCH("/patients/:id", frontDesk, patientHandler.Update)

		protected.POST("/visits", frontDesk, visitHandler.Create)
		protected.GET("/visits", anyStaff, visitHandler.List)
		protected.GET("/visits/queue", anyStaff, visitHandler.Queue)
		protected.GET("/visits/:id", anyStaff, visitHandler.Get)
		protected.PATCH("/visits/:id", anyStaff, visitHandler.Update)
		protected.PATCH("/visits/:id/status", anyStaff, visitHandler.UpdateStatus)
		protected.GET("/visits/:id/treatments", anyStaff, treatmentHandler.ListByVisit)
		protected.GET("/visits/:id/medications", anyStaff, medicationHandler.ListByVisit)
		protected.GET("/visits/:id/payments", anyStaff, paymentHandler.ListByVisit)

		protected.POST("/treatments", clinicians, treatmentHandler.Create)
		protected.GET("/treatments", anyStaff, treatmentHandler.List)
		protected.GET("/treatments/:id", anyStaff, treatmentHandler.Get)
		protected.PATCH("/treatments/:id", clinicians, treatmentHandler.Update)
		protected.DELETE("/treatments/:id", clinicians, treatmentHandler.Delete)

		protected.POST("/medications", clinicians, medicationHandler.Create)
		protected.PATCH("/medications/:id", clinicians, medicationHandler.Update)
		protected.DELETE("/medications/:id", clinicians, medicationHandler.Delete)

		protected.POST("/payments", frontDesk, paymentHandler.Record)
		protected.GET("/payments/:id", anyStaff, paymentHandler.Get)
		protected.GET("/commissions", RequireRoles(domain.RoleDoctor, domain.RoleNurse), paymentHandler.ListCommissions)

		protected.GET("/services", anyStaff, catalogHandler.ListServices)
		protected.GET("/services/:id", anyStaff, catalogHandler.GetService)
		protected.POST("/services", RequireRoles(), catalogHandler.CreateService)
		protected.PATCH("/services/:id", RequireRoles(), catalogHandler.UpdateService)
		protected.GET("/procedures", anyStaff, catalogHandler.ListProcedures)
		protected.POST("/procedures", RequireRoles(), catalogHandler.CreateProcedure)
		protected.GET("/packages", anyStaff, catalogHandler.ListPackages)
		protected.POST("/packages", RequireRoles(), catalogHandler.CreatePackage)
	}

	return r
}

func cors(cfg config.CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Max-Age", maxAge)
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
