package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/pkg/auth"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

const (
	ctxKeyClaims    = "claims"
	ctxKeyRequestID = "request_id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxKeyRequestID)),
		)
	}
}

func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlightGauge.Inc()
		start := time.Now()
		c.Next()
		m.InFlightGauge.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Authenticate validates the bearer token and stores the claims for handlers
// downstream.
func Authenticate(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allow list. Admin
// passes everywhere.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := callerClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		if claims.Role == domain.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
	}
}

func callerClaims(c *gin.Context) *domain.Claims {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil
	}
	claims, ok := v.(*domain.Claims)
	if !ok {
		return nil
	}
	return claims
}

// caller returns the authenticated staff identity handlers pass into the
// service layer.
func caller(c *gin.Context) (uuid.UUID, string, string) {
	claims := callerClaims(c)
	if claims == nil {
		return uuid.Nil, "", c.ClientIP()
	}
	return claims.UserID, string(claims.Role), c.ClientIP()
}
