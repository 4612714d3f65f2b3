package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/pkg/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager, auditSvc: auditSvc, log: log}
}

type RegisterStaffCommand struct {
	Email          string
	Password       string
	FullName       string
	Role           domain.Role
	Specialization string
}

// RegisterStaff creates a staff account. Admin-only at the handler layer.
func (s *AuthService) RegisterStaff(ctx context.Context, cmd *RegisterStaffCommand, callerID uuid.UUID, callerRole string, ip string) (*domain.User, error) {
	var fields []string
	if cmd.Email == "" {
		fields = append(fields, "email: required")
	}
	if cmd.FullName == "" {
		fields = append(fields, "full_name: required")
	}
	if !cmd.Role.IsValid() {
		fields = append(fields, "role: invalid")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		Email:          cmd.Email,
		PasswordHash:   string(hash),
		FullName:       cmd.FullName,
		Role:           cmd.Role,
		Specialization: cmd.Specialization,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		s.log.Error("failed to create staff account", zap.Error(err))
		return nil, fmt.Errorf("creating staff account: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "user", ResourceID: u.ID.String(), IPAddress: ip,
	})
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		// An attacker measuring response time should not be able to determine
		// whether the email exists in the system.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		// Record failed attempt; lock if threshold exceeded
		_ = s.userRepo.UpdateLoginAttempt(ctx, user.ID, false)
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.UpdateLoginAttempt(ctx, user.ID, true)

	claims := &domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "login", ResourceType: "user", ResourceID: user.ID.String(), IPAddress: ip,
	})

	return pair, nil
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	updatedClaims := &domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	return s.jwtManager.GenerateTokenPair(updatedClaims)
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	return nil
}
