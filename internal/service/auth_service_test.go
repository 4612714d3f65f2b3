package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/klinikku/clinic-api/internal/config"
	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/pkg/auth"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *fakeUserRepo) UpdateLoginAttempt(_ context.Context, id uuid.UUID, success bool) error {
	u := r.byID[id]
	if success {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		return nil
	}
	u.FailedLoginCount++
	if u.FailedLoginCount >= 5 {
		until := time.Now().Add(15 * time.Minute)
		u.LockedUntil = &until
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.byID[id].PasswordHash = hash
	return nil
}

func newAuthTestService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinic-api-test",
	})
	auditSvc := NewAuditService(fakeAuditRepo{}, zap.NewNop())
	return NewAuthService(repo, jwtManager, auditSvc, zap.NewNop()), repo
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Dr. Test",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	svc, repo := newAuthTestService(t)
	seedUser(t, repo, "doctor@clinic.test", "correct-horse-battery", domain.RoleDoctor)

	t.Run("success", func(t *testing.T) {
		pair, err := svc.Login(context.Background(), "doctor@clinic.test", "correct-horse-battery", "10.0.0.1")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "doctor@clinic.test", "wrong", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@clinic.test", "whatever", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("locks after repeated failures", func(t *testing.T) {
		seedUser(t, repo, "nurse@clinic.test", "some-long-password", domain.RoleNurse)
		for i := 0; i < 5; i++ {
			_, err := svc.Login(context.Background(), "nurse@clinic.test", "wrong", "10.0.0.1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err := svc.Login(context.Background(), "nurse@clinic.test", "some-long-password", "10.0.0.1")
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("inactive account", func(t *testing.T) {
		u := seedUser(t, repo, "former@clinic.test", "some-long-password", domain.RoleReceptionist)
		u.IsActive = false
		_, err := svc.Login(context.Background(), "former@clinic.test", "some-long-password", "10.0.0.1")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestRefreshToken(t *testing.T) {
	svc, repo := newAuthTestService(t)
	u := seedUser(t, repo, "doctor@clinic.test", "correct-horse-battery", domain.RoleDoctor)

	pair, err := svc.Login(context.Background(), "doctor@clinic.test", "correct-horse-battery", "10.0.0.1")
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token must not pass as a refresh token.
	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Deactivation invalidates refresh.
	u.IsActive = false
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterStaff(t *testing.T) {
	svc, repo := newAuthTestService(t)
	admin := uuid.New()

	u, err := svc.RegisterStaff(context.Background(), &RegisterStaffCommand{
		Email:          "new.doctor@clinic.test",
		Password:       "a-sufficiently-long-password",
		FullName:       "drg. Sari",
		Role:           domain.RoleDoctor,
		Specialization: "orthodontics",
	}, admin, "admin", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "a-sufficiently-long-password", u.PasswordHash)

	_, err = repo.GetByEmail(context.Background(), "new.doctor@clinic.test")
	require.NoError(t, err)

	t.Run("rejects weak password", func(t *testing.T) {
		_, err := svc.RegisterStaff(context.Background(), &RegisterStaffCommand{
			Email:    "weak@clinic.test",
			Password: "short",
			FullName: "X",
			Role:     domain.RoleNurse,
		}, admin, "admin", "10.0.0.1")
		assert.Error(t, err)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.RegisterStaff(context.Background(), &RegisterStaffCommand{
			Email:    "odd@clinic.test",
			Password: "a-sufficiently-long-password",
			FullName: "X",
			Role:     "janitor",
		}, admin, "admin", "10.0.0.1")
		var validErr *ValidationError
		assert.ErrorAs(t, err, &validErr)
	})
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthTestService(t)
	u := seedUser(t, repo, "doctor@clinic.test", "correct-horse-battery", domain.RoleDoctor)

	err := svc.ChangePassword(context.Background(), u.ID, "wrong", "a-brand-new-long-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), u.ID, "correct-horse-battery", "short")
	assert.Error(t, err)

	err = svc.ChangePassword(context.Background(), u.ID, "correct-horse-battery", "a-brand-new-long-password")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "doctor@clinic.test", "a-brand-new-long-password", "10.0.0.1")
	assert.NoError(t, err)
}

func TestCommissionPolicyByRole(t *testing.T) {
	assert.Equal(t, domain.CommissionImmediate, domain.CommissionTimingFor(domain.RoleDoctor))
	assert.Equal(t, domain.CommissionOnSettlement, domain.CommissionTimingFor(domain.RoleNurse))
	// Unknown and unmapped roles default to the conservative path.
	assert.Equal(t, domain.CommissionOnSettlement, domain.CommissionTimingFor(domain.RoleReceptionist))
	assert.Equal(t, domain.CommissionOnSettlement, domain.CommissionTimingFor("intern"))
}
