package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain"
)

const maxFailedLogins = 5

const loginLockDuration = 15 * time.Minute

// UserStore implements the auth service's UserRepository.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	if success {
		now := time.Now()
		return s.db.WithContext(ctx).
			Model(&domain.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"failed_login_count": 0,
				"locked_until":       nil,
				"last_login_at":      now,
			}).Error
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}
		updates := map[string]any{"failed_login_count": u.FailedLoginCount + 1}
		if u.FailedLoginCount+1 >= maxFailedLogins {
			updates["locked_until"] = time.Now().Add(loginLockDuration)
		}
		return tx.Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error
	})
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":       hash,
			"password_changed_at": time.Now(),
		}).Error
}

// AuditStore implements the audit service's repository.
type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Create(ctx context.Context, entry *domain.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
