package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist:
		return true
	}
	return false
}

// CommissionTiming determines when a commission entry is written for a
// treatment performed by a staff member of a given role.
type CommissionTiming string

const (
	// CommissionImmediate writes the entry inside the treatment-creation
	// transaction.
	CommissionImmediate CommissionTiming = "immediate"
	// CommissionOnSettlement defers the entry until the visit is fully paid.
	CommissionOnSettlement CommissionTiming = "on_settlement"
)

// commissionPolicies maps a role to its commission timing. Adding a role is a
// data change here, not a new branch in the cascade.
var commissionPolicies = map[Role]CommissionTiming{
	RoleDoctor: CommissionImmediate,
	RoleNurse:  CommissionOnSettlement,
}

func CommissionTimingFor(r Role) CommissionTiming {
	if t, ok := commissionPolicies[r]; ok {
		return t
	}
	return CommissionOnSettlement
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email          string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string `gorm:"column:password_hash;type:varchar(255);not null"`
	FullName       string `gorm:"column:full_name;type:varchar(200);not null"`
	Role           Role   `gorm:"column:role;type:varchar(30);not null;index"`
	Specialization string `gorm:"column:specialization;type:varchar(100)"`

	IsActive          bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount  int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil       *time.Time `gorm:"column:locked_until"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	PasswordChangedAt time.Time  `gorm:"column:password_changed_at"`
}

func (User) TableName() string {
	return "auth.users"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
	ActionLogout AuditAction = "logout"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	UserAgent  string `gorm:"column:user_agent;type:text"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}
