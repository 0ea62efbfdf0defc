package models

import (
	"time"

	"gestorcentros/internal/form"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Role           string    `gorm:"not null;size:16;check:chk_users_role,role IN ('admin','operator')" json:"role"`
	FullName       string    `gorm:"not null" json:"full_name"`
	FailedAttempts int       `gorm:"not null;default:0;check:chk_users_failed_attempts,failed_attempts >= 0" json:"failed_attempts"`
	IsLocked       bool      `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Area struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Template is a named field schema owned by an area. Schema is stored as a
// JSON array and never changes after creation.
type Template struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"not null" json:"name"`
	Schema      form.Schema `gorm:"serializer:json;type:jsonb;not null" json:"schema"`
	CreatedByID uint        `gorm:"not null;index" json:"created_by"`
	CreatedBy   User        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	AreaID      uint        `gorm:"not null;index" json:"area_id"`
	Area        Area        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Submission struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID uint      `gorm:"not null;index" json:"template_id"`
	Template   Template  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Payload    JSONB     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"not null;size:64" json:"action"`
	Metadata  JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Session is the server half of a login. It carries the per-session form
// state: the attached center and any captured locations.
type Session struct {
	JTI            string           `gorm:"primaryKey;size:64" json:"jti"`
	UserID         uint             `gorm:"index;not null" json:"user_id"`
	AttachedCenter *string          `json:"attached_center,omitempty"`
	GeoCaptures    form.GeoCaptures `gorm:"serializer:json;type:jsonb" json:"geo_captures,omitempty"`
	ExpiresAt      time.Time        `gorm:"not null" json:"expires_at"`
	LastSeenAt     time.Time        `gorm:"not null" json:"last_seen_at"`
	RevokedAt      *time.Time       `json:"revoked_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Center is one row of the reference dataset of educational centers.
type Center struct {
	ID      uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Code    *string           `gorm:"uniqueIndex;size:32" json:"code,omitempty"`
	Name    string            `gorm:"uniqueIndex;not null" json:"name"`
	Columns map[string]string `gorm:"serializer:json;type:jsonb" json:"columns"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&User{}, &Area{}, &Template{}, &Submission{}, &AuditLog{}, &Session{}, &Center{}}
}
