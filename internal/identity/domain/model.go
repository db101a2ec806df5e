package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is the server-trusted user record. Authorization decisions derive
// role, tenant and superAdmin status from this record, never from
// caller-supplied token claims.
type User struct {
	UID            string    `gorm:"primaryKey" json:"uid"`
	Email          string    `gorm:"type:text;not null" json:"email"`
	Phone          string    `gorm:"type:text" json:"phone"`
	DocumentNumber string    `gorm:"type:text;column:document_number" json:"document_number"`
	Role           string    `gorm:"type:text;not null" json:"role"`
	TenantID       string    `gorm:"type:text;not null;index" json:"tenant_id"`
	IsSuperAdmin   bool      `gorm:"column:is_super_admin;not null" json:"is_super_admin"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleSuperAdmin = "superadmin"
)

// NormalizeRole trims and lowercases a raw role string.
func NormalizeRole(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizedRole returns the user's role in canonical form. A record flagged
// super admin resolves to superadmin regardless of the stored role string.
func (u *User) NormalizedRole() string {
	if u.IsSuperAdmin {
		return RoleSuperAdmin
	}
	return NormalizeRole(u.Role)
}

var (
	ErrUserNotFound = errors.New("user_not_found")
)

type Repository interface {
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*User, error)
}

// Service resolves trusted user records.
type Service interface {
	Resolve(ctx context.Context, uid string) (*User, error)
}
