package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Photo        string    `json:"photo,omitempty"`
	Role         Role      `json:"role" gorm:"type:varchar(16);default:'user';not null"`
	PasswordHash string    `json:"-" gorm:"not null"`

	// Set whenever the credential changes; tokens issued before this
	// instant are rejected on verification.
	PasswordChangedAt *time.Time `json:"-"`

	// Reset tokens are stored only as a sha256 hex digest plus an expiry.
	PasswordResetToken   string     `json:"-" gorm:"index"`
	PasswordResetExpires *time.Time `json:"-"`

	// Deactivated accounts are hidden from listings and fail session
	// verification; rows are never hard-deleted through the me-routes.
	Active bool `json:"-" gorm:"default:true;not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return BadRequest("a user must have a name")
	}
	if !strings.Contains(u.Email, "@") {
		return BadRequest("please provide a valid email")
	}
	if !u.Role.IsValid() {
		return BadRequest("invalid role %q", u.Role)
	}
	return nil
}

// CredentialChangedAfter reports whether the password changed after the
// given token issuance time. JWT iat claims have second precision, so the
// comparison is done on truncated timestamps.
func (u *User) CredentialChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}
