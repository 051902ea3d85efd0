package db_models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/pkg/utils"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"

	DefaultPhoto = "default.jpg"

	resetTokenTTL = 10 * time.Minute
)

type User struct {
	BaseModel
	Name                 string     `gorm:"not null" json:"name" validate:"required"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Photo                string     `json:"photo"`
	Role                 Role       `gorm:"not null" json:"role" validate:"required,oneof=user guide lead-guide admin"`
	Password             string     `gorm:"not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `gorm:"index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"index" json:"-"`
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	u.Active = true
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	return utils.ValidateStruct(u)
}

// PrincipalID and PrincipalRole let the auth middleware carry a user without knowing the type.
func (u *User) PrincipalID() uuid.UUID { return u.ID }

func (u *User) PrincipalRole() string { return string(u.Role) }

// ChangedPasswordAfter reports whether the password changed after a token issued at iat.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// SetPassword stores the hash and backdates the change by one second so a token
// signed in the same instant stays valid.
func (u *User) SetPassword(hash string, now time.Time) {
	u.Password = hash
	changed := now.Add(-time.Second)
	u.PasswordChangedAt = &changed
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

// CreatePasswordResetToken stores the token hash with a ten minute expiry and returns the raw token.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	raw, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}
	hashed := utils.HashToken(raw)
	expires := now.Add(resetTokenTTL)
	u.PasswordResetToken = &hashed
	u.PasswordResetExpires = &expires
	return raw, nil
}

func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

func (u *User) ResetTokenValid(now time.Time) bool {
	return u.PasswordResetExpires != nil && now.Before(*u.PasswordResetExpires)
}

// PublicProfile is the shape other entities embed when they reference a user.
type PublicProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Photo string    `json:"photo"`
	Role  Role      `json:"role,omitempty"`
}

func (PublicProfile) TableName() string { return "users" }
