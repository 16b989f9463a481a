package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the capability level of a ledger user.
type Role string

const (
	RoleMember   Role = "member"
	RoleApprover Role = "approver"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)
)

// Actor is the identity a ledger operation runs as.
type Actor interface {
	ActorID() uuid.UUID
	ActorName() string
	IsApprover() bool
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	DisplayName  string    `gorm:"type:varchar(100);not null" json:"display_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

func (u *User) Validate() error {
	if !usernameRegex.MatchString(u.Username) {
		return errors.New("username must be 3-64 letters, digits, dots, dashes or underscores")
	}

	if u.DisplayName == "" {
		return errors.New("display name is required")
	}

	if !u.Role.Valid() {
		return fmt.Errorf("invalid role: %s", u.Role)
	}

	return nil
}

func (u *User) ActorID() uuid.UUID {
	return u.ID
}

func (u *User) ActorName() string {
	return u.DisplayName
}

func (u *User) IsApprover() bool {
	return u.Role == RoleApprover
}

func (u *User) TableName() string {
	return "users"
}

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleApprover
}

// TokenActor is an Actor rebuilt from verified access-token claims.
type TokenActor struct {
	ID       uuid.UUID
	Name     string
	Approver bool
}

func (a TokenActor) ActorID() uuid.UUID {
	return a.ID
}

func (a TokenActor) ActorName() string {
	return a.Name
}

func (a TokenActor) IsApprover() bool {
	return a.Approver
}
