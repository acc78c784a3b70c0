package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of user roles
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

// Roles lists every valid role
var Roles = []Role{RoleAdmin, RoleStudent, RoleParent}

// ParseRole parses a role case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleStudent, RoleParent:
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Authority returns the granted authority string for the role, e.g. ROLE_ADMIN
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// Relationship describes how a parent account relates to its student
type Relationship string

const (
	RelationshipFather   Relationship = "FATHER"
	RelationshipMother   Relationship = "MOTHER"
	RelationshipGuardian Relationship = "GUARDIAN"
)

// ParseRelationship parses a relationship case-insensitively
func ParseRelationship(s string) (Relationship, error) {
	r := Relationship(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RelationshipFather, RelationshipMother, RelationshipGuardian:
		return r, nil
	}
	return "", fmt.Errorf("unknown relationship: %q", s)
}

// LocalSubjectPrefix marks subjects of accounts that registered with email and password
// and have not been linked to an identity provider account yet
const LocalSubjectPrefix = "local:"

// User is a directory entry. Role-specific fields are optional and only
// populated for the role that uses them.
type User struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Subject      string       `json:"-" db:"subject"`
	Email        string       `json:"email" db:"email"`
	Name         string       `json:"name" db:"name"`
	Role         Role         `json:"role" db:"role"`
	Active       bool         `json:"active" db:"active"`
	Mobile       string       `json:"mobile,omitempty" db:"mobile"`
	Room         string       `json:"room,omitempty" db:"room"`
	Block        string       `json:"block,omitempty" db:"block"`
	StudentID    string       `json:"studentId,omitempty" db:"student_id"`
	ParentID     *uuid.UUID   `json:"parentId,omitempty" db:"parent_id"`
	Relationship Relationship `json:"relationship,omitempty" db:"relationship"`
	PasswordHash string       `json:"-" db:"password_hash"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user with a fresh ID. Email is normalized to lower case.
func NewUser(subject, email, name string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Subject:   subject,
		Email:     NormalizeEmail(email),
		Name:      name,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsLocal reports whether the user's subject was generated locally rather than
// issued by the identity provider
func (u *User) IsLocal() bool {
	return strings.HasPrefix(u.Subject, LocalSubjectPrefix)
}

// IsParentOf reports whether u is the linked parent of student
func (u *User) IsParentOf(student *User) bool {
	return u.Role == RoleParent && student != nil && student.ParentID != nil && *student.ParentID == u.ID
}
