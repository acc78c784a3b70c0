package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComplaintCategory classifies a complaint
type ComplaintCategory string

const (
	CategoryMaintenance ComplaintCategory = "MAINTENANCE"
	CategoryCleanliness ComplaintCategory = "CLEANLINESS"
	CategorySecurity    ComplaintCategory = "SECURITY"
	CategoryFood        ComplaintCategory = "FOOD"
	CategoryFacilities  ComplaintCategory = "FACILITIES"
	CategoryOther       ComplaintCategory = "OTHER"
)

// Categories lists every valid category
var Categories = []ComplaintCategory{
	CategoryMaintenance, CategoryCleanliness, CategorySecurity,
	CategoryFood, CategoryFacilities, CategoryOther,
}

// ComplaintPriority orders complaints for triage
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "LOW"
	PriorityMedium ComplaintPriority = "MEDIUM"
	PriorityHigh   ComplaintPriority = "HIGH"
	PriorityUrgent ComplaintPriority = "URGENT"
)

// Priorities lists every valid priority
var Priorities = []ComplaintPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ComplaintStatus is the lifecycle state of a complaint
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusRejected   ComplaintStatus = "REJECTED"
)

// Statuses lists every valid status
var Statuses = []ComplaintStatus{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// statusTransitions lists the allowed targets of each status, self excluded
var statusTransitions = map[ComplaintStatus][]ComplaintStatus{
	StatusPending:    {StatusInProgress, StatusResolved, StatusRejected},
	StatusInProgress: {StatusPending, StatusResolved, StatusRejected},
	StatusResolved:   {},
	StatusRejected:   {},
}

func normalizeEnum(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}

// ParseCategory parses a category case-insensitively
func ParseCategory(s string) (ComplaintCategory, error) {
	c := ComplaintCategory(normalizeEnum(s))
	for _, v := range Categories {
		if v == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// ParsePriority parses a priority case-insensitively
func ParsePriority(s string) (ComplaintPriority, error) {
	p := ComplaintPriority(normalizeEnum(s))
	for _, v := range Priorities {
		if v == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority: %q", s)
}

// ParseStatus parses a status case-insensitively; "in-progress" and "in_progress" are equivalent
func ParseStatus(s string) (ComplaintStatus, error) {
	st := ComplaintStatus(normalizeEnum(s))
	if _, ok := statusTransitions[st]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// CanTransitionTo reports whether a complaint in status s may move to next.
// Staying in the same status is always allowed.
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no other status can follow s
func (s ComplaintStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// Complaint is a student-submitted issue tracked through triage
type Complaint struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	Title           string            `json:"title" db:"title"`
	Description     string            `json:"description" db:"description"`
	Category        ComplaintCategory `json:"category" db:"category"`
	Priority        ComplaintPriority `json:"priority" db:"priority"`
	Status          ComplaintStatus   `json:"status" db:"status"`
	StudentID       uuid.UUID         `json:"studentId" db:"student_id"`
	StudentName     string            `json:"studentName" db:"student_name"`
	Room            string            `json:"room,omitempty" db:"room"`
	Block           string            `json:"block,omitempty" db:"block"`
	AssignedAdminID *uuid.UUID        `json:"assignedAdminId,omitempty" db:"assigned_admin_id"`
	AdminResponse   *string           `json:"adminResponse,omitempty" db:"admin_response"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// TableName returns the table name for the Complaint model
func (Complaint) TableName() string {
	return "complaints"
}

// NewComplaint creates a PENDING complaint filed by student
func NewComplaint(student *User, title, description string, category ComplaintCategory, priority ComplaintPriority) *Complaint {
	now := time.Now().UTC()
	return &Complaint{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      StatusPending,
		StudentID:   student.ID,
		StudentName: student.Name,
		Room:        student.Room,
		Block:       student.Block,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus moves the complaint to next, stamping ResolvedAt on entry into RESOLVED.
// It returns false when the transition is not allowed.
func (c *Complaint) SetStatus(next ComplaintStatus, now time.Time) bool {
	if !c.Status.CanTransitionTo(next) {
		return false
	}
	if next == StatusResolved && c.Status != StatusResolved {
		resolved := now
		c.ResolvedAt = &resolved
	}
	c.Status = next
	return true
}

// IsOwnedBy reports whether user filed the complaint
func (c *Complaint) IsOwnedBy(user *User) bool {
	return user != nil && c.StudentID == user.ID
}

// ComplaintFilter narrows complaint listings. Zero values match everything.
type ComplaintFilter struct {
	Status          *ComplaintStatus
	Category        *ComplaintCategory
	Priority        *ComplaintPriority
	Block           string
	StudentID       *uuid.UUID
	AssignedAdminID *uuid.UUID
	Search          string
	Limit           int
	Offset          int
}

// ComplaintStats aggregates complaint counts
type ComplaintStats struct {
	Total      int64                       `json:"total"`
	Pending    int64                       `json:"pending"`
	InProgress int64                       `json:"inProgress"`
	Resolved   int64                       `json:"resolved"`
	Rejected   int64                       `json:"rejected"`
	ByCategory map[ComplaintCategory]int64 `json:"byCategory"`
	ByPriority map[ComplaintPriority]int64 `json:"byPriority"`
}
