package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role in the organisation
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleGeneralManager Role = "general_manager"
	RoleAreaManager    Role = "area_manager"
	RoleEmployee       Role = "employee"
)

// AllRoles lists every role in decreasing order of privilege
var AllRoles = []Role{RoleAdmin, RoleGeneralManager, RoleAreaManager, RoleEmployee}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanManage reports whether the role may edit employees, targets, rules and tasks
func CanManage(role Role) bool {
	switch role {
	case RoleAdmin, RoleGeneralManager, RoleAreaManager:
		return true
	default:
		return false
	}
}

// CanManageUsers reports whether the role may approve users and change roles
func CanManageUsers(role Role) bool {
	return role == RoleAdmin || role == RoleGeneralManager
}

// CanResetData reports whether the role may bulk-delete sales data
func CanResetData(role Role) bool {
	return role == RoleAdmin
}

// UserStatus represents the approval state of a user account
type UserStatus string

const (
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "active"
)

// UserProfile represents an application user
type UserProfile struct {
	ID           string     `json:"id" db:"id" validate:"required"`
	UID          string     `json:"uid,omitempty" db:"uid"`
	Name         string     `json:"name" db:"name" validate:"required,max=255"`
	Email        string     `json:"email" db:"email" validate:"required,email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role" validate:"required,oneof=admin general_manager area_manager employee"`
	Status       UserStatus `json:"status" db:"status" validate:"required,oneof=pending active"`
	Store        string     `json:"store,omitempty" db:"store"`
	EmployeeID   *string    `json:"employee_id,omitempty" db:"employee_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NewUserProfile creates a pending employee profile
func NewUserProfile(name, email string) *UserProfile {
	now := time.Now()
	id := uuid.New().String()
	return &UserProfile{
		ID:        id,
		UID:       id,
		Name:      SanitizeString(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      RoleEmployee,
		Status:    UserStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FallbackProfile builds the least-privileged profile for an identity with no stored profile
func FallbackProfile(uid, email, displayName string) *UserProfile {
	name := displayName
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = "User"
		}
	}
	return &UserProfile{
		ID:     uid,
		UID:    uid,
		Name:   name,
		Email:  email,
		Role:   RoleEmployee,
		Status: UserStatusActive,
	}
}

// Validate validates the user profile
func (u *UserProfile) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	if err := ValidateRequired(u.Name, "name"); err != nil {
		return err
	}
	if !IsValidEmail(u.Email) {
		return fmt.Errorf("invalid email: %s", u.Email)
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	if u.Status != UserStatusPending && u.Status != UserStatusActive {
		return fmt.Errorf("invalid status: %s", u.Status)
	}
	return nil
}

// IsPending reports whether the account still awaits approval
func (u *UserProfile) IsPending() bool {
	return u.Status == UserStatusPending
}

// Approve activates the account
func (u *UserProfile) Approve() {
	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
}

// BusinessRule is a free-text rule that steers generated coaching text
type BusinessRule struct {
	ID        string    `json:"id" db:"id" validate:"required,uuid"`
	Rule      string    `json:"rule" db:"rule" validate:"required,min=1,max=2000"`
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewBusinessRule creates a business rule with generated ID
func NewBusinessRule(rule, createdBy string) *BusinessRule {
	return &BusinessRule{
		ID:        uuid.New().String(),
		Rule:      strings.TrimSpace(rule),
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// Validate validates the business rule
func (r *BusinessRule) Validate() error {
	return ValidateStringLength(r.Rule, "rule", 1, 2000)
}

// TaskStatus represents the state of a task sent to an employee
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Task is a message with an action item sent by a manager to an employee
type Task struct {
	ID          string     `json:"id" db:"id" validate:"required,uuid"`
	EmployeeID  string     `json:"employee_id" db:"employee_id" validate:"required"`
	Title       string     `json:"title" db:"title" validate:"required,max=255"`
	Message     string     `json:"message" db:"message" validate:"max=4000"`
	SenderID    string     `json:"sender_id" db:"sender_id"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// NewTask creates an open task
func NewTask(employeeID, senderID, title, message string) *Task {
	return &Task{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		Title:      strings.TrimSpace(title),
		Message:    strings.TrimSpace(message),
		SenderID:   senderID,
		Status:     TaskStatusOpen,
		CreatedAt:  time.Now(),
	}
}

// Validate validates the task
func (t *Task) Validate() error {
	if t.EmployeeID == "" {
		return fmt.Errorf("employee ID is required")
	}
	return ValidateStringLength(t.Title, "title", 1, 255)
}

// Complete marks the task as done
func (t *Task) Complete() {
	now := time.Now()
	t.Status = TaskStatusDone
	t.CompletedAt = &now
}
