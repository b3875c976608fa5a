// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema created by database.Migrate.
package models

import (
	"strings"
	"time"
)

// Role is the access role carried by users and tokens
type Role string

const (
	RoleCitizen    Role = "CITIZEN"
	RoleAdmin      Role = "ADMIN"
	RoleDepartment Role = "DEPARTMENT"
)

// ParseRole converts a role name (any case) into a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleCitizen:
		return RoleCitizen, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDepartment:
		return RoleDepartment, true
	}
	return "", false
}

// Principal is the verified identity attached to a request.
// It is rebuilt from a token on every request and never persisted.
type Principal struct {
	Subject     string `json:"subject"` // email
	UserID      int64  `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department,omitempty"`
}

// Status is a complaint lifecycle state
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusAssigned  Status = "ASSIGNED"
	StatusResolved  Status = "RESOLVED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus converts a status name (any case) into a Status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusSubmitted, StatusAssigned, StatusResolved, StatusCompleted:
		return st, true
	}
	return "", false
}

// Priority values accepted on submission
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// NormalizePriority maps free-form input onto LOW/MEDIUM/HIGH, defaulting to MEDIUM.
func NormalizePriority(p string) string {
	switch up := strings.ToUpper(strings.TrimSpace(p)); up {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return up
	}
	return PriorityMedium
}

// User is a registered account
type User struct {
	ID           int64     `json:"id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"displayName" db:"full_name"`
	Role         Role      `json:"role" db:"role"`
	Department   string    `json:"department,omitempty" db:"department"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Principal returns the token view of the user.
func (u *User) Principal() Principal {
	return Principal{
		Subject:     u.Email,
		UserID:      u.ID,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		Department:  u.Department,
	}
}

// Department is an entry in the department directory
type Department struct {
	ID          int64  `json:"id" db:"department_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// Complaint is a citizen grievance and its lifecycle state.
// ImagePaths is stored as a comma-joined string; see EncodeImagePaths.
type Complaint struct {
	ID                 int64      `json:"complaintId" db:"complaint_id"`
	CitizenID          int64      `json:"citizenId" db:"citizen_id"`
	Title              string     `json:"title" db:"title"`
	Description        string     `json:"description" db:"description"`
	Category           string     `json:"category" db:"category"`
	Location           string     `json:"location,omitempty" db:"location"`
	Latitude           string     `json:"latitude,omitempty" db:"latitude"`
	Longitude          string     `json:"longitude,omitempty" db:"longitude"`
	Address            string     `json:"address,omitempty" db:"address"`
	Priority           string     `json:"priority" db:"priority"`
	ImagePaths         []string   `json:"images" db:"image_path"`
	Status             Status     `json:"status" db:"status"`
	AssignedDepartment *string    `json:"assignedDepartment,omitempty" db:"assigned_department"`
	AssignedOfficer    *string    `json:"assignedOfficer,omitempty" db:"assigned_officer"`
	ResolutionNote     *string    `json:"resolutionNote,omitempty" db:"resolution_note"`
	Feedback           *string    `json:"feedback,omitempty" db:"feedback"`
	Rating             *int       `json:"rating,omitempty" db:"rating"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// ImageSeparator joins stored attachment names. Names are never escaped.
const ImageSeparator = ","

// EncodeImagePaths joins attachment names into their stored form.
func EncodeImagePaths(paths []string) string {
	return strings.Join(paths, ImageSeparator)
}

// DecodeImagePaths splits the stored form back into an ordered list.
// An empty string decodes to nil.
func DecodeImagePaths(stored string) []string {
	if stored == "" {
		return nil
	}
	return strings.Split(stored, ImageSeparator)
}

// ComplaintInput carries the citizen-supplied complaint fields
type ComplaintInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Address     string `json:"address"`
	Priority    string `json:"priority"`
}

// ComplaintFilter narrows complaint listings. Zero values match everything.
// Department matches case-insensitively, as department-bound resolve does.
type ComplaintFilter struct {
	CitizenID  int64
	Department string
	Officer    string
	Status     Status
}

// Transition is the set of fields a lifecycle step writes.
// Nil pointers leave the stored value untouched.
type Transition struct {
	To             Status
	Department     *string
	Officer        *string
	ResolutionNote *string
	Feedback       *string
	Rating         *int
	ResolvedAt     *time.Time
	UpdatedAt      time.Time
}

// Apply writes the transition onto c in place. ResolvedAt is only set once.
func (t Transition) Apply(c *Complaint) {
	c.Status = t.To
	if t.Department != nil {
		c.AssignedDepartment = t.Department
	}
	if t.Officer != nil {
		c.AssignedOfficer = t.Officer
	}
	if t.ResolutionNote != nil {
		c.ResolutionNote = t.ResolutionNote
	}
	if t.Feedback != nil {
		c.Feedback = t.Feedback
	}
	if t.Rating != nil {
		c.Rating = t.Rating
	}
	if t.ResolvedAt != nil && c.ResolvedAt == nil {
		c.ResolvedAt = t.ResolvedAt
	}
	c.UpdatedAt = t.UpdatedAt
}

// Activity types recorded in the complaint timeline
const (
	ActivitySubmission = "submission"
	ActivityAssignment = "assignment"
	ActivityResolution = "resolution"
	ActivityFeedback   = "feedback"
)

// ActivityLog is one timeline entry for a complaint
type ActivityLog struct {
	ID                int64     `json:"id" db:"id"`
	ComplaintID       int64     `json:"complaint_id" db:"complaint_id"`
	ActivityType      string    `json:"activity_type" db:"activity_type"`
	ActionDescription string    `json:"action_description" db:"action_description"`
	Actor             string    `json:"actor" db:"actor"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// RegisterRequest is the request body for POST /auth/register
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token       string    `json:"token"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"displayName"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
