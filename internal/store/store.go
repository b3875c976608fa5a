// Package store declares the persistence ports used by the services.
// internal/database implements them on PostgreSQL and internal/store/memory
// implements them in process for tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/civicpulse/grievance-server/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update finds the record
	// in a different state than expected.
	ErrConflict = errors.New("record state changed")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// ComplaintStore keeps complaint records
type ComplaintStore interface {
	// Create inserts c and sets its ID.
	Create(ctx context.Context, c *models.Complaint) error
	Get(ctx context.Context, id int64) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	// ApplyTransition updates complaint id only while its status still
	// equals expected, returning the updated record or ErrConflict.
	ApplyTransition(ctx context.Context, id int64, expected models.Status, t models.Transition) (*models.Complaint, error)
}

// UserStore keeps registered accounts
type UserStore interface {
	// Create inserts u and sets its ID. Returns ErrDuplicate on a taken email.
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// DepartmentStore keeps the department directory
type DepartmentStore interface {
	Create(ctx context.Context, d *models.Department) error
	List(ctx context.Context) ([]models.Department, error)
}

// ActivityStore keeps the complaint timeline
type ActivityStore interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	ListByComplaint(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error)
	ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}
