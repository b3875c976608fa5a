package database

import (
	"context"
	"fmt"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
)

// ActivityRepository stores complaint timeline entries in PostgreSQL
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates an activity repository
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var _ store.ActivityStore = (*ActivityRepository)(nil)

// Append records one entry
func (r *ActivityRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (complaint_id, activity_type, action_description, actor)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ComplaintID,
		entry.ActivityType,
		entry.ActionDescription,
		entry.Actor,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// ListByComplaint returns the newest entries for one complaint
func (r *ActivityRepository) ListByComplaint(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, complaint_id, activity_type, action_description, actor, created_at
		FROM activity_logs
		WHERE complaint_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, complaintID, limit)
}

// ListRecent returns the newest entries across all complaints
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, complaint_id, activity_type, action_description, actor, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

func (r *ActivityRepository) list(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var log models.ActivityLog
		if err := rows.Scan(&log.ID, &log.ComplaintID, &log.ActivityType,
			&log.ActionDescription, &log.Actor, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
