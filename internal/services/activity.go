package services

import (
	"context"
	"fmt"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"go.uber.org/zap"
)

// ActivityLogService records the complaint timeline
type ActivityLogService struct {
	store  store.ActivityStore
	logger *zap.SugaredLogger
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(s store.ActivityStore, logger *zap.SugaredLogger) *ActivityLogService {
	return &ActivityLogService{store: s, logger: logger}
}

// Log records a lifecycle action. Failures are logged and returned.
func (s *ActivityLogService) Log(ctx context.Context, entry *models.ActivityLog) error {
	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.Errorw("Failed to log activity",
			"complaint_id", entry.ComplaintID,
			"type", entry.ActivityType,
			"error", err,
		)
		return fmt.Errorf("append activity: %w", err)
	}

	s.logger.Debugw("Activity logged",
		"complaint_id", entry.ComplaintID,
		"actor", entry.Actor,
		"type", entry.ActivityType,
	)
	return nil
}

// FetchByComplaint returns the newest entries for one complaint
func (s *ActivityLogService) FetchByComplaint(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	return s.store.ListByComplaint(ctx, complaintID, limit)
}

// FetchRecent returns recent activity across all complaints
func (s *ActivityLogService) FetchRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.store.ListRecent(ctx, limit)
}
