// Package services contains business logic layers.
// Services are called by handlers and talk to the store ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"go.uber.org/zap"
)

// MaxRating and MinRating bound citizen feedback ratings
const (
	MinRating = 1
	MaxRating = 5
)

// ComplaintService runs the complaint lifecycle:
//
//	SUBMITTED -> ASSIGNED -> RESOLVED -> COMPLETED
//
// ASSIGNED may be re-entered by reassignment; no other state is. Every
// transition checks the status precondition before the actor's standing,
// then commits with a conditional update on the status it observed.
type ComplaintService struct {
	complaints store.ComplaintStore
	activity   *ActivityLogService
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewComplaintService creates a new complaint service. activity may be nil.
func NewComplaintService(complaints store.ComplaintStore, activity *ActivityLogService, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		activity:   activity,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source
func (s *ComplaintService) SetClock(now func() time.Time) {
	s.now = now
}

// Create files a new complaint for a citizen. imagePaths are names of
// attachments already written to upload storage.
func (s *ComplaintService) Create(ctx context.Context, citizen models.Principal, in models.ComplaintInput, imagePaths []string) (*models.Complaint, error) {
	if citizen.Role != models.RoleCitizen {
		return nil, fmt.Errorf("%w: only citizens file complaints", ErrAccessDenied)
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case len(in.Title) > 100:
		return nil, fmt.Errorf("%w: title exceeds 100 characters", ErrInvalidInput)
	case in.Description == "":
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	case in.Category == "":
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	for _, name := range imagePaths {
		if name == "" || strings.Contains(name, models.ImageSeparator) {
			return nil, fmt.Errorf("%w: attachment name %q", ErrInvalidInput, name)
		}
	}

	now := s.now()
	c := &models.Complaint{
		CitizenID:   citizen.UserID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Location:    strings.TrimSpace(in.Location),
		Latitude:    strings.TrimSpace(in.Latitude),
		Longitude:   strings.TrimSpace(in.Longitude),
		Address:     strings.TrimSpace(in.Address),
		Priority:    models.NormalizePriority(in.Priority),
		ImagePaths:  imagePaths,
		Status:      models.StatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	s.logger.Infow("Complaint submitted",
		"id", c.ID,
		"citizen_id", c.CitizenID,
		"category", c.Category,
		"images", len(imagePaths),
	)
	s.record(ctx, c.ID, models.ActivitySubmission, "Complaint submitted", citizen)
	return c, nil
}

// Assign routes a complaint to a department officer. Allowed from SUBMITTED
// and ASSIGNED; reassignment overwrites the previous department and officer.
func (s *ComplaintService) Assign(ctx context.Context, admin models.Principal, id int64, department, officer string) (*models.Complaint, error) {
	department = strings.TrimSpace(department)
	officer = strings.TrimSpace(officer)
	if department == "" {
		return nil, fmt.Errorf("%w: department is required", ErrInvalidInput)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusSubmitted && current.Status != models.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot assign a %s complaint", ErrInvalidTransition, current.Status)
	}
	if admin.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only administrators assign complaints", ErrAccessDenied)
	}

	updated, err := s.commit(ctx, id, current.Status, models.Transition{
		To:         models.StatusAssigned,
		Department: &department,
		Officer:    &officer,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint assigned",
		"id", id,
		"from", current.Status,
		"department", department,
		"officer", officer,
	)
	desc := "Assigned to " + department
	if officer != "" {
		desc += " - " + officer
	}
	s.record(ctx, id, models.ActivityAssignment, desc, admin)
	return updated, nil
}

// Resolve closes out an assigned complaint. A principal bound to a
// department may only resolve complaints assigned to that department.
func (s *ComplaintService) Resolve(ctx context.Context, dept models.Principal, id int64, note string) (*models.Complaint, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot resolve a %s complaint", ErrInvalidTransition, current.Status)
	}
	if dept.Role != models.RoleDepartment {
		return nil, fmt.Errorf("%w: only departments resolve complaints", ErrAccessDenied)
	}
	if dept.Department != "" && (current.AssignedDepartment == nil || !strings.EqualFold(*current.AssignedDepartment, dept.Department)) {
		return nil, fmt.Errorf("%w: complaint is assigned to another department", ErrAccessDenied)
	}

	now := s.now()
	t := models.Transition{
		To:         models.StatusResolved,
		ResolvedAt: &now,
		UpdatedAt:  now,
	}
	if note = strings.TrimSpace(note); note != "" {
		t.ResolutionNote = &note
	}

	updated, err := s.commit(ctx, id, current.Status, t)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint resolved", "id", id, "department", dept.Department, "has_note", note != "")
	s.record(ctx, id, models.ActivityResolution, "Resolved by "+departmentLabel(dept), dept)
	return updated, nil
}

// SubmitFeedback records the owner's rating of a resolved complaint and
// completes it.
func (s *ComplaintService) SubmitFeedback(ctx context.Context, citizen models.Principal, id int64, feedback string, rating int) (*models.Complaint, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, MinRating, MaxRating)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusResolved {
		return nil, fmt.Errorf("%w: complaint is %s, not resolved", ErrInvalidTransition, current.Status)
	}
	if citizen.Role != models.RoleCitizen || current.CitizenID != citizen.UserID {
		return nil, fmt.Errorf("%w: complaint belongs to another citizen", ErrAccessDenied)
	}

	feedback = strings.TrimSpace(feedback)
	updated, err := s.commit(ctx, id, current.Status, models.Transition{
		To:        models.StatusCompleted,
		Feedback:  &feedback,
		Rating:    &rating,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint feedback received", "id", id, "rating", rating)
	s.record(ctx, id, models.ActivityFeedback, fmt.Sprintf("Rated %d/%d", rating, MaxRating), citizen)
	return updated, nil
}

// View returns one complaint. Citizens see only their own; administrators
// and departments see any.
func (s *ComplaintService) View(ctx context.Context, p models.Principal, id int64) (*models.Complaint, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == models.RoleAdmin || p.Role == models.RoleDepartment {
		return c, nil
	}
	if p.Role != models.RoleCitizen || c.CitizenID != p.UserID {
		return nil, fmt.Errorf("%w: complaint belongs to another citizen", ErrAccessDenied)
	}
	return c, nil
}

// Timeline returns the activity entries of a complaint the principal may view
func (s *ComplaintService) Timeline(ctx context.Context, p models.Principal, id int64) ([]models.ActivityLog, error) {
	if _, err := s.View(ctx, p, id); err != nil {
		return nil, err
	}
	if s.activity == nil {
		return []models.ActivityLog{}, nil
	}
	return s.activity.FetchByComplaint(ctx, id, 50)
}

// ListMine returns the citizen's own complaints
func (s *ComplaintService) ListMine(ctx context.Context, citizen models.Principal) ([]models.Complaint, error) {
	if citizen.Role != models.RoleCitizen {
		return nil, fmt.Errorf("%w: only citizens own complaints", ErrAccessDenied)
	}
	return s.list(ctx, models.ComplaintFilter{CitizenID: citizen.UserID})
}

// ListAll returns every complaint matching the filter
func (s *ComplaintService) ListAll(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	return s.list(ctx, filter)
}

// ListForDepartment returns complaints assigned to the principal's department
func (s *ComplaintService) ListForDepartment(ctx context.Context, dept models.Principal, status models.Status) ([]models.Complaint, error) {
	if dept.Role != models.RoleDepartment {
		return nil, fmt.Errorf("%w: not a department account", ErrAccessDenied)
	}
	if dept.Department == "" {
		return nil, fmt.Errorf("%w: account is not bound to a department", ErrInvalidInput)
	}
	return s.list(ctx, models.ComplaintFilter{Department: dept.Department, Status: status})
}

func (s *ComplaintService) list(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*models.Complaint, error) {
	c, err := s.complaints.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: complaint %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load complaint %d: %w", id, err)
	}
	return c, nil
}

// commit applies t if the complaint is still in the status the caller
// validated against. Losing a race surfaces as ErrInvalidTransition.
func (s *ComplaintService) commit(ctx context.Context, id int64, expected models.Status, t models.Transition) (*models.Complaint, error) {
	updated, err := s.complaints.ApplyTransition(ctx, id, expected, t)
	switch {
	case errors.Is(err, store.ErrConflict):
		s.logger.Infow("Concurrent transition rejected", "id", id, "expected", expected, "to", t.To)
		return nil, fmt.Errorf("%w: complaint is no longer %s", ErrInvalidTransition, expected)
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: complaint %d", ErrNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("update complaint %d: %w", id, err)
	}
	return updated, nil
}

func (s *ComplaintService) record(ctx context.Context, id int64, activityType, desc string, actor models.Principal) {
	if s.activity == nil {
		return
	}
	_ = s.activity.Log(ctx, &models.ActivityLog{
		ComplaintID:       id,
		ActivityType:      activityType,
		ActionDescription: desc,
		Actor:             actorLabel(actor),
	})
}

func actorLabel(p models.Principal) string {
	if p.DisplayName != "" {
		return fmt.Sprintf("%s (%s)", p.DisplayName, p.Role)
	}
	return string(p.Role)
}

func departmentLabel(p models.Principal) string {
	if p.Department != "" {
		return p.Department
	}
	return actorLabel(p)
}
