package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"go.uber.org/zap"
)

// DepartmentCache is a read-through cache for the directory
type DepartmentCache interface {
	Get(ctx context.Context) ([]models.Department, bool, error)
	Set(ctx context.Context, depts []models.Department) error
	Invalidate(ctx context.Context) error
}

// DepartmentService serves the department directory
type DepartmentService struct {
	departments store.DepartmentStore
	cache       DepartmentCache
	logger      *zap.SugaredLogger
}

// NewDepartmentService creates a department service. cache may be nil.
func NewDepartmentService(departments store.DepartmentStore, cache DepartmentCache, logger *zap.SugaredLogger) *DepartmentService {
	return &DepartmentService{departments: departments, cache: cache, logger: logger}
}

// List returns all departments, from cache when possible
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	if s.cache != nil {
		depts, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warnw("Department cache read failed", "error", err)
		} else if ok {
			return depts, nil
		}
	}

	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, depts); err != nil {
			s.logger.Warnw("Department cache write failed", "error", err)
		}
	}
	return depts, nil
}

// Create adds a department and drops the cached directory
func (s *DepartmentService) Create(ctx context.Context, name, description string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrInvalidInput)
	}

	d := &models.Department{Name: name, Description: strings.TrimSpace(description)}
	if err := s.departments.Create(ctx, d); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: department %q already exists", ErrInvalidInput, name)
		}
		return nil, fmt.Errorf("create department: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warnw("Department cache invalidate failed", "error", err)
		}
	}
	s.logger.Infow("Department created", "id", d.ID, "name", d.Name)
	return d, nil
}
