package database

import (
	"context"
	"fmt"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
)

// DepartmentRepository stores the department directory in PostgreSQL
type DepartmentRepository struct {
	db DB
}

// NewDepartmentRepository creates a department repository
func NewDepartmentRepository(db DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

var _ store.DepartmentStore = (*DepartmentRepository)(nil)

// Create inserts a department
func (r *DepartmentRepository) Create(ctx context.Context, d *models.Department) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO departments (name, description) VALUES ($1, $2) RETURNING department_id`,
		d.Name, d.Description,
	).Scan(&d.ID)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

// List returns all departments by name
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	rows, err := r.db.Query(ctx, `SELECT department_id, name, description FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	depts := make([]models.Department, 0)
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}
