package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"github.com/jackc/pgx/v5"
)

const complaintColumns = `complaint_id, citizen_id, title, description, category, image_path,
	location, latitude, longitude, address, status, priority,
	assigned_department, assigned_officer, resolution_note, feedback, rating,
	created_at, updated_at, resolved_at`

// ComplaintRepository stores complaints in PostgreSQL
type ComplaintRepository struct {
	db DB
}

// NewComplaintRepository creates a complaint repository
func NewComplaintRepository(db DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

var _ store.ComplaintStore = (*ComplaintRepository)(nil)

// Create inserts a new complaint and sets its id
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (citizen_id, title, description, category, image_path,
			location, latitude, longitude, address, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING complaint_id
	`

	err := r.db.QueryRow(ctx, query,
		c.CitizenID, c.Title, c.Description, c.Category,
		models.EncodeImagePaths(c.ImagePaths),
		c.Location, c.Latitude, c.Longitude, c.Address,
		c.Status, c.Priority, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

// Get loads one complaint by id
func (r *ComplaintRepository) Get(ctx context.Context, id int64) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_id = $1`

	c, err := scanComplaint(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select complaint %d: %w", id, err)
	}
	return c, nil
}

// List returns complaints matching the filter, newest first
func (r *ComplaintRepository) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.CitizenID != 0 {
		add("citizen_id = $%d", f.CitizenID)
	}
	if f.Department != "" {
		add("LOWER(assigned_department) = LOWER($%d)", f.Department)
	}
	if f.Officer != "" {
		add("assigned_officer = $%d", f.Officer)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY complaint_id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// ApplyTransition writes t only while the row still has the expected status.
// resolved_at keeps its first value.
func (r *ComplaintRepository) ApplyTransition(ctx context.Context, id int64, expected models.Status, t models.Transition) (*models.Complaint, error) {
	query := `
		UPDATE complaints SET
			status              = $3,
			assigned_department = COALESCE($4, assigned_department),
			assigned_officer    = COALESCE($5, assigned_officer),
			resolution_note     = COALESCE($6, resolution_note),
			feedback            = COALESCE($7, feedback),
			rating              = COALESCE($8, rating),
			resolved_at         = COALESCE(resolved_at, $9),
			updated_at          = $10
		WHERE complaint_id = $1 AND status = $2
		RETURNING ` + complaintColumns

	c, err := scanComplaint(r.db.QueryRow(ctx, query,
		id, string(expected), string(t.To),
		t.Department, t.Officer, t.ResolutionNote,
		t.Feedback, t.Rating, t.ResolvedAt, t.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update complaint %d: %w", id, err)
	}
	return c, nil
}

// missOrConflict explains an UPDATE that touched no row
func (r *ComplaintRepository) missOrConflict(ctx context.Context, id int64) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM complaints WHERE complaint_id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check complaint %d: %w", id, err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var (
		c      models.Complaint
		images string
		status string
	)
	err := row.Scan(&c.ID, &c.CitizenID, &c.Title, &c.Description, &c.Category, &images,
		&c.Location, &c.Latitude, &c.Longitude, &c.Address, &status, &c.Priority,
		&c.AssignedDepartment, &c.AssignedOfficer, &c.ResolutionNote, &c.Feedback, &c.Rating,
		&c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt)
	if err != nil {
		return nil, err
	}
	c.ImagePaths = models.DecodeImagePaths(images)
	c.Status = models.Status(status)
	return &c, nil
}
