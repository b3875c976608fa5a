package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index clash
const uniqueViolation = "23505"

// UserRepository stores accounts in PostgreSQL
type UserRepository struct {
	db DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ store.UserStore = (*UserRepository)(nil)

// Create inserts a user and sets its id and creation time
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, role, department)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		u.Email, u.PasswordHash, u.DisplayName, string(u.Role), u.Department,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail looks up a user by email, case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT user_id, email, password_hash, full_name, role, department, created_at
		FROM users WHERE LOWER(email) = LOWER($1)`

	var (
		u    models.User
		role string
	)
	err := r.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash,
		&u.DisplayName, &role, &u.Department, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
