package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uok-ict/portal-api/internal/models"
)

// ProgramRepository reads the program catalog applicants choose from.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns the full program catalog ordered by name.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, code, name, faculty, department, created_at FROM programs ORDER BY name ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByCode returns one catalog entry.
func (r *ProgramRepository) FindByCode(ctx context.Context, code string) (*models.Program, error) {
	const query = `SELECT id, code, name, faculty, department, created_at FROM programs WHERE code = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, code); err != nil {
		return nil, err
	}
	return &program, nil
}
