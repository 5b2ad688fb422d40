package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgxQuerier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, in LeadInput) (*Lead, error) {
	in = Sanitize(in)
	// The archive accepts anything the most permissive variant accepts.
	if HasErrors(ValidateVariant(in, VariantMinimal)) {
		return nil, ErrInvalidLead
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, name, email, phone, city, desired_course, preferred_country, intake, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		in.Name,
		in.Email,
		in.Phone,
		in.City,
		in.DesiredCourse,
		in.PreferredCountry,
		in.Intake,
		in.Source,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:        id.String(),
		LeadInput: in,
		CreatedAt: createdAt,
	}, nil
}

const selectLeadColumns = `id, name, email, phone, city, desired_course, preferred_country, intake, source, created_at`

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectLeadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListRecent returns up to limit leads, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	limit = ClampListLimit(limit)
	rows, err := r.db.Query(ctx, `SELECT `+selectLeadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.City,
		&lead.DesiredCourse,
		&lead.PreferredCountry,
		&lead.Intake,
		&lead.Source,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
