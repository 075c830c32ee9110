package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/david/funding-advisor/internal/models"
)

// Store is the canonical program dataset plus its nearest-neighbor index.
// The advisor consumes it read-only; only the seed tool writes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectCols = `name, title, program, call, domain, description,
	eligibility, amount, deadline, location, contact, procedure, url, source`

func scanProgram(scan func(dest ...interface{}) error) (models.Program, error) {
	var p models.Program
	var name, title, program, call, domain, description *string
	var eligibility, amount, deadline, location, contact, procedure, url, source *string

	err := scan(
		&name, &title, &program, &call, &domain, &description,
		&eligibility, &amount, &deadline, &location, &contact, &procedure, &url, &source,
	)
	if err != nil {
		return p, err
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&p.Name, name)
	assign(&p.Title, title)
	assign(&p.Program, program)
	assign(&p.Call, call)
	assign(&p.Domain, domain)
	assign(&p.Description, description)
	assign(&p.Eligibility, eligibility)
	assign(&p.Amount, amount)
	assign(&p.Deadline, deadline)
	assign(&p.Location, location)
	assign(&p.Contact, contact)
	assign(&p.Procedure, procedure)
	assign(&p.URL, url)
	assign(&p.Source, source)

	return p, nil
}

// Search returns up to topK nearest programs by cosine distance. Zero matches
// or an empty index yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Program, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM programs
		WHERE namespace = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, selectCols)

	rows, err := s.pool.Query(ctx, sql, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if programs == nil {
		programs = []models.Program{}
	}
	return programs, nil
}

// All returns every canonical row, used for keyword backfill and the field
// backfill index.
func (s *Store) All(ctx context.Context) ([]models.Program, error) {
	sql := fmt.Sprintf("SELECT %s FROM programs ORDER BY id", selectCols)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return programs, nil
}

// Insert stores one canonical row with its embedding. nil embedding leaves
// the vector column NULL, excluding the row from nearest-neighbor search.
func (s *Store) Insert(ctx context.Context, p models.Program, embedding []float32, namespace string) error {
	var vec interface{}
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO programs (namespace, name, title, program, call, domain, description,
			eligibility, amount, deadline, location, contact, procedure, url, source, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, namespace, p.Name, p.Title, p.Program, p.Call, p.Domain, p.Description,
		p.Eligibility, p.Amount, p.Deadline, p.Location, p.Contact, p.Procedure, p.URL, p.Source, vec)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// Count reports the number of canonical rows, for health checks and the seed
// tool summary.
func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM programs").Scan(&total); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return total, nil
}
