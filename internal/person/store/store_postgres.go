package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cadastro/internal/person/models"
	"cadastro/internal/platform/postgres"
	"cadastro/pkg/platform/sentinel"
)

// Schema creates the persons table. Statements are idempotent.
//
//go:embed schema.sql
var Schema string

const personColumns = `id, kind, name, document, email, phones,
	postal_code, street, district, city, state, number, complement,
	created_at, updated_at`

// PostgresStore persists persons in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts person. A duplicate document returns sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO persons (id, kind, name, document, document_digits, email, phones,
			postal_code, street, district, city, state, number, complement,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	a := person.Address
	_, err := s.db.ExecContext(ctx, query,
		person.ID, string(person.Kind), person.Name, person.Document, person.DocumentDigits(),
		person.Email, pq.Array(phonesOrEmpty(person.Phones)),
		a.PostalCode, a.Street, a.District, a.City, a.State, a.Number, a.Complement,
		person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("insert person: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id)
	return scanPerson(row)
}

func (s *PostgresStore) FindByDocument(ctx context.Context, digits string) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE document_digits = $1`, digits)
	return scanPerson(row)
}

// List returns persons ordered by creation time, then ID.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.Person, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("negative offset or limit: %w", sentinel.ErrInvalidState)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	persons := []*models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return n, nil
}

// Update rewrites the mutable columns. Kind and document are left untouched.
func (s *PostgresStore) Update(ctx context.Context, person *models.Person) error {
	query := `
		UPDATE persons SET
			name = $2, email = $3, phones = $4,
			postal_code = $5, street = $6, district = $7, city = $8, state = $9,
			number = $10, complement = $11, updated_at = $12
		WHERE id = $1
	`
	a := person.Address
	res, err := s.db.ExecContext(ctx, query,
		person.ID, person.Name, person.Email, pq.Array(phonesOrEmpty(person.Phones)),
		a.PostalCode, a.Street, a.District, a.City, a.State, a.Number, a.Complement,
		person.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return requireAffected(res, "update person")
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return requireAffected(res, "delete person")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var (
		p      models.Person
		kind   string
		phones pq.StringArray
	)
	err := row.Scan(
		&p.ID, &kind, &p.Name, &p.Document, &p.Email, &phones,
		&p.Address.PostalCode, &p.Address.Street, &p.Address.District, &p.Address.City,
		&p.Address.State, &p.Address.Number, &p.Address.Complement,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan person: %w", err)
	}
	p.Kind = models.Kind(kind)
	p.Phones = []string(phones)
	if p.Phones == nil {
		p.Phones = []string{}
	}
	return &p, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func phonesOrEmpty(phones []string) []string {
	if phones == nil {
		return []string{}
	}
	return phones
}
