package members

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
)

// Repository defines member data access.
type Repository interface {
	Create(ctx context.Context, member *Member) error
	Get(ctx context.Context, id string) (*Member, error)
	FindBySSNToken(ctx context.Context, token string) (*Member, error)
	List(ctx context.Context, filter ListFilter) ([]Member, int, error)
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id string) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const memberColumns = `id, first_name, last_name, email, ssn_token, ssn_sealed, region, date_of_birth, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, member *Member) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO members (id, first_name, last_name, email, ssn_token, ssn_sealed, region, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		member.ID, member.FirstName, member.LastName, member.Email,
		member.SSNToken, member.SSNSealed, member.Region, member.DateOfBirth,
		member.CreatedAt, member.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (r *pgRepository) Get(ctx context.Context, id string) (*Member, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	return scanMember(row)
}

func (r *pgRepository) FindBySSNToken(ctx context.Context, token string) (*Member, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE ssn_token = $1`, token)
	return scanMember(row)
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Member, int, error) {
	where := ""
	var args []any
	if filter.Region != "" {
		where = " WHERE region = $1"
		args = append(args, filter.Region)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT ` + memberColumns + ` FROM members` + where +
		` ORDER BY last_name, first_name LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, member *Member) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE members
		SET first_name = $1, last_name = $2, email = $3, region = $4, updated_at = $5
		WHERE id = $6`,
		member.FirstName, member.LastName, member.Email, member.Region, member.UpdatedAt, member.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %s", httpx.ErrNotFound, member.ID)
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %s", httpx.ErrNotFound, id)
	}
	return nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email,
		&m.SSNToken, &m.SSNSealed, &m.Region, &m.DateOfBirth,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
