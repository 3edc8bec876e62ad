package claims

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
)

// Repository defines claim data access.
type Repository interface {
	Create(ctx context.Context, claim *Claim) error
	Get(ctx context.Context, id string) (*Claim, error)
	List(ctx context.Context, filter ListFilter) ([]Claim, int, error)
	Update(ctx context.Context, claim *Claim) error
	Delete(ctx context.Context, id string) error
	SummarizeStatus(ctx context.Context, status Status) (StatusSummary, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const claimColumns = `id, claim_number, member_id, policy_id, owner_id, region, data_classification, status, amount, description, notes, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, claim *Claim) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claims (id, claim_number, member_id, policy_id, owner_id, region, data_classification, status, amount, description, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		claim.ID, claim.ClaimNumber, claim.MemberID, claim.PolicyID, claim.OwnerID,
		claim.Region, claim.DataClassification, string(claim.Status), claim.Amount,
		claim.Description, claim.Notes, claim.CreatedAt, claim.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *pgRepository) Get(ctx context.Context, id string) (*Claim, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	return scanClaim(row)
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Claim, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims`+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + claimColumns + ` FROM claims` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, claim *Claim) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE claims
		SET status = $1, amount = $2, description = $3, notes = $4, updated_at = $5
		WHERE id = $6`,
		string(claim.Status), claim.Amount, claim.Description, claim.Notes, claim.UpdatedAt, claim.ID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: claim %s", httpx.ErrNotFound, claim.ID)
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: claim %s", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *pgRepository) SummarizeStatus(ctx context.Context, status Status) (StatusSummary, error) {
	var s StatusSummary
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM claims WHERE status = $1`,
		string(status),
	).Scan(&s.Count, &s.Amount)
	return s, err
}

func buildFilter(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		clauses = append(clauses, "region = $"+strconv.Itoa(len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		clauses = append(clauses, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	var status string
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.MemberID, &c.PolicyID, &c.OwnerID,
		&c.Region, &c.DataClassification, &status, &c.Amount,
		&c.Description, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

// mapPgError translates driver errors into the HTTP-facing sentinels.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", httpx.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}
