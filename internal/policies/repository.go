package policies

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
)

// Repository defines policy contract data access.
type Repository interface {
	Create(ctx context.Context, policy *Policy) error
	Get(ctx context.Context, id string) (*Policy, error)
	List(ctx context.Context, filter ListFilter) ([]Policy, int, error)
	Update(ctx context.Context, policy *Policy) error
	LapseExpired(ctx context.Context, asOf time.Time) (map[string]int, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const policyColumns = `id, policy_number, member_id, product_code, region, status, coverage_limit, premium, effective_from, effective_to, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, policy *Policy) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO insurance_policies (id, policy_number, member_id, product_code, region, status, coverage_limit, premium, effective_from, effective_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		policy.ID, policy.PolicyNumber, policy.MemberID, policy.ProductCode, policy.Region,
		string(policy.Status), policy.CoverageLimit, policy.Premium,
		policy.EffectiveFrom, policy.EffectiveTo, policy.CreatedAt, policy.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (r *pgRepository) Get(ctx context.Context, id string) (*Policy, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM insurance_policies WHERE id = $1`, id)
	return scanPolicy(row)
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Policy, int, error) {
	var clauses []string
	var args []any
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		clauses = append(clauses, "member_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		clauses = append(clauses, "region = $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM insurance_policies`+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + policyColumns + ` FROM insurance_policies` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, policy *Policy) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE insurance_policies
		SET status = $1, coverage_limit = $2, premium = $3, updated_at = $4
		WHERE id = $5`,
		string(policy.Status), policy.CoverageLimit, policy.Premium, policy.UpdatedAt, policy.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: policy %s", httpx.ErrNotFound, policy.ID)
	}
	return nil
}

func (r *pgRepository) LapseExpired(ctx context.Context, asOf time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE insurance_policies
		SET status = $1, updated_at = $2
		WHERE status = $3 AND effective_to < $2
		RETURNING region`,
		string(StatusLapsed), asOf, string(StatusActive),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, err
		}
		counts[region]++
	}
	return counts, rows.Err()
}

func scanPolicy(row pgx.Row) (*Policy, error) {
	var p Policy
	var status string
	err := row.Scan(&p.ID, &p.PolicyNumber, &p.MemberID, &p.ProductCode, &p.Region,
		&status, &p.CoverageLimit, &p.Premium,
		&p.EffectiveFrom, &p.EffectiveTo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}
