package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Manuloff/customer-retention/internal/domain"
)

const caseColumns = `case_id, contract_id, initial_reason, proposed_offer_id, assigned_staff_id,
               created_at, completed_at, status`

type caseRepository struct {
	db dbtx
}

func (r *caseRepository) Create(ctx context.Context, c *domain.RetentionCase) error {
	const query = `
        INSERT INTO retention_cases (contract_id, initial_reason, proposed_offer_id, assigned_staff_id,
            created_at, completed_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING case_id`
	err := r.db.QueryRow(ctx, query,
		c.ContractID,
		c.InitialReason,
		c.ProposedOfferID,
		c.AssignedStaffID,
		c.CreatedAt,
		c.CompletedAt,
		string(c.Status),
	).Scan(&c.ID)
	return mapPgError(err)
}

func (r *caseRepository) Transition(ctx context.Context, c *domain.RetentionCase, from domain.CaseStatus) error {
	const query = `
        UPDATE retention_cases SET status=$1, assigned_staff_id=$2, completed_at=$3
        WHERE case_id=$4 AND status=$5`
	cmd, err := r.db.Exec(ctx, query,
		string(c.Status),
		c.AssignedStaffID,
		c.CompletedAt,
		c.ID,
		string(from),
	)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM retention_cases WHERE case_id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, id int64) (*domain.RetentionCase, error) {
	c, err := scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM retention_cases WHERE case_id=$1`, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return c, nil
}

func (r *caseRepository) GetOpenForContract(ctx context.Context, contractID string) (*domain.RetentionCase, error) {
	const query = `SELECT ` + caseColumns + ` FROM retention_cases
        WHERE contract_id=$1 AND status IN ('active','escalated')
        ORDER BY case_id DESC LIMIT 1`
	c, err := scanCase(r.db.QueryRow(ctx, query, contractID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return c, nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.RetentionCase, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if filter.ContractID != nil {
		args = append(args, *filter.ContractID)
		clauses = append(clauses, fmt.Sprintf("contract_id=$%d", len(args)))
	}

	limit, offset := normalizeLimit(filter.Limit, filter.Offset, 20)
	query := fmt.Sprintf(`SELECT %s FROM retention_cases WHERE %s ORDER BY case_id LIMIT %d OFFSET %d`,
		caseColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.RetentionCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *caseRepository) MonthlyOutcomes(ctx context.Context) ([]domain.OutcomeBucket, error) {
	const query = `
        SELECT to_char(rc.completed_at, 'YYYY-MM') AS month,
               COALESCE(o.offer_type, $1) AS offer_type,
               COALESCE(SUM(c.monthly_profit) FILTER (WHERE rc.status = 'retained'), 0)::float8,
               COALESCE(SUM(o.cost) FILTER (WHERE rc.status = 'retained'), 0)::float8,
               COUNT(*) FILTER (WHERE rc.status = 'retained'),
               COUNT(*) FILTER (WHERE rc.status = 'churned')
        FROM retention_cases rc
             JOIN contracts c ON rc.contract_id = c.contract_id
             LEFT JOIN offers o ON rc.proposed_offer_id = o.offer_id
        WHERE rc.status IN ('retained', 'churned') AND rc.completed_at IS NOT NULL
        GROUP BY 1, 2
        ORDER BY 1, 2`
	rows, err := r.db.Query(ctx, query, domain.NoOfferType)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.OutcomeBucket
	for rows.Next() {
		var b domain.OutcomeBucket
		if err := rows.Scan(&b.Month, &b.OfferType, &b.Income, &b.Expenses, &b.Retained, &b.Churned); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanCase(row pgx.Row) (*domain.RetentionCase, error) {
	var (
		c      domain.RetentionCase
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.ContractID,
		&c.InitialReason,
		&c.ProposedOfferID,
		&c.AssignedStaffID,
		&c.CreatedAt,
		&c.CompletedAt,
		&status,
	); err != nil {
		return nil, err
	}
	c.Status = domain.CaseStatus(status)
	return &c, nil
}
