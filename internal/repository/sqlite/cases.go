package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

const caseColumns = `case_id, contract_id, initial_reason, proposed_offer_id, assigned_staff_id,
    created_at, completed_at, status`

type cases struct {
	q execer
}

func (r *cases) Create(ctx context.Context, c *domain.RetentionCase) error {
	err := r.q.QueryRowContext(ctx, `
        INSERT INTO retention_cases (contract_id, initial_reason, proposed_offer_id, assigned_staff_id,
            created_at, completed_at, status)
        VALUES (?,?,?,?,?,?,?) RETURNING case_id`,
		c.ContractID,
		c.InitialReason,
		nullInt64(c.ProposedOfferID),
		nullInt64(c.AssignedStaffID),
		c.CreatedAt.UTC(),
		nullTime(c.CompletedAt),
		string(c.Status),
	).Scan(&c.ID)
	return mapError(err)
}

func (r *cases) Transition(ctx context.Context, c *domain.RetentionCase, from domain.CaseStatus) error {
	res, err := r.q.ExecContext(ctx, `
        UPDATE retention_cases SET status=?, assigned_staff_id=?, completed_at=?
        WHERE case_id=? AND status=?`,
		string(c.Status),
		nullInt64(c.AssignedStaffID),
		nullTime(c.CompletedAt),
		c.ID,
		string(from),
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStale
	}
	return nil
}

func (r *cases) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM retention_cases WHERE case_id=?`, id)
	return affectedOrNotFound(res, err)
}

func (r *cases) GetByID(ctx context.Context, id int64) (*domain.RetentionCase, error) {
	return scanCase(r.q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM retention_cases WHERE case_id=?`, id))
}

func (r *cases) GetOpenForContract(ctx context.Context, contractID string) (*domain.RetentionCase, error) {
	return scanCase(r.q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM retention_cases
        WHERE contract_id=? AND status IN ('active','escalated')
        ORDER BY case_id DESC LIMIT 1`, contractID))
}

func (r *cases) List(ctx context.Context, filter repository.CaseFilter) ([]domain.RetentionCase, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = "?"
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, "assigned_staff_id=?")
	}
	if filter.ContractID != nil {
		args = append(args, *filter.ContractID)
		clauses = append(clauses, "contract_id=?")
	}

	limit, offset := filter.Limit, filter.Offset
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM retention_cases WHERE %s ORDER BY case_id LIMIT ? OFFSET ?`,
		caseColumns, strings.Join(clauses, " AND "))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
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

func (r *cases) MonthlyOutcomes(ctx context.Context) ([]domain.OutcomeBucket, error) {
	rows, err := r.q.QueryContext(ctx, `
        SELECT strftime('%Y-%m', rc.completed_at) AS month,
               COALESCE(o.offer_type, ?) AS offer_type,
               COALESCE(SUM(CASE WHEN rc.status = 'retained' THEN c.monthly_profit END), 0.0),
               COALESCE(SUM(CASE WHEN rc.status = 'retained' THEN o.cost END), 0.0),
               SUM(CASE WHEN rc.status = 'retained' THEN 1 ELSE 0 END),
               SUM(CASE WHEN rc.status = 'churned' THEN 1 ELSE 0 END)
        FROM retention_cases rc
             JOIN contracts c ON rc.contract_id = c.contract_id
             LEFT JOIN offers o ON rc.proposed_offer_id = o.offer_id
        WHERE rc.status IN ('retained', 'churned') AND rc.completed_at IS NOT NULL
        GROUP BY 1, 2
        ORDER BY 1, 2`, domain.NoOfferType)
	if err != nil {
		return nil, mapError(err)
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

func scanCase(row scanner) (*domain.RetentionCase, error) {
	var (
		c         domain.RetentionCase
		offerID   sql.NullInt64
		staffID   sql.NullInt64
		completed sql.NullTime
		status    string
	)
	if err := row.Scan(
		&c.ID,
		&c.ContractID,
		&c.InitialReason,
		&offerID,
		&staffID,
		&c.CreatedAt,
		&completed,
		&status,
	); err != nil {
		return nil, mapError(err)
	}
	c.ProposedOfferID = int64Ptr(offerID)
	c.AssignedStaffID = int64Ptr(staffID)
	if completed.Valid {
		at := completed.Time
		c.CompletedAt = &at
	}
	c.Status = domain.CaseStatus(status)
	return &c, nil
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

var _ repository.CaseRepository = (*cases)(nil)
