package sqlite

import (
	"context"
	"database/sql"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

const contractColumns = `contract_id, client_id, last_name, first_name, middle_name, email, phone,
    can_be_retained, monthly_profit, active`

type contracts struct {
	q execer
}

func (r *contracts) Create(ctx context.Context, c *domain.Contract) error {
	_, err := r.q.ExecContext(ctx, `
        INSERT INTO contracts (`+contractColumns+`)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.ClientID, c.LastName, c.FirstName, c.MiddleName, c.Email, c.Phone,
		c.CanBeRetained, c.MonthlyProfit, c.Active,
	)
	return mapError(err)
}

func (r *contracts) UpdateField(ctx context.Context, id, column string, value any) error {
	if !repository.EditableContractColumns[column] {
		return repository.ErrUnknownColumn
	}
	res, err := r.q.ExecContext(ctx, `UPDATE contracts SET `+column+`=? WHERE contract_id=?`, value, id)
	return affectedOrNotFound(res, err)
}

func (r *contracts) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE contracts SET active=? WHERE contract_id=?`, active, id)
	return affectedOrNotFound(res, err)
}

func (r *contracts) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM contracts WHERE contract_id=?`, id)
	return affectedOrNotFound(res, err)
}

func (r *contracts) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	return scanContract(r.q.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE contract_id=?`, id))
}

func (r *contracts) GetByClientID(ctx context.Context, clientID int64) (*domain.Contract, error) {
	return scanContract(r.q.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE client_id=?
        ORDER BY active DESC, contract_id LIMIT 1`, clientID))
}

func (r *contracts) List(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY contract_id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (*domain.Contract, error) {
	var c domain.Contract
	if err := row.Scan(
		&c.ID, &c.ClientID, &c.LastName, &c.FirstName, &c.MiddleName, &c.Email, &c.Phone,
		&c.CanBeRetained, &c.MonthlyProfit, &c.Active,
	); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

var _ repository.ContractRepository = (*contracts)(nil)
var _ scanner = (*sql.Row)(nil)
