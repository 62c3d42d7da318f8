package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Manuloff/customer-retention/internal/domain"
)

const contractColumns = `contract_id, client_id, last_name, first_name, middle_name, email, phone,
               can_be_retained, monthly_profit::float8, active`

type contractRepository struct {
	db dbtx
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	const query = `
        INSERT INTO contracts (contract_id, client_id, last_name, first_name, middle_name, email, phone,
            can_be_retained, monthly_profit, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.ClientID,
		c.LastName,
		c.FirstName,
		c.MiddleName,
		c.Email,
		c.Phone,
		c.CanBeRetained,
		c.MonthlyProfit,
		c.Active,
	)
	return mapPgError(err)
}

func (r *contractRepository) UpdateField(ctx context.Context, id, column string, value any) error {
	if !EditableContractColumns[column] {
		return ErrUnknownColumn
	}
	cmd, err := r.db.Exec(ctx, `UPDATE contracts SET `+column+`=$1 WHERE contract_id=$2`, value, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contractRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE contracts SET active=$1 WHERE contract_id=$2`, active, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contractRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE contract_id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	return r.fetchSingle(ctx, `SELECT `+contractColumns+` FROM contracts WHERE contract_id=$1`, id)
}

func (r *contractRepository) GetByClientID(ctx context.Context, clientID int64) (*domain.Contract, error) {
	// a client may hold several historical contracts; prefer the active one
	return r.fetchSingle(ctx, `SELECT `+contractColumns+` FROM contracts WHERE client_id=$1
        ORDER BY active DESC, contract_id LIMIT 1`, clientID)
}

func (r *contractRepository) List(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	limit, offset = normalizeLimit(limit, offset, 50)
	rows, err := r.db.Query(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY contract_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, mapPgError(err)
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

func (r *contractRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Contract, error) {
	c, err := scanContract(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapPgError(err)
	}
	return c, nil
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var c domain.Contract
	if err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.LastName,
		&c.FirstName,
		&c.MiddleName,
		&c.Email,
		&c.Phone,
		&c.CanBeRetained,
		&c.MonthlyProfit,
		&c.Active,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
