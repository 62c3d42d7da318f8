package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Manuloff/customer-retention/internal/domain"
)

const offerColumns = `offer_id, offer_type, description, min_profit_threshold::float8, cost::float8`

type offerRepository struct {
	db dbtx
}

func (r *offerRepository) Create(ctx context.Context, o *domain.Offer) error {
	const query = `
        INSERT INTO offers (offer_type, description, min_profit_threshold, cost)
        VALUES ($1,$2,$3,$4)
        RETURNING offer_id`
	err := r.db.QueryRow(ctx, query, o.Type, o.Description, o.MinProfitThreshold, o.Cost).Scan(&o.ID)
	return mapPgError(err)
}

func (r *offerRepository) Update(ctx context.Context, o *domain.Offer) error {
	const query = `
        UPDATE offers SET offer_type=$1, description=$2, min_profit_threshold=$3, cost=$4
        WHERE offer_id=$5`
	cmd, err := r.db.Exec(ctx, query, o.Type, o.Description, o.MinProfitThreshold, o.Cost, o.ID)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM offers WHERE offer_id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	o, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE offer_id=$1`, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return o, nil
}

func (r *offerRepository) List(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY offer_id`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	if err := row.Scan(&o.ID, &o.Type, &o.Description, &o.MinProfitThreshold, &o.Cost); err != nil {
		return nil, err
	}
	return &o, nil
}
