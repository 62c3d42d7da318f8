package sqlite

import (
	"context"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

const offerColumns = `offer_id, offer_type, description, min_profit_threshold, cost`

type offers struct {
	q execer
}

func (r *offers) Create(ctx context.Context, o *domain.Offer) error {
	err := r.q.QueryRowContext(ctx, `
        INSERT INTO offers (offer_type, description, min_profit_threshold, cost)
        VALUES (?,?,?,?) RETURNING offer_id`,
		o.Type, o.Description, o.MinProfitThreshold, o.Cost,
	).Scan(&o.ID)
	return mapError(err)
}

func (r *offers) Update(ctx context.Context, o *domain.Offer) error {
	res, err := r.q.ExecContext(ctx, `
        UPDATE offers SET offer_type=?, description=?, min_profit_threshold=?, cost=?
        WHERE offer_id=?`,
		o.Type, o.Description, o.MinProfitThreshold, o.Cost, o.ID,
	)
	return affectedOrNotFound(res, err)
}

func (r *offers) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE offer_id=?`, id)
	return affectedOrNotFound(res, err)
}

func (r *offers) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	return scanOffer(r.q.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE offer_id=?`, id))
}

func (r *offers) List(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY offer_id`)
	if err != nil {
		return nil, mapError(err)
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

func scanOffer(row scanner) (*domain.Offer, error) {
	var o domain.Offer
	if err := row.Scan(&o.ID, &o.Type, &o.Description, &o.MinProfitThreshold, &o.Cost); err != nil {
		return nil, mapError(err)
	}
	return &o, nil
}

var _ repository.OfferRepository = (*offers)(nil)
