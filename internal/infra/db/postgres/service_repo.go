package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/repository"
)

var _ repository.ServiceRepository = (*serviceRepo)(nil)

type serviceRepo struct{ pool *pgxpool.Pool }

func NewServiceRepo(pool *pgxpool.Pool) *serviceRepo {
	return &serviceRepo{pool: pool}
}

const serviceColumns = `id, title, description, category, price, available, seller_id, created_at, updated_at`

func scanService(row pgx.Row) (*model.Service, error) {
	s := &model.Service{}
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.Price, &s.Available, &s.SellerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *serviceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	const q = `
INSERT INTO services (
  id, title, description, category, price, available, seller_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  title=$2, description=$3, category=$4, price=$5, available=$6, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Title, s.Description, s.Category, s.Price, s.Available, s.SellerID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *serviceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+serviceColumns+` FROM services WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanService(row)
}

func (r *serviceRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string) ([]*model.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services`
	var args []interface{}
	if sellerID != "" {
		q += ` WHERE seller_id=$1`
		args = append(args, sellerID)
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *serviceRepo) Update(ctx context.Context, tx repository.Tx, s *model.Service) error {
	const q = `
UPDATE services SET title=$2, description=$3, category=$4, price=$5, available=$6, updated_at=NOW()
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Title, s.Description, s.Category, s.Price, s.Available)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *serviceRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM services WHERE id=$1;`, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
