package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

const productColumns = `id, title, description, category, brand, images, price, stock, available, seller_id, discount, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Brand, &p.Images, &p.Price, &p.Stock, &p.Available, &p.SellerID, &p.Discount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (
  id, title, description, category, brand, images, price, stock, available, seller_id, discount, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
) ON CONFLICT (id) DO UPDATE SET
  title=$2, description=$3, category=$4, brand=$5, images=$6, price=$7, stock=$8, available=$9, discount=$11, updated_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Title, p.Description, p.Category, p.Brand, p.Images, p.Price, p.Stock, p.Available, p.SellerID, p.Discount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) List(ctx context.Context, tx repository.Tx, filter model.ProductFilter) ([]*model.Product, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Category != "" {
		add("category=$%d", filter.Category)
	}
	if filter.Brand != "" {
		add("brand=$%d", filter.Brand)
	}
	if filter.MinPrice > 0 {
		add("price>=$%d", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		add("price<=$%d", filter.MaxPrice)
	}
	if filter.SellerID != "" {
		add("seller_id=$%d", filter.SellerID)
	}
	if filter.Search != "" {
		add("(title ILIKE '%%'||$%d||'%%' OR description ILIKE '%%'||$%[1]d||'%%')", filter.Search)
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC;"

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productRepo) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
UPDATE products SET
  title=$2, description=$3, category=$4, brand=$5, images=$6, price=$7, stock=$8, available=$9, discount=$10, updated_at=NOW()
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Title, p.Description, p.Category, p.Brand, p.Images, p.Price, p.Stock, p.Available, p.Discount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM products WHERE id=$1;`, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock is the single conditional update that replaces the
// read-check-write sequence: it only applies when the product has no
// declared stock (unlimited) or the stock covers the quantity, so two
// racing settlements can never drive stock negative.
func (r *productRepo) DecrementStock(ctx context.Context, tx repository.Tx, id string, quantity int) (bool, error) {
	const q = `
UPDATE products
SET stock = CASE WHEN stock IS NULL THEN NULL ELSE stock - $2 END, updated_at = NOW()
WHERE id = $1 AND (stock IS NULL OR stock >= $2);`

	tag, err := execSQL(ctx, r.pool, tx, q, id, quantity)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Zero rows: either the product is gone or stock cannot cover the
	// quantity. Distinguish so the caller can skip deleted products.
	row, err := pickRow(ctx, r.pool, tx, `SELECT 1 FROM products WHERE id=$1;`, id)
	if err != nil {
		return false, err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, domain.ErrReadDatabaseRow
	}
	return false, nil
}
