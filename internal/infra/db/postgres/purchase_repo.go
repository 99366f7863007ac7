package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/repository"
)

var (
	_ repository.PendingPurchaseRepository = (*pendingPurchaseRepo)(nil)
	_ repository.PurchaseRepository        = (*purchaseRepo)(nil)
	_ repository.FailedPurchaseRepository  = (*failedPurchaseRepo)(nil)
)

// -----------------------------
// Pending purchases
// -----------------------------

type pendingPurchaseRepo struct{ pool *pgxpool.Pool }

func NewPendingPurchaseRepo(pool *pgxpool.Pool) *pendingPurchaseRepo {
	return &pendingPurchaseRepo{pool: pool}
}

func (r *pendingPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.PendingPurchase) error {
	lines, err := json.Marshal(p.Lines)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO pending_purchases (
  id, buyer_id, buyer_email, lines, subtotal, shipping_cost, final_total, status, created_at, preference_id
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO NOTHING;`

	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.BuyerID, p.BuyerEmail, lines, p.Subtotal, p.ShippingCost, p.FinalTotal, p.Status, p.CreatedAt, p.PreferenceID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *pendingPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PendingPurchase, error) {
	const q = `SELECT id, buyer_id, buyer_email, lines, subtotal, shipping_cost, final_total, status, created_at, preference_id FROM pending_purchases WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	p := &model.PendingPurchase{}
	var lines []byte
	if err := row.Scan(&p.ID, &p.BuyerID, &p.BuyerEmail, &lines, &p.Subtotal, &p.ShippingCost, &p.FinalTotal, &p.Status, &p.CreatedAt, &p.PreferenceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(lines, &p.Lines); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *pendingPurchaseRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM pending_purchases WHERE id=$1;`, id)
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

// -----------------------------
// Finalized purchases (append-only)
// -----------------------------

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	lines, err := json.Marshal(p.Lines)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO purchases (
  id, buyer_id, buyer_email, lines, subtotal, shipping_cost, final_total, payment_id, status, paid_to_sellers, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
);`

	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.BuyerID, p.BuyerEmail, lines, p.Subtotal, p.ShippingCost, p.FinalTotal, p.PaymentID, p.Status, p.PaidToSellers, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	const q = `SELECT id, buyer_id, buyer_email, lines, subtotal, shipping_cost, final_total, payment_id, status, paid_to_sellers, created_at FROM purchases WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.Purchase, error) {
	const q = `SELECT id, buyer_id, buyer_email, lines, subtotal, shipping_cost, final_total, payment_id, status, paid_to_sellers, created_at FROM purchases WHERE buyer_id=$1 ORDER BY created_at DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p := &model.Purchase{}
	var lines []byte
	if err := row.Scan(&p.ID, &p.BuyerID, &p.BuyerEmail, &lines, &p.Subtotal, &p.ShippingCost, &p.FinalTotal, &p.PaymentID, &p.Status, &p.PaidToSellers, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(lines, &p.Lines); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// -----------------------------
// Failed purchase lines (append-only)
// -----------------------------

type failedPurchaseRepo struct{ pool *pgxpool.Pool }

func NewFailedPurchaseRepo(pool *pgxpool.Pool) *failedPurchaseRepo {
	return &failedPurchaseRepo{pool: pool}
}

func (r *failedPurchaseRepo) Save(ctx context.Context, tx repository.Tx, f *model.FailedPurchaseLine) error {
	line, err := json.Marshal(f.Line)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO failed_purchases (id, reason, line, buyer_id, payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err = execSQL(ctx, r.pool, tx, q, f.ID, f.Reason, line, f.BuyerID, f.PaymentID, f.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *failedPurchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.FailedPurchaseLine, error) {
	const q = `SELECT id, reason, line, buyer_id, payment_id, created_at FROM failed_purchases WHERE buyer_id=$1 ORDER BY created_at DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.FailedPurchaseLine
	for rows.Next() {
		f := &model.FailedPurchaseLine{}
		var line []byte
		if err := rows.Scan(&f.ID, &f.Reason, &line, &f.BuyerID, &f.PaymentID, &f.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if err := json.Unmarshal(line, &f.Line); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
