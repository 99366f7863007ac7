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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	snap, err := marshalSnapshot(u.Subscription)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (
  id, email, display_name, role, is_subscribed, subscription, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (id) DO UPDATE SET
  email=$2, display_name=$3, role=$4, is_subscribed=$5, subscription=$6, updated_at=$8;`

	_, err = execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.DisplayName, u.Role, u.IsSubscribed, snap, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT id, email, display_name, role, is_subscribed, subscription, created_at, updated_at FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	u := &model.User{}
	var snap []byte
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.IsSubscribed, &snap, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(snap) > 0 {
		var s model.SubscriptionSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		u.Subscription = &s
	}
	return u, nil
}

func (r *userRepo) MergeUpdate(ctx context.Context, tx repository.Tx, id string, patch model.UserPatch) error {
	const q = `
UPDATE users SET
  email=COALESCE($2, email),
  display_name=COALESCE($3, display_name),
  updated_at=NOW()
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, patch.Email, patch.DisplayName)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertRole keeps merge semantics: an existing user keeps every
// field except role, subscribed flag and the embedded snapshot; a
// missing user row is created on the spot so webhook-driven activation
// never fails on a user that has not signed in yet.
func (r *userRepo) UpsertRole(ctx context.Context, tx repository.Tx, id string, role model.UserRole, snap *model.SubscriptionSnapshot) error {
	b, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}
	subscribed := snap != nil && snap.Status == model.SubscriptionStatusActive

	const q = `
INSERT INTO users (id, email, display_name, role, is_subscribed, subscription, created_at, updated_at)
VALUES ($1, '', '', $2, $3, $4, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
  role=$2, is_subscribed=$3, subscription=$4, updated_at=NOW();`

	_, err = execSQL(ctx, r.pool, tx, q, id, role, subscribed, b)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func marshalSnapshot(snap *model.SubscriptionSnapshot) ([]byte, error) {
	if snap == nil {
		return nil, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return b, nil
}
