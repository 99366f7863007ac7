package repository

import (
	"context"

	"servido-backend/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// MergeUpdate applies non-nil patch fields, leaving the rest of the
	// record untouched.
	MergeUpdate(ctx context.Context, tx Tx, id string, patch model.UserPatch) error
	// UpsertRole sets the user's role and embeds the denormalized
	// subscription snapshot (merge semantics: other user fields
	// survive). A missing user row is created.
	UpsertRole(ctx context.Context, tx Tx, id string, role model.UserRole, snap *model.SubscriptionSnapshot) error
}
