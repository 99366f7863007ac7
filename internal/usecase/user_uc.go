// File: internal/usecase/user_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	MergeUpdate(ctx context.Context, id string, patch model.UserPatch) error
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &l}
}

func (u *userUC) FindByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) MergeUpdate(ctx context.Context, id string, patch model.UserPatch) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	if _, err := u.users.FindByID(ctx, repository.NoTX, id); err != nil {
		return err
	}
	return u.users.MergeUpdate(ctx, repository.NoTX, id, patch)
}
