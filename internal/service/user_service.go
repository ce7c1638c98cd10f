package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"github.com/shuffleclub/server/internal/store"
	users "github.com/shuffleclub/server/internal/user"
	"github.com/shuffleclub/server/internal/utils"
)

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
}

func NewUserService(db *sqlx.DB, store *store.UserStore) *UserService {
	return &UserService{db: db, store: store}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != gothUser.NickName {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = gothUser.NickName
			s.store.UpdateUserNameAndAvatar(ctx, user)
		}
		return user, nil
	}

	if err == sql.ErrNoRows {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   gothUser.Name,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}
