package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/gebeya/internal/domain"
)

// UserUC keeps the local profile of a token subject. Identities are issued
// elsewhere; the first profile save registers the user here.
type UserUC struct {
	Users domain.UserRepo
	Authz *Authorizer
	Clock func() time.Time
}

type ProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (in ProfileInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name is required")
	}
	email := strings.TrimSpace(in.Email)
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		return domain.Invalid("invalid email %q", in.Email)
	}
	return nil
}

func (uc *UserUC) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := uc.Authz.Require(actor, "profile", "write"); err != nil {
		return nil, err
	}
	return uc.Users.FindByID(ctx, actor.ID)
}

// SaveProfile creates or updates the caller's profile. The role always follows the token.
func (uc *UserUC) SaveProfile(ctx context.Context, actor domain.Actor, in ProfileInput) (*domain.User, error) {
	if err := uc.Authz.Require(actor, "profile", "write"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	owner, err := uc.Users.FindByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != actor.ID:
		return nil, domain.Invalid("email %s is already registered", email)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	u, err := uc.Users.FindByID(ctx, actor.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u = &domain.User{ID: actor.ID, CreatedAt: nowFrom(uc.Clock)}
		log.Info().Str("user_id", actor.ID.String()).Str("role", string(actor.Role)).Msg("registering user")
	case err != nil:
		return nil, err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Email = email
	u.Phone = strings.TrimSpace(in.Phone)
	u.Role = actor.Role
	if err := uc.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
