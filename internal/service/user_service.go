package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// passwordAlphabet leaves out characters that are easy to misread (0/O, 1/l/I).
const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

const (
	generatedPasswordLen = 8
	maxUsernameAttempts  = 100
)

type UserService interface {
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	List(ctx context.Context) ([]model.User, error)
	Credentials(ctx context.Context, id string) (*dto.CredentialsResponse, error)
	ResetPassword(ctx context.Context, id string) (*dto.ResetPasswordResponse, error)
	SetRole(ctx context.Context, id, role string) (*model.User, error)
}

type userService struct {
	store storage.Storage
	cfg   *config.Config
}

func NewUserService(store storage.Storage, cfg *config.Config) UserService {
	return &userService{store: store, cfg: cfg}
}

// BaseUsername derives "first.last" in lower case with all whitespace removed.
func BaseUsername(first, last string) string {
	strip := func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}
	return strings.ToLower(strings.Map(strip, first) + "." + strings.Map(strip, last))
}

// GeneratePassword returns a random one-time password.
func GeneratePassword() string {
	return storage.RandomString(passwordAlphabet, generatedPasswordLen)
}

func (s *userService) hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Create picks the first free username among base, base.2, base.3, ... and
// retries when a concurrent create claims the same name first.
func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	password := GeneratePassword()
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	base := BaseUsername(req.FirstName, req.LastName)
	for n := 1; n <= maxUsernameAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s.%d", base, n)
		}
		existing, err := s.store.GetUserByUsername(ctx, candidate)
		if err != nil {
			return nil, storageErr("create user", err)
		}
		if existing != nil {
			continue
		}

		user, err := s.store.CreateUser(ctx, &model.User{
			Username:  candidate,
			Password:  hash,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			TipoUser:  req.TipoUser,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, storageErr("create user", err)
		}
		log.Info().Str("user_id", user.ID).Str("username", user.Username).Str("tipo_user", user.TipoUser).Msg("user created")
		return &dto.CreateUserResponse{
			User:        user,
			Credentials: dto.Credentials{Username: user.Username, Password: password},
		}, nil
	}
	return nil, apierror.Conflict("Could not allocate a unique username")
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	return users, storageErr("list users", err)
}

func (s *userService) get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, apierror.NotFound("User not found")
	}
	return user, nil
}

// Credentials never returns the password; only a reset can reveal a new one.
func (s *userService) Credentials(ctx context.Context, id string) (*dto.CredentialsResponse, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CredentialsResponse{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Message:   "Passwords are stored hashed and cannot be shown. Use reset-password to issue a new one.",
	}, nil
}

func (s *userService) ResetPassword(ctx context.Context, id string) (*dto.ResetPasswordResponse, error) {
	password := GeneratePassword()
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UpdateUserPassword(ctx, id, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, storageErr("reset password", err)
	}
	log.Info().Str("user_id", user.ID).Msg("password reset")
	return &dto.ResetPasswordResponse{
		Username:    user.Username,
		NewPassword: password,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Message:     "Password reset successfully",
	}, nil
}

func (s *userService) SetRole(ctx context.Context, id, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, apierror.Validation("Invalid tipoUser")
	}
	user, err := s.store.UpdateUserRole(ctx, id, role)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, storageErr("set role", err)
	}
	log.Info().Str("user_id", user.ID).Str("tipo_user", role).Msg("role changed")
	return user, nil
}
