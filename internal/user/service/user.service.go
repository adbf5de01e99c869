package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"yanote/internal/user/model"
	"yanote/internal/user/repository"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{3,150}$`)

type UserService struct {
	Repo repository.Repository
	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost.
	Cost int
}

func NewUserService(repo repository.Repository) *UserService {
	return &UserService{Repo: repo}
}

// SignUp validates the form and creates the account.
func (s *UserService) SignUp(ctx context.Context, req model.SignUpRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	verr := apperr.NewValidationError()

	if !usernamePattern.MatchString(username) {
		verr.Add("username", "Enter 3 to 150 letters, digits or @/./+/-/_ characters.")
	}
	if len(req.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if req.Password != req.Confirm {
		verr.Add("confirm", "The two password fields didn't match.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: string(hash)}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrUsernameTaken) {
			verr.Add("username", "A user with that username already exists.")
			return nil, verr
		}
		return nil, err
	}

	logger.Sugar.Infow("User signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks the credentials. Unknown users and wrong passwords
// both return apperr.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *UserService) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}
