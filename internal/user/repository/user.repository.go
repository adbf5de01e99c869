package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"yanote/internal/user/model"
	"yanote/pkg/apperr"
	"yanote/pkg/dberr"
	"yanote/pkg/logger"
)

type Repository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id`,
		user.Username, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if dberr.IsUniqueViolation(err) {
		return fmt.Errorf("create user %q: %w", user.Username, apperr.ErrUsernameTaken)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", user.Username, err)
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id)
	return scanUser(row, fmt.Sprintf("id %d", id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username)
	return scanUser(row, fmt.Sprintf("username %q", username))
}

func scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get user %s: %v", key, err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// MemoryRepository is the in-process counterpart of UserRepository.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]model.User
	byName map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[int64]model.User),
		byName: make(map[string]int64),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[user.Username]; taken {
		return fmt.Errorf("create user %q: %w", user.Username, apperr.ErrUsernameTaken)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.nextID++
	user.ID = r.nextID
	r.byID[user.ID] = *user
	r.byName[user.Username] = user.ID
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user id %d: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return nil, fmt.Errorf("user username %q: %w", username, apperr.ErrNotFound)
	}
	u := r.byID[id]
	return &u, nil
}
