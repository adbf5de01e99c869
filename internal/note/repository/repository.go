package repository

import (
	"context"

	"yanote/internal/note/model"
)

// Repository is the record store for notes. Implementations enforce slug
// uniqueness themselves and report a collision as apperr.ErrSlugTaken.
type Repository interface {
	Insert(ctx context.Context, note *model.Note) error
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Note, error)
	GetBySlug(ctx context.Context, slug string) (*model.Note, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Note, error)
	Count(ctx context.Context) (int, error)
}
