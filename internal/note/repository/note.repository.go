package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"yanote/internal/note/model"
	"yanote/pkg/apperr"
	"yanote/pkg/dberr"
	"yanote/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

func (r *NoteRepository) Insert(ctx context.Context, note *model.Note) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO notes (title, text, slug, author_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		note.Title, note.Text, note.Slug, note.AuthorID,
	).Scan(&note.ID)
	if dberr.IsUniqueViolation(err) {
		return fmt.Errorf("insert note %q: %w", note.Slug, apperr.ErrSlugTaken)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create note: %v", err)
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Update rewrites title, text and slug. author_id is never touched.
func (r *NoteRepository) Update(ctx context.Context, note *model.Note) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE notes SET title = $1, text = $2, slug = $3 WHERE id = $4`,
		note.Title, note.Text, note.Slug, note.ID,
	)
	if dberr.IsUniqueViolation(err) {
		return fmt.Errorf("update note %d: %w", note.ID, apperr.ErrSlugTaken)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %d: %v", note.ID, err)
		return fmt.Errorf("update note: %w", err)
	}
	return requireRow(result, note.ID)
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %d: %v", id, err)
		return fmt.Errorf("delete note: %w", err)
	}
	return requireRow(result, id)
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, title, text, slug, author_id FROM notes WHERE id = $1`, id)
	return scanNote(row, fmt.Sprintf("id %d", id))
}

func (r *NoteRepository) GetBySlug(ctx context.Context, slug string) (*model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, title, text, slug, author_id FROM notes WHERE slug = $1`, slug)
	return scanNote(row, fmt.Sprintf("slug %q", slug))
}

func (r *NoteRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, text, slug, author_id FROM notes WHERE author_id = $1 ORDER BY id ASC`, authorID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %d: %v", authorID, err)
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		logger.Sugar.Errorf("Failed to count notes: %v", err)
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

func scanNote(row *sql.Row, key string) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %s: %v", key, err)
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

func requireRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}
