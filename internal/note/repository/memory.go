package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yanote/internal/note/model"
	"yanote/pkg/apperr"
)

// MemoryRepository keeps notes in process memory. The slug index is updated
// under the same lock as the rows, so uniqueness holds across goroutines.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	notes  map[int64]model.Note
	slugs  map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		notes: make(map[int64]model.Note),
		slugs: make(map[string]int64),
	}
}

func (r *MemoryRepository) Insert(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.slugs[note.Slug]; taken {
		return fmt.Errorf("insert note %q: %w", note.Slug, apperr.ErrSlugTaken)
	}
	r.nextID++
	note.ID = r.nextID
	r.notes[note.ID] = *note
	r.slugs[note.Slug] = note.ID
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.notes[note.ID]
	if !ok {
		return fmt.Errorf("note %d: %w", note.ID, apperr.ErrNotFound)
	}
	if owner, taken := r.slugs[note.Slug]; taken && owner != note.ID {
		return fmt.Errorf("update note %d: %w", note.ID, apperr.ErrSlugTaken)
	}

	delete(r.slugs, current.Slug)
	current.Title = note.Title
	current.Text = note.Text
	current.Slug = note.Slug
	r.notes[note.ID] = current
	r.slugs[current.Slug] = current.ID
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.notes[id]
	if !ok {
		return fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	delete(r.notes, id)
	delete(r.slugs, current.Slug)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, fmt.Errorf("note id %d: %w", id, apperr.ErrNotFound)
	}
	return &n, nil
}

func (r *MemoryRepository) GetBySlug(_ context.Context, slug string) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.slugs[slug]
	if !ok {
		return nil, fmt.Errorf("note slug %q: %w", slug, apperr.ErrNotFound)
	}
	n := r.notes[id]
	return &n, nil
}

func (r *MemoryRepository) ListByAuthor(_ context.Context, authorID int64) ([]model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := []model.Note{}
	for _, n := range r.notes {
		if n.AuthorID == authorID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes), nil
}
