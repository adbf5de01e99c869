package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"yanote/internal/note/model"
	"yanote/internal/note/repository"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"
	"yanote/pkg/slugify"
)

// SlugWarning follows the conflicting slug in the slug field error.
const SlugWarning = " - attribute already exists, choose another."

// Notifier receives an event after every successful change to a note.
type Notifier interface {
	Publish(event model.NoteEvent)
}

type NoteService struct {
	Repo     repository.Repository
	Notifier Notifier
}

func NewNoteService(repo repository.Repository, notifier Notifier) *NoteService {
	return &NoteService{Repo: repo, Notifier: notifier}
}

// List returns the user's own notes in creation order.
func (s *NoteService) List(ctx context.Context, userID int64) ([]model.Note, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	return s.Repo.ListByAuthor(ctx, userID)
}

func (s *NoteService) Create(ctx context.Context, userID int64, in model.NoteInput) (*model.Note, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	in, err := validate(in)
	if err != nil {
		return nil, err
	}

	note := &model.Note{Title: in.Title, Text: in.Text, Slug: in.Slug, AuthorID: userID}
	if err := s.Repo.Insert(ctx, note); err != nil {
		return nil, slugConflict(err, note.Slug)
	}

	logger.Sugar.Infow("Note created", "note_id", note.ID, "slug", note.Slug, "author_id", userID)
	s.publish(model.EventCreated, *note)
	return note, nil
}

func (s *NoteService) Edit(ctx context.Context, userID int64, slug string, in model.NoteInput) (*model.Note, error) {
	note, err := s.fetchOwned(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	in, err = validate(in)
	if err != nil {
		return nil, err
	}

	updated := *note
	updated.Title = in.Title
	updated.Text = in.Text
	updated.Slug = in.Slug
	if err := s.Repo.Update(ctx, &updated); err != nil {
		return nil, slugConflict(err, updated.Slug)
	}

	logger.Sugar.Infow("Note updated", "note_id", updated.ID, "slug", updated.Slug, "author_id", userID)
	s.publish(model.EventUpdated, updated)
	return &updated, nil
}

func (s *NoteService) Delete(ctx context.Context, userID int64, slug string) error {
	note, err := s.fetchOwned(ctx, userID, slug)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, note.ID); err != nil {
		return err
	}

	logger.Sugar.Infow("Note deleted", "note_id", note.ID, "slug", note.Slug, "author_id", userID)
	s.publish(model.EventDeleted, *note)
	return nil
}

func (s *NoteService) Detail(ctx context.Context, userID int64, slug string) (*model.Note, error) {
	return s.fetchOwned(ctx, userID, slug)
}

// fetchOwned loads the note by slug and hides it from everyone but its author.
func (s *NoteService) fetchOwned(ctx context.Context, userID int64, slug string) (*model.Note, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	note, err := s.Repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !canAccess(userID, note) {
		return nil, fmt.Errorf("note slug %q: %w", slug, apperr.ErrNotFound)
	}
	return note, nil
}

func canAccess(userID int64, note *model.Note) bool {
	return note != nil && note.AuthorID == userID
}

func (s *NoteService) publish(t model.EventType, note model.Note) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(model.NoteEvent{Type: t, AuthorID: note.AuthorID, Note: note})
}

// validate normalizes the input and fills in a derived slug when none was given.
func validate(in model.NoteInput) (model.NoteInput, error) {
	in = in.Normalize()
	verr := apperr.NewValidationError()

	if in.Title == "" {
		verr.Add("title", "This field is required.")
	} else if utf8.RuneCountInString(in.Title) > model.TitleMaxLength {
		verr.Add("title", fmt.Sprintf("Ensure this value has at most %d characters.", model.TitleMaxLength))
	}
	if in.Text == "" {
		verr.Add("text", "This field is required.")
	}

	if in.Slug == "" && in.Title != "" {
		in.Slug = slugify.Derive(in.Title)
		if in.Slug == "" {
			verr.Add("slug", "Could not build a slug from the title, enter one.")
		}
	} else if in.Slug != "" && !slugify.Valid(in.Slug) {
		verr.Add("slug", fmt.Sprintf("Enter a valid slug of at most %d letters, numbers or hyphens.", slugify.MaxLength))
	}

	if verr.HasErrors() {
		return in, verr
	}
	return in, nil
}

func slugConflict(err error, slug string) error {
	if errors.Is(err, apperr.ErrSlugTaken) {
		verr := apperr.NewValidationError()
		verr.Add("slug", slug+SlugWarning)
		return verr
	}
	return err
}
