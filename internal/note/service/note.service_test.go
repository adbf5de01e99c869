package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"yanote/internal/note/model"
	"yanote/internal/note/repository"
	"yanote/pkg/apperr"
	"yanote/pkg/slugify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	author    int64 = 1
	notAuthor int64 = 2
	testSlug        = "test-note-slug"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.NoteEvent
}

func (n *recordingNotifier) Publish(e model.NoteEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type fixture struct {
	svc      *NoteService
	repo     *repository.MemoryRepository
	notifier *recordingNotifier
	note     *model.Note
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	note := &model.Note{Title: "Тестовая заметка", Text: "Просто текст.", Slug: testSlug, AuthorID: author}
	require.NoError(t, repo.Insert(context.Background(), note))
	notifier := &recordingNotifier{}
	return &fixture{svc: NewNoteService(repo, notifier), repo: repo, notifier: notifier, note: note}
}

func validInput() model.NoteInput {
	return model.NoteInput{Title: "Valid Title", Text: "Valid Text", Slug: "valid-slug"}
}

func count(t *testing.T, repo repository.Repository) int {
	t.Helper()
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateWithValidSlug(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	note, err := f.svc.Create(ctx, author, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Valid Title", note.Title)
	assert.Equal(t, "Valid Text", note.Text)
	assert.Equal(t, "valid-slug", note.Slug)
	assert.Equal(t, author, note.AuthorID)
	assert.Equal(t, 2, count(t, f.repo))

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, model.EventCreated, f.notifier.events[0].Type)
	assert.Equal(t, author, f.notifier.events[0].AuthorID)
}

func TestCreateDuplicateSlugLeavesStoreUnchanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	before, err := f.repo.ListByAuthor(ctx, author)
	require.NoError(t, err)

	in := validInput()
	in.Slug = f.note.Slug
	_, err = f.svc.Create(ctx, notAuthor, in)

	verr, ok := apperr.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, []string{"test-note-slug - attribute already exists, choose another."}, verr.Field("slug"))

	after, err := f.repo.ListByAuthor(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, count(t, f.repo))
	assert.Empty(t, f.notifier.events)
}

func TestCreateDerivesSlugFromTitle(t *testing.T) {
	f := setup(t)

	in := validInput()
	in.Slug = ""
	note, err := f.svc.Create(context.Background(), author, in)
	require.NoError(t, err)
	assert.Equal(t, slugify.Derive(in.Title), note.Slug)
	assert.Equal(t, "valid-title", note.Slug)
}

func TestCreateTransliteratesCyrillicTitle(t *testing.T) {
	f := setup(t)

	note, err := f.svc.Create(context.Background(), author, model.NoteInput{Title: "Заметка", Text: "текст"})
	require.NoError(t, err)
	assert.Equal(t, "zametka", note.Slug)
}

func TestCreateDerivedSlugCollisionIsConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, author, model.NoteInput{Title: "Same Title", Text: "one"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, notAuthor, model.NoteInput{Title: "Same Title", Text: "two"})
	verr, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"same-title" + SlugWarning}, verr.Field("slug"))
	assert.Equal(t, 2, count(t, f.repo))
}

func TestCreateMissingFields(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), author, model.NoteInput{Title: "  ", Text: ""})
	verr, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.NotEmpty(t, verr.Field("title"))
	assert.NotEmpty(t, verr.Field("text"))
	assert.Empty(t, verr.Field("slug"))
	assert.Equal(t, 1, count(t, f.repo))
}

func TestCreateRejectsInvalidSlug(t *testing.T) {
	f := setup(t)

	for _, slug := range []string{"has space", "slash/slug", "ünïcode", strings.Repeat("a", slugify.MaxLength+1)} {
		in := validInput()
		in.Slug = slug
		_, err := f.svc.Create(context.Background(), author, in)
		verr, ok := apperr.AsValidation(err)
		require.True(t, ok, slug)
		assert.NotEmpty(t, verr.Field("slug"), slug)
	}
	assert.Equal(t, 1, count(t, f.repo))
}

func TestCreateRequiresUser(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), 0, validInput())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestListScopedToAuthor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mine, err := f.svc.List(ctx, author)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, *f.note, mine[0])

	theirs, err := f.svc.List(ctx, notAuthor)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	created, err := f.svc.Create(ctx, notAuthor, validInput())
	require.NoError(t, err)
	theirs, err = f.svc.List(ctx, notAuthor)
	require.NoError(t, err)
	assert.Equal(t, []model.Note{*created}, theirs)

	mine, err = f.svc.List(ctx, author)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAuthorEditsNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	updated, err := f.svc.Edit(ctx, author, testSlug, validInput())
	require.NoError(t, err)

	stored, err := f.repo.GetByID(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
	assert.Equal(t, "Valid Title", stored.Title)
	assert.Equal(t, "Valid Text", stored.Text)
	assert.Equal(t, "valid-slug", stored.Slug)
	assert.Equal(t, author, stored.AuthorID)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, model.EventUpdated, f.notifier.events[0].Type)
}

func TestEditResubmittingOwnSlugIsNotConflict(t *testing.T) {
	f := setup(t)

	in := validInput()
	in.Slug = testSlug
	updated, err := f.svc.Edit(context.Background(), author, testSlug, in)
	require.NoError(t, err)
	assert.Equal(t, testSlug, updated.Slug)
}

func TestEditIntoExistingSlugIsConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.svc.Create(ctx, notAuthor, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Slug = other.Slug
	_, err = f.svc.Edit(ctx, author, testSlug, in)
	verr, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{other.Slug + SlugWarning}, verr.Field("slug"))

	stored, err := f.repo.GetByID(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Equal(t, *f.note, *stored)
}

func TestNotAuthorCannotEdit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Edit(ctx, notAuthor, testSlug, validInput())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := f.repo.GetByID(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Equal(t, *f.note, *stored)
	assert.Empty(t, f.notifier.events)
}

func TestNotAuthorAndMissingAreIndistinguishable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, errOther := f.svc.Detail(ctx, notAuthor, testSlug)
	_, errMissing := f.svc.Detail(ctx, notAuthor, "no-such-note")
	assert.ErrorIs(t, errOther, apperr.ErrNotFound)
	assert.ErrorIs(t, errMissing, apperr.ErrNotFound)
}

func TestDetail(t *testing.T) {
	f := setup(t)

	note, err := f.svc.Detail(context.Background(), author, testSlug)
	require.NoError(t, err)
	assert.Equal(t, *f.note, *note)
}

// Scenario: U2 deletes U1's note and gets not-found; U1 deletes it.
func TestDeleteScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, notAuthor, testSlug)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, count(t, f.repo))

	require.NoError(t, f.svc.Delete(ctx, author, testSlug))
	assert.Equal(t, 0, count(t, f.repo))

	_, err = f.repo.GetByID(ctx, f.note.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Detail(ctx, author, testSlug)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, model.EventDeleted, f.notifier.events[0].Type)
	assert.Equal(t, testSlug, f.notifier.events[0].Note.Slug)
}

func TestDeleteAffectsOnlyTarget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	keep, err := f.svc.Create(ctx, author, validInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, author, testSlug))
	assert.Equal(t, 1, count(t, f.repo))
	stored, err := f.repo.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, *keep, *stored)
}

func TestCanAccess(t *testing.T) {
	note := &model.Note{AuthorID: author}
	assert.True(t, canAccess(author, note))
	assert.False(t, canAccess(notAuthor, note))
	assert.False(t, canAccess(author, nil))
}
