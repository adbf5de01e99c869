package model

import "strings"

const TitleMaxLength = 100

type Note struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Slug     string `json:"slug"`
	AuthorID int64  `json:"author_id"`
}

// NoteInput is what a user submits through the note form or the API.
// An empty Slug asks for one to be derived from Title.
type NoteInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// Normalize trims surrounding whitespace from every field.
func (in NoteInput) Normalize() NoteInput {
	return NoteInput{
		Title: strings.TrimSpace(in.Title),
		Text:  strings.TrimSpace(in.Text),
		Slug:  strings.TrimSpace(in.Slug),
	}
}

type EventType string

const (
	EventCreated EventType = "NOTE_CREATED"
	EventUpdated EventType = "NOTE_UPDATED"
	EventDeleted EventType = "NOTE_DELETED"
)

// NoteEvent describes a change to one of the author's notes.
type NoteEvent struct {
	Type     EventType `json:"type"`
	AuthorID int64     `json:"author_id"`
	Note     Note      `json:"note"`
}

type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"errors,omitempty"`
}
