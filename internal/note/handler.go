package handler

import (
	"errors"
	"net/http"

	"yanote/internal/note/model"
	"yanote/internal/note/service"
	"yanote/middleware"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"
	"yanote/web"

	"github.com/gorilla/mux"
)

const (
	SuccessURL = "/done/"
	LoginURL   = "/auth/login/"
)

// NoteForm is the state of the note form between requests.
type NoteForm struct {
	Input  model.NoteInput
	Errors *apperr.ValidationError
}

// NoteHandler serves the HTML pages for notes.
type NoteHandler struct {
	Service *service.NoteService
	Pages   *web.Renderer
}

func NewNoteHandler(service *service.NoteService, pages *web.Renderer) *NoteHandler {
	return &NoteHandler{Service: service, Pages: pages}
}

func (h *NoteHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	h.Pages.Render(w, http.StatusOK, "home.html", web.Page{UserID: userID})
}

func (h *NoteHandler) Success(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	h.Pages.Render(w, http.StatusOK, "success.html", web.Page{UserID: userID})
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	notes, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Pages.Render(w, http.StatusOK, "list.html", web.Page{UserID: userID, Notes: notes})
}

func (h *NoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	page := web.Page{UserID: userID}

	if r.Method != http.MethodPost {
		page.Form = NoteForm{Errors: apperr.NewValidationError()}
		h.Pages.Render(w, http.StatusOK, "form.html", page)
		return
	}

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.Service.Create(r.Context(), userID, in); err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			page.Form = NoteForm{Input: in, Errors: verr}
			h.Pages.Render(w, http.StatusOK, "form.html", page)
			return
		}
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

func (h *NoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	slug := mux.Vars(r)["slug"]

	note, err := h.Service.Detail(r.Context(), userID, slug)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := web.Page{UserID: userID, Note: note}

	if r.Method != http.MethodPost {
		page.Form = NoteForm{
			Input:  model.NoteInput{Title: note.Title, Text: note.Text, Slug: note.Slug},
			Errors: apperr.NewValidationError(),
		}
		h.Pages.Render(w, http.StatusOK, "form.html", page)
		return
	}

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.Service.Edit(r.Context(), userID, slug, in); err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			page.Form = NoteForm{Input: in, Errors: verr}
			h.Pages.Render(w, http.StatusOK, "form.html", page)
			return
		}
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

func (h *NoteHandler) Detail(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	note, err := h.Service.Detail(r.Context(), userID, mux.Vars(r)["slug"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Pages.Render(w, http.StatusOK, "detail.html", web.Page{UserID: userID, Note: note})
}

// Delete renders a confirmation page on GET and removes the note on POST or DELETE.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	slug := mux.Vars(r)["slug"]

	if r.Method == http.MethodGet {
		note, err := h.Service.Detail(r.Context(), userID, slug)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.Pages.Render(w, http.StatusOK, "delete.html", web.Page{UserID: userID, Note: note})
		return
	}

	if err := h.Service.Delete(r.Context(), userID, slug); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

// NotFound renders the 404 page for unmatched routes.
func (h *NoteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	h.Pages.NotFound(w, web.Page{UserID: userID})
}

func (h *NoteHandler) parseForm(w http.ResponseWriter, r *http.Request) (model.NoteInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return model.NoteInput{}, false
	}
	return model.NoteInput{
		Title: r.PostForm.Get("title"),
		Text:  r.PostForm.Get("text"),
		Slug:  r.PostForm.Get("slug"),
	}, true
}

func (h *NoteHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.NotFound(w, r)
	case errors.Is(err, apperr.ErrUnauthenticated):
		http.Redirect(w, r, middleware.LoginRedirectURL(LoginURL, r.URL.RequestURI()), http.StatusFound)
	default:
		logger.Sugar.Errorf("Handler: %s %s failed: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
