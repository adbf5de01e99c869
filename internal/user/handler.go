package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"yanote/internal/auth"
	"yanote/internal/user/model"
	"yanote/internal/user/service"
	"yanote/middleware"
	"yanote/pkg/apperr"
	"yanote/pkg/logger"
	"yanote/web"
)

const (
	LoginURL      = "/auth/login/"
	AfterLoginURL = "/notes/"
)

// CredentialsForm is the state of the login and signup forms.
type CredentialsForm struct {
	Username string
	Errors   *apperr.ValidationError
}

type UserHandler struct {
	Service *service.UserService
	Tokens  *auth.TokenIssuer
	Pages   *web.Renderer
}

func NewUserHandler(service *service.UserService, tokens *auth.TokenIssuer, pages *web.Renderer) *UserHandler {
	return &UserHandler{Service: service, Tokens: tokens, Pages: pages}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	page := web.Page{UserID: userID, Next: r.URL.Query().Get("next")}

	if r.Method != http.MethodPost {
		page.Form = CredentialsForm{Errors: apperr.NewValidationError()}
		h.Pages.Render(w, http.StatusOK, "login.html", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	if next := r.PostForm.Get("next"); next != "" {
		page.Next = next
	}

	user, err := h.Service.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			logger.Sugar.Errorf("Handler: login failed: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		verr := apperr.NewValidationError()
		verr.Add("__all__", "Please enter a correct username and password.")
		page.Form = CredentialsForm{Username: username, Errors: verr}
		h.Pages.Render(w, http.StatusOK, "login.html", page)
		return
	}

	token, expires, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.Sugar.Errorf("Handler: failed to issue session: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	middleware.SetSessionCookie(w, r, token, expires)
	logger.Sugar.Infow("User logged in", "user_id", user.ID)
	http.Redirect(w, r, safeNext(page.Next), http.StatusFound)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	h.Pages.Render(w, http.StatusOK, "logout.html", web.Page{})
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	page := web.Page{UserID: userID}

	if r.Method != http.MethodPost {
		page.Form = CredentialsForm{Errors: apperr.NewValidationError()}
		h.Pages.Render(w, http.StatusOK, "signup.html", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	req := model.SignUpRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Confirm:  r.PostForm.Get("confirm"),
	}
	if _, err := h.Service.SignUp(r.Context(), req); err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			page.Form = CredentialsForm{Username: req.Username, Errors: verr}
			h.Pages.Render(w, http.StatusOK, "signup.html", page)
			return
		}
		logger.Sugar.Errorf("Handler: signup failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, LoginURL, http.StatusFound)
}

// IssueToken exchanges credentials for a bearer token.
func (h *UserHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.Service.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		logger.Sugar.Errorf("API: token request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	token, expires, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.Sugar.Errorf("API: failed to issue token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token, ExpiresAt: expires})
}

// safeNext only follows local paths so the login form cannot be used as an
// open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return AfterLoginURL
	}
	return next
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
