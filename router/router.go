package router

import (
	"net/http"

	"yanote/internal/auth"
	noteHandler "yanote/internal/note"
	noteService "yanote/internal/note/service"
	userHandler "yanote/internal/user"
	userService "yanote/internal/user/service"
	"yanote/middleware"
	"yanote/socket"
	"yanote/web"

	"github.com/gorilla/mux"
)

type Deps struct {
	Notes          *noteService.NoteService
	Users          *userService.UserService
	Tokens         *auth.TokenIssuer
	Hub            *socket.Hub
	Pages          *web.Renderer
	LoginLimiter   *middleware.RateLimiter
	AllowedOrigins []string
}

func Setup(d Deps) http.Handler {
	r := mux.NewRouter()

	notes := noteHandler.NewNoteHandler(d.Notes, d.Pages)
	notesAPI := noteHandler.NewAPIHandler(d.Notes)
	users := userHandler.NewUserHandler(d.Users, d.Tokens, d.Pages)
	login := middleware.RequireLogin(noteHandler.LoginURL)
	limit := d.LoginLimiter.LimitPOST

	// Pages
	r.Handle("/", http.HandlerFunc(notes.Home)).Methods(http.MethodGet)
	r.Handle("/notes/", login(http.HandlerFunc(notes.List))).Methods(http.MethodGet)
	r.Handle("/add/", login(http.HandlerFunc(notes.Add))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/edit/{slug}/", login(http.HandlerFunc(notes.Edit))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/note/{slug}/", login(http.HandlerFunc(notes.Detail))).Methods(http.MethodGet)
	r.Handle("/delete/{slug}/", login(http.HandlerFunc(notes.Delete))).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	r.Handle("/done/", login(http.HandlerFunc(notes.Success))).Methods(http.MethodGet)

	r.Handle("/auth/login/", limit(http.HandlerFunc(users.Login))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/auth/logout/", http.HandlerFunc(users.Logout)).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/auth/signup/", http.HandlerFunc(users.SignUp)).Methods(http.MethodGet, http.MethodPost)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())
		socket.ServeWs(d.Hub, w, r, userID)
	})
	r.Handle("/ws/notes/", middleware.RequireToken(wsHandler)).Methods(http.MethodGet)

	// REST API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.CORSMiddleware(d.AllowedOrigins))
	api.Handle("/auth/token/", limit(http.HandlerFunc(users.IssueToken))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/notes/", middleware.RequireToken(http.HandlerFunc(notesAPI.GetNotes))).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/notes/", middleware.RequireToken(http.HandlerFunc(notesAPI.CreateNote))).Methods(http.MethodPost)
	api.Handle("/notes/{slug}/", middleware.RequireToken(http.HandlerFunc(notesAPI.GetNote))).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/notes/{slug}/", middleware.RequireToken(http.HandlerFunc(notesAPI.UpdateNote))).Methods(http.MethodPut)
	api.Handle("/notes/{slug}/", middleware.RequireToken(http.HandlerFunc(notesAPI.DeleteNote))).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(notes.NotFound)

	return middleware.RequestLogger(middleware.Authenticate(d.Tokens, d.Users)(r))
}
