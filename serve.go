package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yanote/config"
	"yanote/config/database"
	"yanote/internal/auth"
	noteRepository "yanote/internal/note/repository"
	noteService "yanote/internal/note/service"
	userRepository "yanote/internal/user/repository"
	userService "yanote/internal/user/service"
	"yanote/middleware"
	"yanote/pkg/logger"
	"yanote/router"
	"yanote/socket"
	"yanote/web"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stores holds the repositories selected by the STORE setting.
type stores struct {
	notes noteRepository.Repository
	users userRepository.Repository
	db    *sql.DB
}

func (s stores) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func openStores(cfg *config.Config) (stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Sugar.Warn("Using in-memory store, notes are lost on restart")
		return stores{
			notes: noteRepository.NewMemoryRepository(),
			users: userRepository.NewMemoryRepository(),
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		db.Close()
		return stores{}, err
	}
	return stores{
		notes: noteRepository.NewNoteRepository(db),
		users: userRepository.NewUserRepository(db),
		db:    db,
	}, nil
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := socket.NewHub()
	go hub.Run(ctx)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	go loginLimiter.StartCleanupWorker(ctx, 5*time.Minute)

	handler := router.Setup(router.Deps{
		Notes:          noteService.NewNoteService(st.notes, hub),
		Users:          userService.NewUserService(st.users),
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Hub:            hub,
		Pages:          web.MustRenderer(),
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("yanote listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
