// Package cli is the interactive front end: a small REPL over the auth and
// task services. It owns all user-visible wording; the services below it
// only return sentinel errors.
package cli

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/config"
	"github.com/andrejsk/taskvault/internal/keystore"
	"github.com/andrejsk/taskvault/internal/logging"
	"github.com/andrejsk/taskvault/internal/models"
	"github.com/andrejsk/taskvault/internal/services"
	"github.com/andrejsk/taskvault/internal/storage"
)

type App struct {
	config      *config.Config
	log         logging.Logger
	authService *services.AuthService
	taskService *services.TaskService
	repos       *storage.Repositories
	reader      *bufio.Reader
	currentUser *models.User
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	log = log.With("session_id", uuid.NewString())

	keys := keystore.New(cfg.MasterKeyPath)
	// Fail fast: a corrupt key store must halt before any operation runs.
	if _, err := keys.LoadOrCreate(); err != nil {
		return nil, err
	}

	repos, err := storage.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return &App{
		config:      cfg,
		log:         log,
		authService: services.NewAuthService(repos.Users, cfg.LegacyPasswordMigration, log),
		taskService: services.NewTaskService(repos.DB, keys, log),
		repos:       repos,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.repos.Close() }()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.currentUser != nil
}

// message translates sentinel errors into the user-facing wording.
func message(err error) string {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return "Task not found"
	case errors.Is(err, common.ErrorNotAuthorized):
		return "You do not have access to this task"
	case errors.Is(err, common.ErrorAccessDenied):
		return "Encrypted data cannot be decrypted for this user"
	case errors.Is(err, common.ErrorUsernameTaken):
		return "Username already exists"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, common.ErrorNoUpdates):
		return "No updates provided"
	default:
		return err.Error()
	}
}
