// Package server assembles and runs the taskhive server: in-memory
// stores, the auth, project and dispatch services, the metrics
// recorder and the HTTP endpoint, with graceful shutdown on OS
// signals.
package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/server/auth"
	"github.com/taskhive/taskhive/internal/server/config"
	"github.com/taskhive/taskhive/internal/server/dispatch"
	"github.com/taskhive/taskhive/internal/server/httpapi"
	"github.com/taskhive/taskhive/internal/server/metrics"
	"github.com/taskhive/taskhive/internal/server/projects"
	"github.com/taskhive/taskhive/internal/server/users"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	authService     *auth.Service
	projectService  *projects.Service
	dispatchService *dispatch.Service
	recorder        *metrics.Recorder
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	userRepo := users.NewMemoryRepository()
	sessionRepo := auth.NewMemorySessionRepository()
	projectRepo := projects.NewMemoryRepository()

	recorder := metrics.NewRecorder()
	projectService := projects.NewService(projectRepo, recorder)
	dispatchService := dispatch.NewService(projectRepo, recorder, logger, c.MaxTasksPerRequest)
	authService := auth.NewService(userRepo, sessionRepo, dispatchService, c)

	return &App{
		config:          c,
		logger:          logger,
		authService:     authService,
		projectService:  projectService,
		dispatchService: dispatchService,
		recorder:        recorder,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger,
		app.authService, app.projectService, app.dispatchService, app.recorder)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
