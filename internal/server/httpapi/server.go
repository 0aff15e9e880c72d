// Package httpapi exposes the engine over HTTP with CBOR request and
// response bodies. Every operation is a POST to a named route; the
// response envelope carries success, error and kind fields so clients
// never have to interpret HTTP status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/server/auth"
	"github.com/taskhive/taskhive/internal/server/dispatch"
	"github.com/taskhive/taskhive/internal/server/metrics"
	"github.com/taskhive/taskhive/internal/server/projects"
)

type Server struct {
	address  string
	logger   logging.Logger
	auth     *auth.Service
	projects *projects.Service
	dispatch *dispatch.Service
	metrics  *metrics.Recorder
}

func NewServer(address string, logger logging.Logger, authSvc *auth.Service,
	projectSvc *projects.Service, dispatchSvc *dispatch.Service, recorder *metrics.Recorder) *Server {
	return &Server{
		address:  address,
		logger:   logger.With("module", "httpapi"),
		auth:     authSvc,
		projects: projectSvc,
		dispatch: dispatchSvc,
		metrics:  recorder,
	}
}

// Router builds the route table. Exposed separately from Run so tests
// can drive the handlers through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/createNewProject", s.handleCreateProject)
	r.Post("/createNewBlob", s.handleCreateBlob)
	r.Post("/blobToTask", s.handleBlobToTask)
	r.Post("/getBlobMetadata", s.handleGetBlobMetadata)
	r.Post("/getBlob", s.handleGetBlob)
	r.Post("/deleteBlob", s.handleDeleteBlob)
	r.Post("/getTasks", s.handleGetTasks)
	r.Post("/sendTasks", s.handleSendTasks)
	r.Post("/getGraphs", s.handleGetGraphs)
	r.Post("/updateCustomGraphs", s.handleUpdateCustomGraphs)
	r.Post("/getProjectsList", s.handleGetProjectsList)
	r.Post("/ping", s.handlePing)

	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request handled",
			"path", r.URL.Path, "duration", time.Since(start))
	})
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
