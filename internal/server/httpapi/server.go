// Package httpapi exposes the service layer over HTTP JSON. Errors map to
// status codes (not found → 404, state conflict → 409, auth → 401,
// validation → 400); everything else is a 500 with the detail only logged.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lucasvieira/questify/internal/logging"
	"github.com/lucasvieira/questify/internal/server/models"
	"github.com/lucasvieira/questify/internal/server/services"
)

// UserService is the account surface the handlers need.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetProfile(ctx context.Context, userID string) (*services.Profile, error)
}

// MissionService is the mission CRUD surface the handlers need.
type MissionService interface {
	Create(ctx context.Context, userID string, input services.CreateMissionInput) (*models.Mission, error)
	List(ctx context.Context, userID string) ([]*models.Mission, error)
	Delete(ctx context.Context, userID, missionID string) error
}

// ProgressionService is the progression surface the handlers need.
type ProgressionService interface {
	CompleteMission(ctx context.Context, userID, missionID string) (int, error)
	RebuildStats(ctx context.Context, userID string) (*models.StatsProjection, error)
}

type Server struct {
	address     string
	logger      logging.Logger
	users       UserService
	missions    MissionService
	progression ProgressionService
	jwtSecret   []byte
}

func NewServer(address string, l logging.Logger, us UserService, ms MissionService, ps ProgressionService, secretKey string) *Server {
	return &Server{
		address:     address,
		logger:      l.With("module", "http_server"),
		users:       us,
		missions:    ms,
		progression: ps,
		jwtSecret:   []byte(secretKey),
	}
}

// Routes builds the request multiplexer. Exported so tests can drive the
// full routing table through httptest.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/profile", s.withAuth(s.handleProfile))
	mux.HandleFunc("GET /api/missions", s.withAuth(s.handleListMissions))
	mux.HandleFunc("POST /api/missions", s.withAuth(s.handleCreateMission))
	mux.HandleFunc("POST /api/missions/{id}/complete", s.withAuth(s.handleCompleteMission))
	mux.HandleFunc("DELETE /api/missions/{id}", s.withAuth(s.handleDeleteMission))
	mux.HandleFunc("POST /api/stats/rebuild", s.withAuth(s.handleRebuildStats))

	return s.withLogging(mux)
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
