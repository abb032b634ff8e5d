package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	auth "github.com/chainballot/chainballot/internal/auth"
)

type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer wires the route table. Write routes require a bearer token,
// reads are open.
func NewServer(address string, authService *auth.Service, authHandler *AuthHandler, electionHandler *ElectionHandler, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.HandleFunc("POST /api/elections", requireUser(authService, electionHandler.Create))
	mux.HandleFunc("GET /api/elections", electionHandler.List)
	mux.HandleFunc("GET /api/elections/{id}", electionHandler.Get)
	mux.HandleFunc("POST /api/elections/{id}/candidates", requireUser(authService, electionHandler.RegisterCandidate))
	mux.HandleFunc("POST /api/elections/{id}/vote", requireUser(authService, electionHandler.CastVote))
	mux.HandleFunc("GET /api/elections/{id}/results", electionHandler.Results)
	mux.HandleFunc("GET /api/verify/vote/{txHash}", electionHandler.VerifyVote)

	return &Server{
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Handler exposes the route table for in-process serving.
func (server *Server) Handler() http.Handler {
	return server.server.Handler
}

func (server *Server) Start() error {
	server.logger.Info().Str("address", server.server.Addr).Msg("http server listening")

	err := server.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

func (server *Server) Shutdown(ctx context.Context) error {
	return server.server.Shutdown(ctx)
}
