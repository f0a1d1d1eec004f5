package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"payables_service/internal/handlers"
)

type Server struct {
	httpServer *http.Server
}

// NewServer wires the routes. Everything except /health sits behind the auth
// middleware so every mutation carries an actor for the audit stamps.
func NewServer(port string, h *handlers.Handlers, authMW func(http.Handler) http.Handler) *Server {
	api := http.NewServeMux()

	if h != nil {
		api.HandleFunc("POST /obligations", h.CreateObligation)
		api.HandleFunc("GET /obligations", h.ListObligations)
		api.HandleFunc("POST /obligations/{id}/approve", h.ApproveObligation)
		api.HandleFunc("POST /obligations/{id}/schedules", h.CreateSchedule)

		api.HandleFunc("GET /schedules", h.ListSchedules)
		api.HandleFunc("POST /schedules/{id}/approve", h.ApproveSchedule)
		api.HandleFunc("POST /schedules/{id}/reject", h.RejectSchedule)
		api.HandleFunc("POST /schedules/{id}/cancel", h.CancelSchedule)
		api.HandleFunc("POST /schedules/{id}/execute", h.ExecuteSchedule)
		api.HandleFunc("GET /schedules/{id}/decisions", h.ListDecisions)

		api.HandleFunc("GET /reports/aging", h.AgingReport)
		api.HandleFunc("GET /reports/credit-risk", h.CreditRiskReport)
		api.HandleFunc("POST /reports/aging/export", h.ExportAging)
		api.HandleFunc("POST /reports/credit-risk/export", h.ExportCreditRisk)
		api.HandleFunc("GET /reports/exports", h.ListExports)
		api.HandleFunc("GET /reports/exports/{id}", h.GetExport)
	}

	var protected http.Handler = api
	if authMW != nil {
		protected = authMW(api)
	}

	mux := http.NewServeMux()
	if h != nil {
		mux.HandleFunc("GET /health", h.Health)
	}
	mux.Handle("/", protected)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
