//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

type Storage interface {
	CreateContainer(ctx context.Context, data clearance.ExtractedData, filename string) (*clearance.Container, error)
	GetContainer(ctx context.Context, id string) (*clearance.Container, error)
	ListContainers(ctx context.Context, filter storage.ListFilter) ([]*clearance.Container, error)
	ValidateContainer(ctx context.Context, id string, force bool) (clearance.ValidationResult, error)
	CheckCustomsStatus(ctx context.Context, id string) (clearance.CustomsStatusResult, error)
	PayCustomsDuty(ctx context.Context, id string, amount decimal.Decimal, reference string) (clearance.PaymentResult, error)
	CheckShippingStatus(ctx context.Context, id string) (clearance.ShippingStatusResult, error)
	ScheduleInspection(ctx context.Context, id string) (clearance.InspectionScheduleResult, error)
	CompleteInspection(ctx context.Context, id string, passed bool) (clearance.InspectionResult, error)
	ReleaseContainer(ctx context.Context, id string) (clearance.ReleaseResult, error)
}

type UserRepo interface {
	ValidateUser(ctx context.Context, username, password string) (bool, error)
}

type AuditConfig struct {
	Workers   int
	BatchSize int
	Timeout   time.Duration
}

type Server struct {
	storage      Storage
	userRepo     UserRepo
	logger       *zap.Logger
	server       *http.Server
	AuditManager *AuditManager
}

func New(storage Storage, userRepo UserRepo, logger *zap.Logger, audit AuditConfig) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		storage:      storage,
		userRepo:     userRepo,
		logger:       logger,
		AuditManager: NewAuditManager(logger.Named("audit"), audit.Workers, audit.BatchSize, audit.Timeout),
	}
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.AuditManager.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("port", port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("http server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	return nil
}

// Handler returns the full route tree. /metrics and /healthz are served
// without authentication.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet).Name("healthz")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.auditLogMiddleware, s.basicAuthMiddleware)

	api.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost).Name("upload")
	api.HandleFunc("/containers", s.handleListContainers).Methods(http.MethodGet).Name("list_containers")
	api.HandleFunc("/containers/{id}", s.handleGetContainer).Methods(http.MethodGet).Name("get_container")
	api.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost).Name("validate")
	api.HandleFunc("/customs/status/{id}", s.handleCustomsStatus).Methods(http.MethodGet).Name("customs_status")
	api.HandleFunc("/customs/pay", s.handleCustomsPay).Methods(http.MethodPost).Name("customs_pay")
	api.HandleFunc("/shipping/status/{id}", s.handleShippingStatus).Methods(http.MethodGet).Name("shipping_status")
	api.HandleFunc("/inspection/schedule", s.handleScheduleInspection).Methods(http.MethodPost).Name("inspection_schedule")
	api.HandleFunc("/inspection/complete/{id}", s.handleCompleteInspection).Methods(http.MethodPost).Name("inspection_complete")
	api.HandleFunc("/inspection/release/{id}", s.handleRelease).Methods(http.MethodPost).Name("release")

	return router
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}

		valid, err := s.userRepo.ValidateUser(r.Context(), username, password)
		if err != nil {
			s.logger.Error("failed to validate user", zap.String("user", username), zap.Error(err))
		}
		if err != nil || !valid {
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
	respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}
