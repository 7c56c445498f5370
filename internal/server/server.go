package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	_ "github.com/jonathan/talent-pipeline/internal/server/docs"
	"github.com/jonathan/talent-pipeline/internal/server/middleware"
	"github.com/jonathan/talent-pipeline/internal/server/ratelimit"
	"github.com/jonathan/talent-pipeline/internal/types"
	httpSwagger "github.com/swaggo/http-swagger"
)

const maxBodyBytes = 1 << 20

// EmployeeReader lists employees created by conversion.
type EmployeeReader interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*types.Employee, error)
	ListEmployees(ctx context.Context) ([]*types.Employee, error)
}

// Config holds server configuration
type Config struct {
	Addr      string
	RateLimit *ratelimit.Config
}

// Deps are the collaborators the handlers call. Service, Users, JWT and Passwords are required.
type Deps struct {
	Service   *recruitment.Service
	Users     UserStore
	Employees EmployeeReader
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	service     *recruitment.Service
	employees   EmployeeReader
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Service == nil || deps.Users == nil {
		return nil, fmt.Errorf("server requires a recruitment service and a user store")
	}
	if deps.JWT == nil || deps.Passwords == nil {
		return nil, fmt.Errorf("server requires JWT and password configuration")
	}

	s := &Server{
		service:     deps.Service,
		employees:   deps.Employees,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		jwtService:  NewJWTService(deps.JWT),
	}
	s.authHandler = NewAuthHandler(NewUserService(deps.Users, deps.Passwords), s.jwtService)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /me", s.authHandler.Me)

	api.HandleFunc("POST /profiles", s.handleCreateProfile)
	api.HandleFunc("GET /profiles/by-email", s.handleGetProfileByEmail)
	api.HandleFunc("GET /profiles/{id}", s.handleGetProfile)
	api.HandleFunc("PATCH /profiles/{id}", s.handleUpdateProfile)
	api.HandleFunc("POST /profiles/{id}/archive", s.handleArchiveProfile)

	api.HandleFunc("POST /applications", s.handleCreateApplication)
	api.HandleFunc("POST /apply", s.handleApply)
	api.HandleFunc("GET /applications", s.handleListApplications)
	api.HandleFunc("GET /applications/by-email", s.handleListApplicationsByEmail)
	api.HandleFunc("GET /applications/{id}", s.handleGetApplication)
	api.HandleFunc("PATCH /applications/{id}", s.handleUpdateApplication)
	api.HandleFunc("POST /applications/{id}/archive", s.handleArchiveApplication)

	api.HandleFunc("POST /applications/{id}/move", s.handleMoveStage)
	api.HandleFunc("POST /applications/{id}/hire", s.handleMarkHired)
	api.HandleFunc("POST /applications/{id}/cancel", s.handleMarkCanceled)
	api.HandleFunc("POST /applications/{id}/onboarding", s.handleStartOnboarding)
	api.HandleFunc("PUT /applications/{id}/offer-letter", s.handleSetOfferLetterStatus)
	api.HandleFunc("POST /applications/{id}/convert", s.handleConvert)

	api.HandleFunc("POST /applications/{id}/interviews", s.handleScheduleInterview)
	api.HandleFunc("GET /applications/{id}/interviews", s.handleListInterviews)
	api.HandleFunc("POST /interviews/{id}/complete", s.handleCompleteInterview)

	api.HandleFunc("POST /applications/{id}/notes", s.handleAddNote)
	api.HandleFunc("GET /applications/{id}/notes", s.handleListNotes)
	api.HandleFunc("DELETE /notes/{id}", s.handleDeleteNote)

	api.HandleFunc("POST /applications/{id}/survey-answers", s.handleSubmitSurveyAnswer)
	api.HandleFunc("GET /applications/{id}/survey-answers", s.handleListSurveyAnswers)

	api.HandleFunc("POST /recruitments", s.handleCreateRecruitment)
	api.HandleFunc("GET /recruitments", s.handleListRecruitments)
	api.HandleFunc("GET /recruitments/{id}", s.handleGetRecruitment)
	api.HandleFunc("PUT /recruitments/{id}/stages/{stage_id}/order", s.handleReorderStage)
	api.HandleFunc("POST /recruitments/{id}/survey-questions", s.handleAddSurveyQuestion)
	api.HandleFunc("GET /recruitments/{id}/survey-questions", s.handleListSurveyQuestions)

	api.HandleFunc("GET /history/{entity}/{id}", s.handleHistory)

	api.HandleFunc("GET /employees", s.handleListEmployees)
	api.HandleFunc("GET /employees/{id}", s.handleGetEmployee)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	mux.Handle("/", middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(api))

	return s.withRateLimit(s.withLogging(mux))
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("[server] stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[server] %s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// withRateLimit rejects clients over their limit with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())+1))
			}
			log.Printf("[rate-limit] %s exceeded limit on %s %s", clientID(r), r.Method, r.URL.Path)
			jsonResponse(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "rate_limit_exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor returns the audit actor for the authenticated caller.
func actor(r *http.Request) types.Actor {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		return types.Actor{}
	}
	return types.Actor{ID: id.UserID, Admin: id.Role == types.RoleAdmin}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrBadRequest{Message: fmt.Sprintf("invalid %s: %q", name, raw)}
	}
	return id, nil
}

// decodeJSON decodes a bounded request body into dst and runs tag validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrBadRequest{Message: "request body is required"}
		}
		return &ErrBadRequest{Message: "Invalid request body: " + err.Error()}
	}
	if err := types.Validate(dst); err != nil {
		return &ErrBadRequest{Message: extractValidationErrors(err)}
	}
	return nil
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps err to a status and code. Internal errors are logged, not returned.
func serviceError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		message = "internal server error"
	}
	jsonResponse(w, status, map[string]string{"error": message, "code": ErrorCode(err)})
}
