package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/auth"
	"tourbook/internal/config"
	"tourbook/internal/metrics"
	"tourbook/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionIDHeader = "X-Session-ID"
)

// Services are the view builders the transports expose.
type Services struct {
	Reservations *service.ReservationService
	Payments     *service.PaymentService
	Maps         *service.MapService
	Selection    *service.SelectionService
	Likes        *service.LikeService
}

// HealthCheck is one dependency probed by /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HTTPServer serves the JSON views.
type HTTPServer struct {
	cfg       config.APIConfig
	svc       Services
	validator auth.TokenValidator
	checks    []HealthCheck
	auth      *clientAuth
	server    *http.Server
	log       zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, validator auth.TokenValidator, logger *zerolog.Logger, checks ...HealthCheck) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		svc:       svc,
		validator: validator,
		checks:    checks,
		auth:      newClientAuth(cfg),
		log:       zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	// subrouters report their own method mismatches
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	v1.Use(s.authMiddleware, s.viewerMiddleware)

	v1.HandleFunc("/users/{userID}/posts/{postID}/reservations.xlsx", s.handleReservationsExport).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/posts/{postID}/reservations", s.handleReservations).Methods(http.MethodGet)
	v1.HandleFunc("/payments/{paymentID}", s.handlePayment).Methods(http.MethodGet)
	v1.HandleFunc("/posts/{postID}/map", s.handleMap).Methods(http.MethodGet)
	v1.HandleFunc("/posts/{postID}/like", s.handleGetLike).Methods(http.MethodGet)
	v1.HandleFunc("/posts/{postID}/like", s.handleToggleLike).Methods(http.MethodPost)
	v1.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	v1.HandleFunc("/calendar/select", s.handleSelect).Methods(http.MethodPost)
	v1.HandleFunc("/calendar/select", s.handleResetSelection).Methods(http.MethodDelete)

	var h http.Handler = r
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.cfg.CORS.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", sessionIDHeader, s.auth.apiKeyHeader, s.auth.extraHeader}),
			handlers.ExposedHeaders([]string{sessionIDHeader, requestIDHeader}),
		)(h)
	}
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}))(h)
}

// Handler exposes the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(s.auth.apiKeyHeader))
		extra := strings.TrimSpace(r.Header.Get(s.auth.extraHeader))
		if err := s.auth.authenticate(apiKey, extra, requiredPermissionHTTP(r)); err != nil {
			statusCode := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				statusCode = http.StatusForbidden
			}
			writeError(w, statusCode, err.Error())
			return
		}

		if err := s.auth.allow(httpClientKey(r, apiKey)); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requiredPermissionHTTP(r *http.Request) string {
	switch {
	case r.Method == http.MethodGet:
		return permReadViews
	case strings.HasPrefix(r.URL.Path, "/api/v1/calendar"):
		return permWriteCalendar
	default:
		return permWriteLikes
	}
}

func httpClientKey(r *http.Request, apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return hostKey(r.RemoteAddr)
}

// viewerMiddleware attaches the signed-in user when a valid Supabase access
// token is present. Requests without one continue anonymously.
func (s *HTTPServer) viewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r)
		if token == "" || s.validator == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.validator.Validate(token)
		if err != nil {
			s.log.Debug().Err(err).Msg("rejected access token")
			writeError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		ctx := auth.WithViewer(r.Context(), auth.ViewerFromClaims(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpoint)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("endpoint", endpoint).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(v...))
}
