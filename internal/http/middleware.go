package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/service"
)

// requestLogger attaches a request-scoped logger to the context and writes one
// access line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			var event *zerolog.Event
			switch {
			case status >= 500:
				event = reqLogger.Error()
			case status >= 400:
				event = reqLogger.Warn()
			default:
				event = reqLogger.Info()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// loggerFrom returns the request logger, or fallback outside requestLogger.
func loggerFrom(r *http.Request, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}

// authenticate resolves an optional bearer token into a principal. Requests
// without a token continue anonymously; a bad token is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.GetBearerToken(r.Header)
		if errors.Is(err, auth.ErrNoAuthorizationHeader) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		principal, err := s.tokens.ValidateJWT(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			// /auth/me is mounted outside /api and has not been through authenticate.
			token, err := auth.GetBearerToken(r.Header)
			if err != nil {
				s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication credentials were not provided")
				return
			}
			principal, err := s.tokens.ValidateJWT(token)
			if err != nil {
				s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			r = r.WithContext(auth.WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if !principal.IsStaff {
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Staff permission required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func actorFromRequest(r *http.Request) service.Actor {
	principal, _ := auth.PrincipalFromContext(r.Context())
	return service.Actor{UserID: principal.UserID, IsStaff: principal.IsStaff}
}
