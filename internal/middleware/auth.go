package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Kavicki-com/gymapp/internal/auth"
	"github.com/Kavicki-com/gymapp/internal/models"
	log "github.com/sirupsen/logrus"
)

type contextKey string

// UserContextKey holds the caller's *models.Claims in the request context.
const UserContextKey contextKey = "user"

// publicRoutes are served without a bearer token.
var publicRoutes = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/register": true,
	"/api/auth/refresh":  true,
	"/health":            true,
	"/metrics":           true,
}

// AuthMiddleware guards the gym API with access tokens issued by auth.Service.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates the middleware over authService.
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate resolves the bearer token into claims and stores them in the
// request context. Public routes pass through untouched.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicRoutes[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		claims, err := m.authService.ValidateToken(header)
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		case err != nil:
			log.WithError(err).WithField("path", r.URL.Path).Debug("Rejected token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), claims)))
	})
}

// guard builds a middleware that lets a request through when allowed accepts
// the caller's claims.
func guard(allowed func(*models.Claims) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}
			if !allowed(claims) {
				log.WithFields(log.Fields{"user_id": claims.UserID, "role": claims.Role, "path": r.URL.Path}).
					Info("Denied request")
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits the given role and admins.
func (m *AuthMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return guard(func(c *models.Claims) bool {
		return c.Role == role || c.Role == models.RoleAdmin
	})
}

// RequirePermission admits roles allowed to perform action.
func (m *AuthMiddleware) RequirePermission(action string) func(http.Handler) http.Handler {
	return guard(func(c *models.Claims) bool {
		return c.Role.Can(action)
	})
}

// ContextWithUser returns a copy of ctx carrying the user claims.
func ContextWithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext returns the claims stored by Authenticate.
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// RateLimitMiddleware limits requests per client address over a sliding window.
type RateLimitMiddleware struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

// NewRateLimitMiddleware creates an empty limiter.
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{hits: make(map[string][]time.Time), now: time.Now}
}

// allow records a hit for client and reports whether it fits in the window.
// When it does not, wait is how long until the oldest hit expires. A max of
// zero or less disables the limit.
func (m *RateLimitMiddleware) allow(client string, max int, window time.Duration) (ok bool, wait time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.hits[client][:0]
	for _, t := range m.hits[client] {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	if max > 0 && len(recent) >= max {
		m.hits[client] = recent
		return false, window - now.Sub(recent[0])
	}
	m.hits[client] = append(recent, now)
	return true, 0
}

// RateLimit rejects a client's requests beyond maxRequests per window with 429
// and a Retry-After header.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	if window < time.Second {
		window = time.Second
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := getClientIP(r)
			ok, wait := m.allow(client, maxRequests, window)
			if !ok {
				log.WithFields(log.Fields{"client_ip": client, "path": r.URL.Path}).Warn("Rate limit exceeded")
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP prefers the proxy headers over the connection address.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		addr = addr[:i]
	}
	return addr
}
