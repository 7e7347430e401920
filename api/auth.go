package api

import (
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when basic auth is configured without a password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// BasicAuth protects the API with a single shared password. Only the bcrypt
// hash is kept in memory; the username is ignored.
type BasicAuth struct {
	hash   []byte
	exempt []string
	logger *zap.Logger
}

// NewBasicAuth hashes password with cost; exempt paths skip the check.
func NewBasicAuth(password string, cost int, logger *zap.Logger, exempt ...string) (*BasicAuth, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasicAuth{hash: hash, exempt: exempt, logger: logger}, nil
}

// Verify reports whether password matches.
func (a *BasicAuth) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

// Middleware rejects requests without valid credentials with 401.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || slices.Contains(a.exempt, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok || !a.Verify(password) {
			a.logger.Warn("authentication failed",
				zap.String("path", r.URL.Path),
				zap.String("ip", clientIP(r)),
				zap.Bool("credentials_present", ok))
			w.Header().Set("WWW-Authenticate", `Basic realm="mindmap", charset="UTF-8"`)
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:   "Unauthorized",
				Message: "Valid credentials are required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
