package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/request"
	"github.com/abcode/codelens/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth creates authentication middleware that validates JWT bearer tokens
// against the configured OIDC issuer and resolves the local user record,
// creating it on first sight of a new subject.
func Auth(users database.UserRepositoryInterface, provider *oidc.Provider, verifier *oidc.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
				return
			}

			tokenString := parts[1]
			ctx := r.Context()

			jwksURL := provider.JWKSURL(ctx)
			claims, err := verifier.Verify(ctx, tokenString, jwksURL)
			if err != nil {
				logger.Warn("token_verification_failed",
					zap.Error(err),
					zap.String("jwks_url", jwksURL),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			user, err := users.GetByProviderID(ctx, claims.Sub)
			if err != nil {
				if errors.Is(err, database.ErrUserNotFound) {
					// First request from this subject, create the local record
					user = &models.User{
						ID:            uuid.New(),
						Email:         claims.Email,
						ProviderID:    &claims.Sub,
						Name:          &claims.Name,
						EmailVerified: true,
					}
					if err := users.Create(ctx, user); err != nil {
						logger.Error("user_create_failed", zap.Error(err))
						respondError(w, http.StatusInternalServerError, "Failed to create user", logger)
						return
					}
				} else {
					logger.Error("user_lookup_failed", zap.Error(err))
					respondError(w, http.StatusInternalServerError, "Database error", logger)
					return
				}
			} else {
				// Keep the local record in sync with the token claims
				updateNeeded := false
				if user.Email != claims.Email {
					user.Email = claims.Email
					updateNeeded = true
				}
				if (user.Name == nil && claims.Name != "") || (user.Name != nil && *user.Name != claims.Name) {
					name := claims.Name
					user.Name = &name
					updateNeeded = true
				}
				if updateNeeded {
					if err := users.Update(ctx, user); err != nil {
						logger.Warn("user_update_failed", zap.Error(err))
					}
				}
			}

			ctx = request.WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_error_response", zap.Error(err))
	}
}
