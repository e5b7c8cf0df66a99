package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/feuerwache/kantine/internal/auth"
	"github.com/feuerwache/kantine/internal/errs"
	"github.com/feuerwache/kantine/internal/model"
)

type Storage interface {
	GetAdminByID(ctx context.Context, id int) (model.Admin, error)
}

type contextKey string

const AdminContextKey contextKey = "admin"

func AuthMiddleware(store Storage, tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			adminID, err := tm.ParseToken(tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			admin, err := store.GetAdminByID(r.Context(), adminID)
			if err != nil {
				if err == errs.ErrAdminNotFound {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
