package middleware

import (
	"context"
	"net/http"
	"strings"

	"medicart/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Middleware func(httprouter.Handle) httprouter.Handle

// Chain composes middlewares left to right around a handler.
func Chain(mws ...Middleware) Middleware {
	return func(h httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return globals.JwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Store identity in context
		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		ctx = context.WithValue(ctx, globals.TokenKey, tokenString)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireRoles refuses the request unless the authenticated role matches
// one of the given roles.
func RequireRoles(roles ...string) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			role, _ := r.Context().Value(globals.RoleKey).(string)
			for _, want := range roles {
				if strings.EqualFold(role, want) {
					next(w, r, ps)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
}
