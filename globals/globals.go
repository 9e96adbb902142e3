package globals

import (
	"context"
	"os"
)

// JwtSecret verifies the bearer tokens minted by the auth service.
var JwtSecret = []byte(envOr("JWT_SECRET", "medicart_dev_secret"))

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const RoleKey ContextKey = "role"
const TokenKey ContextKey = "token"

var Ctx = context.Background()

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
