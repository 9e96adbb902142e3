package rdx

import (
	"os"

	"medicart/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

// Init connects to redis; checkout sessions and per-checkout locks live there.
func Init() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
	return Conn.Ping(globals.Ctx).Err()
}
