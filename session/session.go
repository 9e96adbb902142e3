// Package session owns the per-request identity context and the store for
// navigation-scoped checkout sessions. Identity is an explicit value passed
// to whatever needs it, not an ambient lookup.
package session

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Session carries the caller's identity for one request: the raw bearer
// token (forwarded upstream) plus the verified user id and role.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// WireUserID is the value sent as the X-User-Id header: the userId claim
// decoded from the token's payload, falling back to the verified user id.
// Decoding is deliberately unverified — the upstream services verify the
// token themselves; this header is a best-effort convenience.
func (s *Session) WireUserID() string {
	raw := strings.TrimPrefix(s.Token, "Bearer ")
	if raw != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil {
			switch id := claims["userId"].(type) {
			case string:
				if id != "" {
					return id
				}
			case float64:
				// Numeric JSON claims decode as float64.
				return strconv.FormatInt(int64(id), 10)
			}
		}
	}
	return s.UserID
}
