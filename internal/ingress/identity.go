package ingress

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// userHint pulls a subject claim from a bearer token without verifying
// it. The value only enriches log records; authentication stays with
// the host application.
func userHint(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	token, _, err := jwt.NewParser().ParseUnverified(strings.TrimPrefix(auth, prefix), jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	for _, key := range []string{"sub", "uid", "user_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
