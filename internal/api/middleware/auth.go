package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/toki/internal/api/presenter"
)

const adminRole = "admin"

// AdminAuth is a middleware that checks for admin privileges in an HMAC signed JWT.
// onFailure (optional) is called for every rejected request.
func AdminAuth(signingKey []byte, onFailure func()) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(msg string) {
				if onFailure != nil {
					onFailure()
				}
				presenter.Error(w, r, msg, http.StatusUnauthorized)
			}

			auth := r.Header.Get("Authorization")
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			if tokenStr == "" {
				reject("login required")
				return
			}

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				reject("invalid session token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				reject("invalid claims")
				return
			}

			roles, ok := claims["roles"].([]any)
			if !ok {
				reject("invalid claims")
				return
			}

			hasPrivilege := false
			for _, roleAny := range roles {
				roleStr, ok := roleAny.(string)
				if !ok {
					continue
				}
				if roleStr == adminRole {
					hasPrivilege = true
					break
				}
			}
			if !hasPrivilege {
				reject("insufficient privileges")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SignAdminToken creates a bearer token accepted by AdminAuth.
func SignAdminToken(signingKey []byte, subject string, claims jwt.MapClaims) (string, error) {
	all := jwt.MapClaims{
		"sub":   subject,
		"roles": []string{adminRole},
	}
	for k, v := range claims {
		all[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString(signingKey)
}
