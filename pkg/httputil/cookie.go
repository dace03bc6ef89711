package httputil

import (
	"errors"
	"net/http"
	"strings"
)

const (
	AuthCookieName = "auth_token"
	TokenQueryKey  = "token"
)

var ErrNoToken = errors.New("no auth token found in query, cookie or header")

// GetTokenFromCookie extracts the JWT token from the auth cookie
func GetTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return "", errors.New("auth cookie not found")
	}

	if cookie.Value == "" {
		return "", errors.New("auth cookie is empty")
	}

	return cookie.Value, nil
}

// GetTokenFromRequest looks at the token query parameter first since
// browsers cannot set headers on a WebSocket upgrade, then the auth cookie,
// then the Authorization header.
func GetTokenFromRequest(r *http.Request) (string, error) {
	if token := strings.TrimSpace(r.URL.Query().Get(TokenQueryKey)); token != "" {
		return token, nil
	}

	if token, err := GetTokenFromCookie(r); err == nil {
		return token, nil
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}

	return "", ErrNoToken
}
