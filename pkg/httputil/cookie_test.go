package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")
	token, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "from-query", token)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "from-cookie"})
	token, err = GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	token, err = GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "from-header", token)

	_, err = GetTokenFromRequest(httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.ErrorIs(t, err, ErrNoToken)
}
