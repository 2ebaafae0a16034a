package hasbearer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(header string) *authpublic.Config {
	return &authpublic.Config{
		BearerToken: authpublic.BearerTokenConfig{
			Header: header,
			Tokens: map[string]*authpublic.BearerTokenUser{
				"test-token": {
					Username:  "testuser",
					Usergroup: "testgroup",
				},
			},
		},
	}
}

func newConn(s *BearerStrategy, req *http.Request) (*authpublic.Conn, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	conn := authpublic.NewConn(rec, req, false)
	conn.Private = &authpublic.RequestContext{
		StrategyName:    "bearer",
		Strategy:        s,
		RequestPath:     "/auth/bearer",
		CallbackPath:    "/auth/bearer/callback",
		CallbackMethods: []string{"GET", "POST"},
		Options:         s.Defaults().Options,
	}
	return conn, rec
}

func TestBearer_NoHeader(t *testing.T) {
	s := NewBearerStrategy(testConfig(""))
	conn, _ := newConn(s, httptest.NewRequest("GET", "/auth/bearer/callback", nil))

	s.HandleCallback(conn)

	assert.Nil(t, conn.Auth)
	assert.Equal(t, []string{"missing_token"}, conn.Failure.Keys())
}

func TestBearer_InvalidPrefix(t *testing.T) {
	s := NewBearerStrategy(testConfig(""))
	req := httptest.NewRequest("GET", "/auth/bearer/callback", nil)
	req.Header.Set("Authorization", "Basic dGVzdDp0ZXN0")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)

	assert.Nil(t, conn.Auth)
	assert.Equal(t, []string{"missing_token"}, conn.Failure.Keys())
}

func TestBearer_ValidToken(t *testing.T) {
	s := NewBearerStrategy(testConfig(""))
	req := httptest.NewRequest("GET", "/auth/bearer/callback", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)

	assert.Nil(t, conn.Failure)
	require.NotNil(t, conn.Auth)
	assert.Equal(t, "testuser", conn.Auth.Username)
	assert.Equal(t, "testgroup", conn.Auth.UsergroupLine)
	assert.Equal(t, "bearer", conn.Auth.Provider)
	assert.Equal(t, s, conn.Auth.Strategy)
}

func TestBearer_UnknownToken(t *testing.T) {
	s := NewBearerStrategy(testConfig(""))
	req := httptest.NewRequest("GET", "/auth/bearer/callback", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)

	assert.Nil(t, conn.Auth)
	require.NotNil(t, conn.Failure)
	assert.Equal(t, "bearer", conn.Failure.Provider)
	assert.Equal(t, []string{"invalid_token"}, conn.Failure.Keys())
}

func TestBearer_CustomHeader(t *testing.T) {
	s := NewBearerStrategy(testConfig("X-API-Token"))
	req := httptest.NewRequest("GET", "/auth/bearer/callback", nil)
	req.Header.Set("X-API-Token", "Bearer test-token")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)

	require.NotNil(t, conn.Auth)
	assert.Equal(t, "testuser", conn.Auth.Username)
}

func TestBearer_CustomHeaderIgnoresAuthorization(t *testing.T) {
	s := NewBearerStrategy(testConfig("X-API-Token"))
	req := httptest.NewRequest("GET", "/auth/bearer/callback", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)

	assert.Nil(t, conn.Auth)
	assert.Equal(t, []string{"missing_token"}, conn.Failure.Keys())
}

func TestBearer_RequestRedirectsToCallback(t *testing.T) {
	s := NewBearerStrategy(testConfig(""))
	conn, rec := newConn(s, httptest.NewRequest("GET", "http://example.com/auth/bearer", nil))

	assert.Equal(t, authpublic.Handled, s.HandleRequest(conn))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/auth/bearer/callback", rec.Header().Get("Location"))
}
