package hasbasic

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesread/strategyshim/authpublic"
	"github.com/jamesread/strategyshim/providers/haslocal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStrategy(t *testing.T) *BasicStrategy {
	hash, err := haslocal.CreateHash("s3cret")
	require.NoError(t, err)

	return NewBasicStrategy(&authpublic.Config{
		LocalUsers: authpublic.LocalUsersConfig{
			Users: []*authpublic.LocalUser{{Username: "bob", Usergroup: "dev", Password: hash}},
		},
	})
}

func newConn(s *BasicStrategy, req *http.Request) (*authpublic.Conn, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	conn := authpublic.NewConn(rec, req, false)
	conn.Private = &authpublic.RequestContext{
		StrategyName:    "basic",
		Strategy:        s,
		RequestPath:     "/auth/basic",
		CallbackPath:    "/auth/basic/callback",
		CallbackMethods: []string{"GET", "POST"},
		Options:         s.Defaults().Options,
	}
	return conn, rec
}

func TestBasic_RequestChallenges(t *testing.T) {
	s := newStrategy(t)
	conn, rec := newConn(s, httptest.NewRequest("GET", "/auth/basic", nil))

	assert.Equal(t, authpublic.Handled, s.HandleRequest(conn))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Restricted", charset="UTF-8"`, rec.Header().Get("WWW-Authenticate"))
}

func TestBasic_RequestWithCredentialsRedirects(t *testing.T) {
	s := newStrategy(t)
	req := httptest.NewRequest("GET", "http://example.com/auth/basic", nil)
	req.SetBasicAuth("bob", "s3cret")
	conn, rec := newConn(s, req)

	assert.Equal(t, authpublic.Handled, s.HandleRequest(conn))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/auth/basic/callback", rec.Header().Get("Location"))
}

func TestBasic_CallbackNoHeader(t *testing.T) {
	s := newStrategy(t)
	conn, _ := newConn(s, httptest.NewRequest("GET", "/auth/basic/callback", nil))

	s.HandleCallback(conn)
	assert.Equal(t, []string{"missing_credentials"}, conn.Failure.Keys())
}

func TestBasic_CallbackBadBase64(t *testing.T) {
	s := newStrategy(t)
	req := httptest.NewRequest("GET", "/auth/basic/callback", nil)
	req.Header.Set("Authorization", "Basic !!!")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)
	assert.Equal(t, []string{"missing_credentials"}, conn.Failure.Keys())
}

func TestBasic_CallbackValid(t *testing.T) {
	s := newStrategy(t)
	req := httptest.NewRequest("GET", "/auth/basic/callback", nil)
	req.SetBasicAuth("bob", "s3cret")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)
	assert.Nil(t, conn.Failure)
	require.NotNil(t, conn.Auth)
	assert.Equal(t, "bob", conn.Auth.Username)
	assert.Equal(t, "dev", conn.Auth.UsergroupLine)
	assert.Equal(t, "basic", conn.Auth.Provider)
}

func TestBasic_CallbackWrongPassword(t *testing.T) {
	s := newStrategy(t)
	req := httptest.NewRequest("GET", "/auth/basic/callback", nil)
	req.SetBasicAuth("bob", "guess")
	conn, _ := newConn(s, req)

	s.HandleCallback(conn)
	assert.Equal(t, []string{"invalid_credentials"}, conn.Failure.Keys())
	assert.Nil(t, conn.Auth)
}
