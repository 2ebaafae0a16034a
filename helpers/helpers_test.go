package helpers

import (
	"net/http"
	"net/http/httptest"

	"github.com/jamesread/strategyshim/authpublic"
)

type fakeStrategy struct {
	name string
}

func (s *fakeStrategy) Defaults() authpublic.StrategyDefaults {
	return authpublic.StrategyDefaults{}
}

func (s *fakeStrategy) HandleRequest(conn *authpublic.Conn) authpublic.Result {
	return authpublic.Continue
}

func (s *fakeStrategy) HandleCallback(conn *authpublic.Conn) authpublic.Result {
	return authpublic.Continue
}

func newTestConn(method, target string) (*authpublic.Conn, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return authpublic.NewConn(rec, req, false), rec
}

func newConfiguredConn(method, target string) (*authpublic.Conn, *httptest.ResponseRecorder) {
	conn, rec := newTestConn(method, target)
	conn.Private = &authpublic.RequestContext{
		StrategyName:    "github",
		Strategy:        &fakeStrategy{name: "github"},
		RequestPath:     "/auth/github",
		CallbackPath:    "/auth/github/callback",
		CallbackMethods: []string{http.MethodGet, http.MethodPost},
		Options:         authpublic.Options{"scope": "read:user", "retries": 3},
	}
	return conn, rec
}
