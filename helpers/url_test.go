package helpers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL_HttpsDefaultPort(t *testing.T) {
	conn, _ := newTestConn("GET", "/")
	conn.Host = "example.com"
	conn.Scheme = "https"
	conn.Port = 443

	built, err := BuildURL(conn, "/auth/foo", map[string]string{"a": "1 2"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/auth/foo?a=1+2", built)

	parsed, err := url.Parse(built)
	require.NoError(t, err)
	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "example.com", parsed.Host)
	assert.Equal(t, "/auth/foo", parsed.Path)
	assert.Equal(t, "1 2", parsed.Query().Get("a"))
}

func TestBuildURL_NonDefaultPort(t *testing.T) {
	conn, _ := newTestConn("GET", "/")
	conn.Host = "localhost"
	conn.Scheme = "http"
	conn.Port = 4000

	built, err := BuildURL(conn, "/auth/github", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/auth/github", built)
}

func TestBuildURL_IPv6Host(t *testing.T) {
	conn, _ := newTestConn("GET", "/")
	conn.Host = "::1"
	conn.Scheme = "http"

	conn.Port = 8080
	built, err := BuildURL(conn, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://[::1]:8080/x", built)

	conn.Port = 80
	built, err = BuildURL(conn, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://[::1]/x", built)

	conn.Host = "[::1]"
	conn.Scheme = "https"
	conn.Port = 8443
	built, err = BuildURL(conn, "/a", nil)
	assert.ErrorIs(t, err, ErrInvalidURLComponents)
	assert.Empty(t, built)
}

func TestBuildURL_RelativePathGetsSlash(t *testing.T) {
	conn, _ := newTestConn("GET", "/")

	built, err := BuildURL(conn, "auth/github", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/auth/github", built)
}

func TestBuildURL_QueryRoundTrip(t *testing.T) {
	conn, _ := newTestConn("GET", "/")

	queries := []map[string]string{
		{},
		{"a": "1 2"},
		{"redirect_uri": "https://app.example.com/cb?x=1&y=2", "scope": "openid email"},
		{"weird key&=": "100% <sure>#", "empty": ""},
		{"unicode": "héllo wörld", "plus": "a+b"},
	}

	for _, q := range queries {
		built, err := BuildURL(conn, "/p", q)
		require.NoError(t, err)

		parsed, err := url.Parse(built)
		require.NoError(t, err)

		decoded := map[string]string{}
		for k, v := range parsed.Query() {
			decoded[k] = v[0]
		}
		assert.Equal(t, q, decoded)
	}
}

func TestBuildURL_InvalidComponents(t *testing.T) {
	cases := map[string]func(c *testConnFields){
		"empty host":      func(c *testConnFields) { c.host = "" },
		"host with slash": func(c *testConnFields) { c.host = "evil.com/path" },
		"empty scheme":    func(c *testConnFields) { c.scheme = "" },
		"bad scheme":      func(c *testConnFields) { c.scheme = "ht tp" },
		"negative port":   func(c *testConnFields) { c.port = -1 },
		"huge port":       func(c *testConnFields) { c.port = 70000 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			conn, _ := newTestConn("GET", "/")
			f := testConnFields{host: "example.com", scheme: "https", port: 443}
			mutate(&f)
			conn.Host, conn.Scheme, conn.Port = f.host, f.scheme, f.port

			built, err := BuildURL(conn, "/auth", nil)
			assert.ErrorIs(t, err, ErrInvalidURLComponents)
			assert.Equal(t, "", built)
		})
	}
}

type testConnFields struct {
	host   string
	scheme string
	port   int
}

func TestRequestURL(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github")

	built, err := RequestURL(conn, map[string]string{"return_to": "/home"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/auth/github?return_to=%2Fhome", built)
}

func TestCallbackURL(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github")

	built, err := CallbackURL(conn, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/auth/github/callback", built)
}

func TestCallbackURL_Override(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github")
	conn.Private.CallbackURL = "https://public.example.org/cb"

	built, err := CallbackURL(conn, map[string]string{"ignored": "yes"})
	require.NoError(t, err)
	assert.Equal(t, "https://public.example.org/cb", built)
}

func TestCallbackURL_SchemeAndPortOverride(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github")

	conn.Private.CallbackScheme = "https"
	built, err := CallbackURL(conn, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/auth/github/callback", built)

	conn.Private.CallbackPort = 8443
	built, err = CallbackURL(conn, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8443/auth/github/callback", built)
}

func TestCallbackURL_ForwardsParams(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github?invite=abc&other=zzz")
	conn.Private.CallbackParams = []string{"invite", "absent"}

	built, err := CallbackURL(conn, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/auth/github/callback?a=b&invite=abc", built)
}

func TestCallbackURL_NoRequestContext(t *testing.T) {
	conn, _ := newTestConn("GET", "/")

	built, err := CallbackURL(conn, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", built)
}
