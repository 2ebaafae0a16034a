package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackMethodAllowed_CaseInsensitive(t *testing.T) {
	conn, _ := newConfiguredConn("GET", "/auth/github/callback")
	conn.Request.Method = "get"

	assert.True(t, CallbackMethodAllowed(conn))
}

func TestCallbackMethodAllowed_ConfiguredLowercase(t *testing.T) {
	conn, _ := newConfiguredConn("POST", "/auth/github/callback")
	conn.Private.CallbackMethods = []string{"post"}

	assert.True(t, CallbackMethodAllowed(conn))
}

func TestCallbackMethodAllowed_NoMatch(t *testing.T) {
	conn, _ := newConfiguredConn("DELETE", "/auth/github/callback")

	assert.False(t, CallbackMethodAllowed(conn))
}

func TestCallbackMethodAllowed_FailsClosed(t *testing.T) {
	conn, _ := newTestConn("GET", "/auth/github/callback")
	assert.False(t, CallbackMethodAllowed(conn), "no request context")

	conn, _ = newConfiguredConn("GET", "/auth/github/callback")
	conn.Private.CallbackMethods = nil
	assert.False(t, CallbackMethodAllowed(conn), "nil methods")

	conn.Private.CallbackMethods = []string{}
	assert.False(t, CallbackMethodAllowed(conn), "empty methods")
}
