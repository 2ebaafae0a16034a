// Package helpers is the surface strategies use to read their per-request
// configuration, build URLs, report failures and redirect.
package helpers

import (
	"fmt"

	"github.com/jamesread/strategyshim/authpublic"
)

// Resolve returns the RequestContext attached to conn. A missing context is
// not an error; callers treat it as "no configuration available".
func Resolve(conn *authpublic.Conn) (*authpublic.RequestContext, bool) {
	if conn == nil || conn.Private == nil {
		return nil, false
	}
	return conn.Private, true
}

// StrategyName returns the provider name the strategy was registered under.
func StrategyName(conn *authpublic.Conn) string {
	if rc, ok := Resolve(conn); ok {
		return rc.StrategyName
	}
	return ""
}

// Strategy returns the strategy handling this request, or nil.
func Strategy(conn *authpublic.Conn) authpublic.Strategy {
	if rc, ok := Resolve(conn); ok {
		return rc.Strategy
	}
	return nil
}

// RequestPath returns the path that starts the request phase.
func RequestPath(conn *authpublic.Conn) string {
	if rc, ok := Resolve(conn); ok {
		return rc.RequestPath
	}
	return ""
}

// CallbackPath returns the path the provider sends the user back to.
func CallbackPath(conn *authpublic.Conn) string {
	if rc, ok := Resolve(conn); ok {
		return rc.CallbackPath
	}
	return ""
}

// AllowedCallbackMethods returns the HTTP methods accepted on the callback path.
func AllowedCallbackMethods(conn *authpublic.Conn) []string {
	if rc, ok := Resolve(conn); ok {
		return rc.CallbackMethods
	}
	return nil
}

// Options returns the merged option mapping, or nil when none is attached.
func Options(conn *authpublic.Conn) authpublic.Options {
	if rc, ok := Resolve(conn); ok {
		return rc.Options
	}
	return nil
}

// Option looks up a single entry of the extra options mapping.
func Option(conn *authpublic.Conn, key string) (any, bool) {
	v, ok := Options(conn)[key]
	return v, ok
}

// OptionString returns the option formatted as a string, or "" when unset.
func OptionString(conn *authpublic.Conn, key string) string {
	v, ok := Option(conn, key)
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
