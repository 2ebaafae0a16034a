package helpers

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jamesread/strategyshim/authpublic"
)

// ErrInvalidURLComponents is returned when host, scheme or port cannot form
// a valid absolute URL.
var ErrInvalidURLComponents = errors.New("invalid url components")

// BuildURL joins the Conn's transport facts with path and an encoded query.
// Ports that are the default for the scheme are left out.
func BuildURL(conn *authpublic.Conn, path string, query map[string]string) (string, error) {
	if conn == nil {
		return "", fmt.Errorf("%w: no connection", ErrInvalidURLComponents)
	}

	scheme := strings.ToLower(conn.Scheme)
	if !validScheme(scheme) {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURLComponents, conn.Scheme)
	}

	if !validHost(conn.Host) {
		return "", fmt.Errorf("%w: host %q", ErrInvalidURLComponents, conn.Host)
	}

	if conn.Port < 0 || conn.Port > 65535 {
		return "", fmt.Errorf("%w: port %d", ErrInvalidURLComponents, conn.Port)
	}

	host := conn.Host
	if conn.Port != 0 && conn.Port != authpublic.DefaultPort(scheme) {
		host = net.JoinHostPort(conn.Host, strconv.Itoa(conn.Port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawQuery: encodeQuery(query),
	}

	return u.String(), nil
}

// RequestURL is BuildURL applied to the resolved request path.
func RequestURL(conn *authpublic.Conn, query map[string]string) (string, error) {
	return BuildURL(conn, RequestPath(conn), query)
}

// CallbackURL is BuildURL applied to the resolved callback path. A configured
// callback URL is returned verbatim; scheme and port overrides and forwarded
// request params are applied otherwise.
func CallbackURL(conn *authpublic.Conn, query map[string]string) (string, error) {
	rc, ok := Resolve(conn)
	if !ok {
		return BuildURL(conn, "", query)
	}

	if rc.CallbackURL != "" {
		return rc.CallbackURL, nil
	}

	target := *conn
	if rc.CallbackScheme != "" {
		target.Scheme = rc.CallbackScheme
		target.Port = authpublic.DefaultPort(rc.CallbackScheme)
	}
	if rc.CallbackPort != 0 {
		target.Port = rc.CallbackPort
	}

	return BuildURL(&target, rc.CallbackPath, callbackQuery(conn, rc.CallbackParams, query))
}

func callbackQuery(conn *authpublic.Conn, forward []string, query map[string]string) map[string]string {
	if len(forward) == 0 || conn.Request == nil {
		return query
	}

	ret := make(map[string]string, len(query)+len(forward))
	maps.Copy(ret, query)

	params := conn.Request.URL.Query()
	for _, name := range forward {
		if v := params.Get(name); v != "" {
			ret[name] = v
		}
	}

	return ret
}

func encodeQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}

	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}

	return values.Encode()
}

func validScheme(scheme string) bool {
	if scheme == "" {
		return false
	}

	for i, c := range scheme {
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}

	return true
}

func validHost(host string) bool {
	return host != "" && !strings.ContainsAny(host, "/?#@[] \t\r\n")
}
